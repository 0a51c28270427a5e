package report

import (
	"errors"
	"fmt"

	"timesheet-service/internal/model"

	"gorm.io/gorm"
)

// Query describes one report request after boundary validation. Dates are
// inclusive YYYY-MM-DD bounds. The student-ID range is only honored for
// admin requesters; everyone else is scoped to their own rows.
type Query struct {
	StartDate      string
	EndDate        string
	Role           string
	UserID         uint
	StartStudentID string
	EndStudentID   string
}

// Row is one line of a report: a day's entry with its derived hours
type Row struct {
	Date      string `json:"date"`
	StudentID string `json:"studentId"`
	Hours     string `json:"hours"`
	Activity  string `json:"activity"`
}

// Fetch resolves the target user set for the query, loads the matching
// timesheet rows ordered by date and derives hours per row.
func Fetch(db *gorm.DB, q Query) ([]Row, error) {
	users, err := resolveUsers(db, q)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0)
	if len(users) == 0 {
		return rows, nil
	}

	studentIDs := make(map[uint]string, len(users))
	userIDs := make([]uint, 0, len(users))
	for _, u := range users {
		studentIDs[u.ID] = u.StudentID
		userIDs = append(userIDs, u.ID)
	}

	var sheets []model.TimeSheet
	err = db.Where("user_id IN ? AND date BETWEEN ? AND ?", userIDs, q.StartDate, q.EndDate).
		Order("date ASC").
		Find(&sheets).Error
	if err != nil {
		return nil, err
	}

	for _, ts := range sheets {
		rows = append(rows, Row{
			Date:      ts.Date,
			StudentID: studentIDs[ts.UserID],
			Hours:     Hours(&ts),
			Activity:  ts.Activity,
		})
	}
	return rows, nil
}

// resolveUsers returns the users whose rows the requester may see. Admins
// get everyone, optionally narrowed to a lexicographic student-ID range;
// any other role gets exactly itself regardless of range parameters.
func resolveUsers(db *gorm.DB, q Query) ([]model.User, error) {
	var users []model.User

	if q.Role == model.RoleAdmin {
		tx := db.Model(&model.User{})
		if q.StartStudentID != "" && q.EndStudentID != "" {
			tx = tx.Where("student_id BETWEEN ? AND ?", q.StartStudentID, q.EndStudentID)
		}
		if err := tx.Find(&users).Error; err != nil {
			return nil, err
		}
		return users, nil
	}

	var u model.User
	if err := db.First(&u, q.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []model.User{u}, nil
}

// Hours derives the elapsed time of an entry as a two-decimal string.
// Entries without a check-out render as "0.00".
func Hours(ts *model.TimeSheet) string {
	if ts.CheckOut == nil {
		return "0.00"
	}
	ms := ts.CheckOut.Sub(ts.CheckIn).Milliseconds()
	return fmt.Sprintf("%.2f", float64(ms)/3600000.0)
}

// Filename builds the conventional export file name for a date range
func Filename(startDate, endDate, ext string) string {
	return fmt.Sprintf("timesheet_%s_%s.%s", startDate, endDate, ext)
}
