package report

import (
	"testing"
	"time"

	"timesheet-service/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.TimeSheet{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, studentID, role string) model.User {
	t.Helper()
	u := model.User{StudentID: studentID, Name: "user " + studentID, Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", studentID, err)
	}
	return u
}

func seedEntry(t *testing.T, db *gorm.DB, userID uint, date, in, out, activity string) {
	t.Helper()
	checkIn, err := time.Parse(time.RFC3339, date+"T"+in+":00Z")
	if err != nil {
		t.Fatalf("parse check-in: %v", err)
	}
	ts := model.TimeSheet{UserID: userID, Date: date, CheckIn: checkIn, Activity: activity}
	if out != "" {
		checkOut, err := time.Parse(time.RFC3339, date+"T"+out+":00Z")
		if err != nil {
			t.Fatalf("parse check-out: %v", err)
		}
		ts.CheckOut = &checkOut
	}
	if err := db.Create(&ts).Error; err != nil {
		t.Fatalf("seed entry: %v", err)
	}
}

func TestHours(t *testing.T) {
	checkIn := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		out  *time.Time
		want string
	}{
		{"full day", timePtr(time.Date(2024, 1, 1, 17, 30, 0, 0, time.UTC)), "8.50"},
		{"morning", timePtr(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)), "3.00"},
		{"quarter hour", timePtr(time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)), "0.25"},
		{"open entry", nil, "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := model.TimeSheet{CheckIn: checkIn, CheckOut: tc.out}
			if got := Hours(&ts); got != tc.want {
				t.Errorf("Hours() = %q, want %q", got, tc.want)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestFetchStudentSeesOnlyOwnRows(t *testing.T) {
	db := openTestDB(t)
	me := seedUser(t, db, "S001", model.RoleStudent)
	other := seedUser(t, db, "S002", model.RoleStudent)
	seedEntry(t, db, me.ID, "2024-01-01", "09:00", "12:00", "meeting")
	seedEntry(t, db, other.ID, "2024-01-01", "09:00", "17:00", "coding")

	// Range parameters from a non-admin must not widen the scope
	rows, err := Fetch(db, Query{
		StartDate: "2024-01-01", EndDate: "2024-01-01",
		Role: model.RoleStudent, UserID: me.ID,
		StartStudentID: "S001", EndStudentID: "S999",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	want := Row{Date: "2024-01-01", StudentID: "S001", Hours: "3.00", Activity: "meeting"}
	if rows[0] != want {
		t.Errorf("row = %+v, want %+v", rows[0], want)
	}
}

func TestFetchAdminSeesAllUsers(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "A001", model.RoleAdmin)
	s1 := seedUser(t, db, "S001", model.RoleStudent)
	s2 := seedUser(t, db, "S002", model.RoleStudent)
	seedEntry(t, db, s1.ID, "2024-01-02", "09:00", "17:00", "")
	seedEntry(t, db, s2.ID, "2024-01-01", "10:00", "11:00", "review")

	rows, err := Fetch(db, Query{
		StartDate: "2024-01-01", EndDate: "2024-01-31",
		Role: model.RoleAdmin, UserID: admin.ID,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	// Ordered by date ascending
	if rows[0].Date != "2024-01-01" || rows[1].Date != "2024-01-02" {
		t.Errorf("rows not ordered by date: %+v", rows)
	}
	// Null-ish activity stays an empty string
	if rows[1].Activity != "" {
		t.Errorf("activity = %q, want empty", rows[1].Activity)
	}
}

func TestFetchAdminStudentIDRange(t *testing.T) {
	db := openTestDB(t)
	admin := seedUser(t, db, "A001", model.RoleAdmin)
	inRange := seedUser(t, db, "S003", model.RoleStudent)
	outOfRange := seedUser(t, db, "S007", model.RoleStudent)
	seedEntry(t, db, inRange.ID, "2024-01-01", "09:00", "17:00", "lab")
	seedEntry(t, db, outOfRange.ID, "2024-01-01", "09:00", "17:00", "lab")

	rows, err := Fetch(db, Query{
		StartDate: "2024-01-01", EndDate: "2024-01-01",
		Role: model.RoleAdmin, UserID: admin.ID,
		StartStudentID: "S001", EndStudentID: "S005",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].StudentID != "S003" {
		t.Errorf("student id = %q, want S003", rows[0].StudentID)
	}
}

func TestFetchDateRangeIsInclusive(t *testing.T) {
	db := openTestDB(t)
	s := seedUser(t, db, "S001", model.RoleStudent)
	seedEntry(t, db, s.ID, "2024-01-01", "09:00", "10:00", "")
	seedEntry(t, db, s.ID, "2024-01-05", "09:00", "10:00", "")
	seedEntry(t, db, s.ID, "2024-01-06", "09:00", "10:00", "")

	rows, err := Fetch(db, Query{
		StartDate: "2024-01-01", EndDate: "2024-01-05",
		Role: model.RoleStudent, UserID: s.ID,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (both bounds inclusive)", len(rows))
	}
}

func TestFetchEmptyResultIsNotNil(t *testing.T) {
	db := openTestDB(t)
	s := seedUser(t, db, "S001", model.RoleStudent)

	rows, err := Fetch(db, Query{
		StartDate: "2024-01-01", EndDate: "2024-01-31",
		Role: model.RoleStudent, UserID: s.ID,
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if rows == nil {
		t.Fatal("rows is nil, want empty slice")
	}
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
}

func TestFilename(t *testing.T) {
	got := Filename("2024-01-01", "2024-01-31", "pdf")
	want := "timesheet_2024-01-01_2024-01-31.pdf"
	if got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}
