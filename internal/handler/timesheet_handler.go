package handler

import (
	"net/http"
	"strconv"
	"time"

	"timesheet-service/internal/model"
	"timesheet-service/pkg/database"
	"timesheet-service/pkg/logger"
	"timesheet-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TimesheetRequest is the create/update payload. Instants are RFC 3339;
// omitted check_in on create defaults to now (UTC), omitted date to the
// check-in's calendar date.
type TimesheetRequest struct {
	Date     string `json:"date"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Activity string `json:"activity"`
}

// CreateTimesheet records a new entry for the authenticated user
func CreateTimesheet(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTimesheetOperation("create")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req TimesheetRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid timesheet request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	checkIn := time.Now().UTC()
	if req.CheckIn != "" {
		parsed, err := time.Parse(time.RFC3339, req.CheckIn)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_in must be RFC 3339"})
		}
		checkIn = parsed.UTC()
	}

	var checkOut *time.Time
	if req.CheckOut != "" {
		parsed, err := time.Parse(time.RFC3339, req.CheckOut)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_out must be RFC 3339"})
		}
		out := parsed.UTC()
		if !out.After(checkIn) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_out must be after check_in"})
		}
		checkOut = &out
	}

	date := req.Date
	if date == "" {
		date = checkIn.Format(model.DateLayout)
	} else if _, err := time.Parse(model.DateLayout, date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ts := model.TimeSheet{
		UserID:   userID,
		Date:     date,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Activity: req.Activity,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&ts); result.Error != nil {
		log.Error("Failed to create timesheet", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create timesheet"})
	}

	log.Info("Timesheet created",
		zap.Uint("user_id", userID),
		zap.String("date", ts.Date))
	return c.JSON(http.StatusCreated, ts)
}

// Checkout closes an open entry. The check-out instant defaults to now and
// must fall after the recorded check-in.
func Checkout(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTimesheetOperation("checkout")

	ts, errResp := loadOwnedTimesheet(c)
	if ts == nil {
		return errResp
	}

	if ts.CheckOut != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "already checked out"})
	}

	var req struct {
		CheckOut string `json:"check_out"`
		Activity string `json:"activity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	out := time.Now().UTC()
	if req.CheckOut != "" {
		parsed, err := time.Parse(time.RFC3339, req.CheckOut)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_out must be RFC 3339"})
		}
		out = parsed.UTC()
	}
	if !out.After(ts.CheckIn) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_out must be after check_in"})
	}

	ts.CheckOut = &out
	if req.Activity != "" {
		ts.Activity = req.Activity
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(ts); result.Error != nil {
		log.Error("Failed to save checkout", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save checkout"})
	}

	log.Info("Checked out", zap.Uint("timesheet_id", ts.ID))
	return c.JSON(http.StatusOK, ts)
}

// ListTimesheets returns the caller's rows, newest date first. Admins may
// inspect another user with the user_id query parameter.
func ListTimesheets(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	role, _ := c.Get("role").(string)

	target := userID
	if role == model.RoleAdmin {
		if v := c.QueryParam("user_id"); v != "" {
			parsed, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
			}
			target = uint(parsed)
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var sheets []model.TimeSheet
	result := database.GetDB().
		Where("user_id = ?", target).
		Order("date DESC").
		Find(&sheets)
	if result.Error != nil {
		log.Error("Failed to list timesheets", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list timesheets"})
	}

	return c.JSON(http.StatusOK, sheets)
}

// UpdateTimesheet edits an entry; owner or admin only
func UpdateTimesheet(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTimesheetOperation("update")

	ts, errResp := loadOwnedTimesheet(c)
	if ts == nil {
		return errResp
	}

	var req TimesheetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Date != "" {
		if _, err := time.Parse(model.DateLayout, req.Date); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		ts.Date = req.Date
	}
	if req.CheckIn != "" {
		parsed, err := time.Parse(time.RFC3339, req.CheckIn)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_in must be RFC 3339"})
		}
		ts.CheckIn = parsed.UTC()
	}
	if req.CheckOut != "" {
		parsed, err := time.Parse(time.RFC3339, req.CheckOut)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_out must be RFC 3339"})
		}
		out := parsed.UTC()
		ts.CheckOut = &out
	}
	if ts.CheckOut != nil && !ts.CheckOut.After(ts.CheckIn) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "check_out must be after check_in"})
	}
	if req.Activity != "" {
		ts.Activity = req.Activity
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(ts); result.Error != nil {
		log.Error("Failed to update timesheet", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update timesheet"})
	}

	return c.JSON(http.StatusOK, ts)
}

// DeleteTimesheet removes an entry; owner or admin only
func DeleteTimesheet(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTimesheetOperation("delete")

	ts, errResp := loadOwnedTimesheet(c)
	if ts == nil {
		return errResp
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := database.GetDB().Delete(ts); result.Error != nil {
		log.Error("Failed to delete timesheet", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete timesheet"})
	}

	log.Info("Timesheet deleted", zap.Uint("timesheet_id", ts.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "timesheet deleted"})
}

// loadOwnedTimesheet fetches the :id row and checks the caller owns it or is
// an admin. On failure the returned error is the already-written response.
func loadOwnedTimesheet(c echo.Context) (*model.TimeSheet, error) {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return nil, c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	role, _ := c.Get("role").(string)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid timesheet id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var ts model.TimeSheet
	if result := database.GetDB().First(&ts, uint(id)); result.Error != nil {
		log.Error("Timesheet not found", zap.Uint64("timesheet_id", id))
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "timesheet not found"})
	}

	if ts.UserID != userID && role != model.RoleAdmin {
		log.Warn("Timesheet access denied",
			zap.Uint("user_id", userID),
			zap.Uint("owner_id", ts.UserID))
		return nil, c.JSON(http.StatusForbidden, echo.Map{"error": "not your timesheet"})
	}

	return &ts, nil
}
