package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"timesheet-service/internal/model"
	"timesheet-service/pkg/database"
)

func TestCreateAndCheckoutFlow(t *testing.T) {
	e := setupTest(t)
	_, token := createTestUser(t, "S001", model.RoleStudent)

	rec := doJSON(e, http.MethodPost, "/api/timesheets",
		`{"date":"2024-01-01","check_in":"2024-01-01T09:00:00Z","activity":"morning lab"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created model.TimeSheet
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.CheckOut != nil {
		t.Error("new entry already has a check-out")
	}

	rec = doJSON(e, http.MethodPut, "/api/timesheets/"+itoa(created.ID)+"/checkout",
		`{"check_out":"2024-01-01T17:30:00Z"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var closed model.TimeSheet
	if err := json.Unmarshal(rec.Body.Bytes(), &closed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if closed.CheckOut == nil {
		t.Fatal("check-out not recorded")
	}

	// A second checkout on the same entry is refused
	rec = doJSON(e, http.MethodPut, "/api/timesheets/"+itoa(created.ID)+"/checkout", "", token)
	if rec.Code != http.StatusConflict {
		t.Errorf("double checkout: status = %d, want 409", rec.Code)
	}
}

func TestCheckoutBeforeCheckinRejected(t *testing.T) {
	e := setupTest(t)
	_, token := createTestUser(t, "S001", model.RoleStudent)

	rec := doJSON(e, http.MethodPost, "/api/timesheets",
		`{"date":"2024-01-01","check_in":"2024-01-01T09:00:00Z","check_out":"2024-01-01T08:00:00Z"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative duration on create: status = %d, want 400", rec.Code)
	}

	rec = doJSON(e, http.MethodPost, "/api/timesheets",
		`{"date":"2024-01-01","check_in":"2024-01-01T09:00:00Z"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	var created model.TimeSheet
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(e, http.MethodPut, "/api/timesheets/"+itoa(created.ID)+"/checkout",
		`{"check_out":"2024-01-01T08:00:00Z"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative duration on checkout: status = %d, want 400", rec.Code)
	}
}

func TestTimesheetOwnershipEnforced(t *testing.T) {
	e := setupTest(t)
	owner, ownerToken := createTestUser(t, "S001", model.RoleStudent)
	_, strangerToken := createTestUser(t, "S002", model.RoleStudent)
	_, adminToken := createTestUser(t, "A001", model.RoleAdmin)

	seedTimesheet(t, owner.ID, "2024-01-01", "09:00", "", "lab")
	var ts model.TimeSheet
	if err := database.GetDB().Where("user_id = ?", owner.ID).First(&ts).Error; err != nil {
		t.Fatalf("load seeded row: %v", err)
	}

	rec := doJSON(e, http.MethodPut, "/api/timesheets/"+itoa(ts.ID),
		`{"activity":"tampered"}`, strangerToken)
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger update: status = %d, want 403", rec.Code)
	}

	rec = doJSON(e, http.MethodPut, "/api/timesheets/"+itoa(ts.ID),
		`{"activity":"reviewed"}`, adminToken)
	if rec.Code != http.StatusOK {
		t.Errorf("admin update: status = %d, want 200", rec.Code)
	}

	rec = doJSON(e, http.MethodDelete, "/api/timesheets/"+itoa(ts.ID), "", ownerToken)
	if rec.Code != http.StatusOK {
		t.Errorf("owner delete: status = %d, want 200", rec.Code)
	}
}

func TestTimesheetNotFound(t *testing.T) {
	e := setupTest(t)
	_, token := createTestUser(t, "S001", model.RoleStudent)

	rec := doJSON(e, http.MethodPut, "/api/timesheets/9999", `{"activity":"x"}`, token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
