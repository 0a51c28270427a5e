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
	"golang.org/x/crypto/bcrypt"
)

// AdminUserRequest is the payload for admin-initiated account creation and
// edits; unlike self-registration the role is caller-chosen.
type AdminUserRequest struct {
	StudentID    string `json:"student_id"`
	Name         string `json:"name"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Branch       string `json:"branch"`
	Course       string `json:"course"`
	Company      string `json:"company"`
	Position     string `json:"position"`
	Semester     string `json:"semester"`
	AcademicYear string `json:"academic_year"`
}

// ListUsers returns all accounts, optionally filtered by role
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("list")

	tx := database.GetDB().Model(&model.User{})
	if role := c.QueryParam("role"); role != "" {
		tx = tx.Where("role = ?", role)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if result := tx.Order("student_id ASC").Find(&users); result.Error != nil {
		log.Error("Failed to list users", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list users"})
	}

	return c.JSON(http.StatusOK, users)
}

// CreateUser creates an account with any role (staff accounts included)
func CreateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("create")

	var req AdminUserRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid user creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.StudentID == "" || req.Name == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_id, name and password are required"})
	}
	if req.Role == "" {
		req.Role = model.RoleStudent
	}
	if !model.ValidRole(req.Role) {
		log.Error("Unknown role", zap.String("role", req.Role))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.User
	if result := database.GetDB().Where("student_id = ?", req.StudentID).First(&existing); result.Error == nil {
		log.Error("Student ID already exists", zap.String("student_id", req.StudentID))
		return c.JSON(http.StatusConflict, echo.Map{"error": "student id already registered"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user creation failed"})
	}

	user := model.User{
		StudentID:    req.StudentID,
		Name:         req.Name,
		Password:     string(hashed),
		Role:         req.Role,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Branch:       req.Branch,
		Course:       req.Course,
		Company:      req.Company,
		Position:     req.Position,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user creation failed"})
	}

	log.Info("User created by admin",
		zap.String("student_id", user.StudentID),
		zap.String("role", user.Role))
	return c.JSON(http.StatusCreated, user)
}

// GetUser returns one account by numeric id
func GetUser(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, uint(id)); result.Error != nil {
		log.Error("User not found", zap.Uint64("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateUser edits any account. Demoting the last admin is refused so the
// system always keeps at least one admin.
func UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("update")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	var req AdminUserRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid user update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var user model.User
	if result := database.GetDB().First(&user, uint(id)); result.Error != nil {
		log.Error("User not found", zap.Uint64("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if req.Role != "" && req.Role != user.Role {
		if !model.ValidRole(req.Role) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
		}
		if user.Role == model.RoleAdmin && adminCount() <= 1 {
			log.Warn("Refusing to demote the last admin", zap.Uint("user_id", user.ID))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot demote the last admin"})
		}
		user.Role = req.Role
	}

	applyProfile(&user, &ProfileRequest{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Branch:       req.Branch,
		Course:       req.Course,
		Company:      req.Company,
		Position:     req.Position,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
	})

	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("Failed to hash password", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
		user.Password = string(hashed)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&user); result.Error != nil {
		log.Error("Failed to update user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	log.Info("User updated by admin", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes any account and its timesheet rows. The last remaining
// admin cannot be deleted.
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	var user model.User
	if result := database.GetDB().First(&user, uint(id)); result.Error != nil {
		log.Error("User not found", zap.Uint64("user_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if user.Role == model.RoleAdmin && adminCount() <= 1 {
		log.Warn("Refusing to delete the last admin", zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete the last admin"})
	}

	if err := deleteUserCascade(user.ID); err != nil {
		log.Error("Failed to delete user", zap.Error(err), zap.Uint("user_id", user.ID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	log.Info("User deleted by admin", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

func adminCount() int64 {
	var count int64
	database.GetDB().Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count)
	return count
}
