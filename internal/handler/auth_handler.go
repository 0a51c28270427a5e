package handler

import (
	"net/http"
	"time"

	"timesheet-service/internal/model"
	"timesheet-service/pkg/database"
	"timesheet-service/pkg/jwtutil"
	"timesheet-service/pkg/logger"
	"timesheet-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest is the self-service student registration payload
type RegisterRequest struct {
	StudentID    string `json:"student_id"`
	Name         string `json:"name"`
	Password     string `json:"password"`
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

// Register creates a student account. Staff accounts are created through the
// admin endpoints; the role here is always forced to student.
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.StudentID == "" || req.Name == "" || req.Password == "" {
		log.Error("Invalid registration data",
			zap.String("student_id", req.StudentID),
			zap.Bool("password_provided", req.Password != ""))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_id, name and password are required"})
	}

	// Check if the student id is taken
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.User
	result := database.GetDB().Where("student_id = ?", req.StudentID).First(&existing)
	if result.Error == nil {
		log.Error("Student ID already registered", zap.String("student_id", req.StudentID))
		prometheus.RecordAuthError("student_id_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "student id already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		StudentID:    req.StudentID,
		Name:         req.Name,
		Password:     string(hashedPassword),
		Role:         model.RoleStudent,
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
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered", zap.String("student_id", user.StudentID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login verifies student id + password and issues a JWT
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		StudentID string `json:"student_id"`
		Password  string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("student_id = ?", req.StudentID).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("student_id", req.StudentID))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("student_id", req.StudentID))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := jwtutil.GenerateToken(user.ID, user.StudentID, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in",
		zap.String("student_id", user.StudentID),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": map[string]interface{}{
			"id":         user.ID,
			"student_id": user.StudentID,
			"name":       user.Name,
			"role":       user.Role,
		},
	})
}
