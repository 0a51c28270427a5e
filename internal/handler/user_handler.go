package handler

import (
	"net/http"
	"time"

	"timesheet-service/internal/model"
	"timesheet-service/pkg/database"
	"timesheet-service/pkg/logger"
	"timesheet-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ProfileRequest carries the self-editable profile fields
type ProfileRequest struct {
	Name         string `json:"name"`
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

// GetProfile returns the authenticated user's record
func GetProfile(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("profile_access")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		log.Error("User not found", zap.Uint("user_id", userID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateProfile applies profile field changes for the authenticated user
func UpdateProfile(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("profile_update")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid profile update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		log.Error("User not found", zap.Uint("user_id", userID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	applyProfile(&user, &req)

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&user); result.Error != nil {
		log.Error("Failed to update profile", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	log.Info("Profile updated", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, user)
}

// ChangePassword verifies the current password and stores a new hash
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("password_change")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil || req.NewPassword == "" {
		log.Error("Invalid change-password request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current_password and new_password are required"})
	}

	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		log.Error("User not found", zap.Uint("user_id", userID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		log.Error("Current password mismatch", zap.Uint("user_id", userID))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password is incorrect"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(&user).Update("password", string(hashed)); result.Error != nil {
		log.Error("Failed to store new password", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}

	log.Info("Password changed", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// DeleteProfile removes the authenticated account and its timesheet rows.
// Admin accounts cannot self-delete; they are removed by another admin.
func DeleteProfile(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordUserOperation("self_delete")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	role, _ := c.Get("role").(string)
	if role == model.RoleAdmin {
		log.Warn("Admin attempted self-delete", zap.Uint("user_id", userID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin accounts are removed by another admin"})
	}

	if err := deleteUserCascade(userID); err != nil {
		log.Error("Failed to delete account", zap.Error(err), zap.Uint("user_id", userID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	log.Info("Account deleted", zap.Uint("user_id", userID))
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}

// applyProfile copies the non-empty request fields onto the user record
func applyProfile(user *model.User, req *ProfileRequest) {
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Address != "" {
		user.Address = req.Address
	}
	if req.Branch != "" {
		user.Branch = req.Branch
	}
	if req.Course != "" {
		user.Course = req.Course
	}
	if req.Company != "" {
		user.Company = req.Company
	}
	if req.Position != "" {
		user.Position = req.Position
	}
	if req.Semester != "" {
		user.Semester = req.Semester
	}
	if req.AcademicYear != "" {
		user.AcademicYear = req.AcademicYear
	}
}

// deleteUserCascade removes a user and all their timesheet rows in one
// transaction. Cascade is enforced here rather than left to the schema so it
// behaves the same on every driver.
func deleteUserCascade(userID uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.TimeSheet{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, userID).Error
	})
}
