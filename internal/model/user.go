package model

import (
	"time"
)

// Roles a user account can hold
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// ValidRole reports whether the given role is one of the known roles
func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleTeacher || role == RoleAdmin
}

// User represents an account stored in the database. Students register
// themselves; teacher and admin accounts are created by an admin.
type User struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"type:varchar(30);uniqueIndex"`
	Name      string `json:"name" gorm:"type:varchar(100)"`
	Password  string `json:"-" gorm:"type:varchar(255)"`
	Role      string `json:"role" gorm:"type:varchar(20);index"`
	Email     string `json:"email" gorm:"type:varchar(100)"`
	Phone     string `json:"phone" gorm:"type:varchar(20)"`
	Address   string `json:"address" gorm:"type:text"`

	// Internship/course profile fields, optional
	Branch       string `json:"branch,omitempty" gorm:"type:varchar(100)"`
	Course       string `json:"course,omitempty" gorm:"type:varchar(100)"`
	Company      string `json:"company,omitempty" gorm:"type:varchar(100)"`
	Position     string `json:"position,omitempty" gorm:"type:varchar(100)"`
	Semester     string `json:"semester,omitempty" gorm:"type:varchar(20)"`
	AcademicYear string `json:"academic_year,omitempty" gorm:"type:varchar(20)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
