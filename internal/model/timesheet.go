package model

import (
	"time"
)

// DateLayout is the calendar-date format used on timesheet rows and in
// report date-range parameters. All dates and instants are UTC.
const DateLayout = "2006-01-02"

// TimeSheet is one attendance entry: a day's check-in/check-out pair with a
// free-text activity description. Elapsed hours are derived on read, never
// stored.
type TimeSheet struct {
	ID       uint       `json:"id" gorm:"primaryKey"`
	UserID   uint       `json:"user_id" gorm:"index;not null"`
	User     User       `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Date     string     `json:"date" gorm:"type:varchar(10);index;not null"`
	CheckIn  time.Time  `json:"check_in"`
	CheckOut *time.Time `json:"check_out,omitempty"`
	Activity string     `json:"activity" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
