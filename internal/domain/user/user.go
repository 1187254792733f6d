package user

import (
	"time"

	"gorm.io/gorm"
)

const DefaultGrade = "10th"

// User is the learner profile. ID is the identity provider's subject, so it is
// a string rather than a generated UUID.
type User struct {
	ID       string `gorm:"column:id;type:varchar(128);primaryKey" json:"id"`
	Name     string `gorm:"column:name;not null;default:''" json:"name"`
	Email    string `gorm:"column:email;index" json:"email"`
	PhotoURL string `gorm:"column:photo_url" json:"photo_url,omitempty"`

	Grade string `gorm:"column:grade;not null;default:'10th'" json:"grade"`
	Board string `gorm:"column:board;not null;default:''" json:"board"`

	LastQuizSubmissionAt *time.Time `gorm:"column:last_quiz_submission_at;index" json:"last_quiz_submission_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "tutor_user" }

// GradeOrDefault returns the stored grade, falling back to DefaultGrade.
func (u *User) GradeOrDefault() string {
	if u == nil || u.Grade == "" {
		return DefaultGrade
	}
	return u.Grade
}
