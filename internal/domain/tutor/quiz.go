package tutor

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OptionLabels are the answer labels a quiz may carry, in display order.
var OptionLabels = []string{"A", "B", "C", "D"}

// Quiz is a generated multiple-choice question. Rows are immutable once written.
type Quiz struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"quiz_id"`
	UserID    string     `gorm:"column:user_id;type:varchar(128);not null;index" json:"user_id"`
	SessionID *uuid.UUID `gorm:"type:uuid;column:session_id;index" json:"session_id,omitempty"`

	Question      string         `gorm:"column:question;type:text" json:"question"`
	Options       datatypes.JSON `gorm:"column:options" json:"options"`
	CorrectOption string         `gorm:"column:correct_option;type:varchar(4)" json:"correct_answer"`
	Explanation   string         `gorm:"column:explanation;type:text" json:"explanation"`
	Difficulty    Difficulty     `gorm:"column:difficulty;type:varchar(16);not null;default:'easy'" json:"difficulty"`
	Subject       Subject        `gorm:"column:subject;type:varchar(64);not null;default:'Unknown'" json:"subject"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Quiz) TableName() string { return "tutor_quiz" }

func (q *Quiz) OptionMap() map[string]string {
	out := map[string]string{}
	if q == nil || len(q.Options) == 0 {
		return out
	}
	_ = json.Unmarshal(q.Options, &out)
	return out
}

// QuizSubmission is a learner's latest answer to a quiz. (user_id, quiz_id)
// is unique; resubmitting overwrites the answer but keeps CreatedAt.
type QuizSubmission struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"column:user_id;type:varchar(128);not null;uniqueIndex:idx_submission_user_quiz,priority:1" json:"user_id"`
	QuizID uuid.UUID `gorm:"type:uuid;column:quiz_id;not null;uniqueIndex:idx_submission_user_quiz,priority:2" json:"quiz_id"`

	SelectedOption string     `gorm:"column:selected_option;type:varchar(4);not null" json:"selected_option"`
	IsCorrect      bool       `gorm:"column:is_correct;not null" json:"is_correct"`
	Score          int        `gorm:"column:score;not null" json:"score"`
	Difficulty     Difficulty `gorm:"column:difficulty;type:varchar(16);not null" json:"difficulty"`
	Subject        Subject    `gorm:"column:subject;type:varchar(64);not null;index" json:"subject"`

	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	RespondedAt time.Time `gorm:"column:responded_at;not null" json:"responded_at"`
}

func (QuizSubmission) TableName() string { return "tutor_quiz_submission" }
