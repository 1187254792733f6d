package tutor

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// GroupStats summarizes the submissions in one subject or difficulty bucket.
type GroupStats struct {
	Accuracy     float64 `json:"accuracy"`
	AverageScore float64 `json:"average_score"`
	Count        int     `json:"count"`
}

// UserMetricsRollup is a full rebuild of a user's quiz performance. Every
// recompute overwrites the whole row.
type UserMetricsRollup struct {
	UserID string `gorm:"column:user_id;type:varchar(128);primaryKey" json:"user_id"`

	OverallAccuracy float64 `gorm:"column:overall_accuracy;not null" json:"overall_accuracy"`
	AverageAccuracy float64 `gorm:"column:average_accuracy;not null" json:"average_accuracy"`
	AverageScore    float64 `gorm:"column:average_score;not null" json:"average_score"`
	TotalQuizzes    int     `gorm:"column:total_quizzes_taken;not null" json:"total_quizzes_taken"`

	SubjectStats    datatypes.JSON `gorm:"column:subject_stats" json:"subject_stats"`
	DifficultyStats datatypes.JSON `gorm:"column:difficulty_stats" json:"difficulty_stats"`

	ComputedAt time.Time `gorm:"column:computed_at;not null" json:"last_updated"`
}

func (UserMetricsRollup) TableName() string { return "tutor_user_metrics" }

func (m *UserMetricsRollup) Subjects() map[string]GroupStats {
	return decodeGroups(m, func(r *UserMetricsRollup) datatypes.JSON { return r.SubjectStats })
}

func (m *UserMetricsRollup) Difficulties() map[string]GroupStats {
	return decodeGroups(m, func(r *UserMetricsRollup) datatypes.JSON { return r.DifficultyStats })
}

func decodeGroups(m *UserMetricsRollup, pick func(*UserMetricsRollup) datatypes.JSON) map[string]GroupStats {
	out := map[string]GroupStats{}
	if m == nil {
		return out
	}
	raw := pick(m)
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}
