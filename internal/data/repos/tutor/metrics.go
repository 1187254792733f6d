package tutor

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type UserMetricsRepo interface {
	// Replace overwrites every column of the user's rollup.
	Replace(dbc dbctx.Context, row *types.UserMetricsRollup) error
	GetByUser(dbc dbctx.Context, userID string) (*types.UserMetricsRollup, error)
}

type userMetricsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserMetricsRepo(db *gorm.DB, log *logger.Logger) UserMetricsRepo {
	return &userMetricsRepo{db: db, log: log.With("repo", "UserMetricsRepo")}
}

func (r *userMetricsRepo) Replace(dbc dbctx.Context, row *types.UserMetricsRollup) error {
	if row == nil || row.UserID == "" {
		return fmt.Errorf("missing user_id")
	}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"overall_accuracy",
			"average_accuracy",
			"average_score",
			"total_quizzes_taken",
			"subject_stats",
			"difficulty_stats",
			"computed_at",
		}),
	}).Create(row).Error
}

func (r *userMetricsRepo) GetByUser(dbc dbctx.Context, userID string) (*types.UserMetricsRollup, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	var out types.UserMetricsRollup
	err := dbc.DB(r.db).Where("user_id = ?", userID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
