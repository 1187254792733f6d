package tutor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type QuizSubmissionRepo interface {
	// Upsert writes row keyed on (user_id, quiz_id). created reports whether
	// this call inserted the row; on update created_at is left untouched.
	Upsert(dbc dbctx.Context, row *types.QuizSubmission) (stored *types.QuizSubmission, created bool, err error)
	Get(dbc dbctx.Context, userID string, quizID uuid.UUID) (*types.QuizSubmission, error)
	ListByUser(dbc dbctx.Context, userID string) ([]*types.QuizSubmission, error)
}

type quizSubmissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizSubmissionRepo(db *gorm.DB, log *logger.Logger) QuizSubmissionRepo {
	return &quizSubmissionRepo{db: db, log: log.With("repo", "QuizSubmissionRepo")}
}

func (r *quizSubmissionRepo) Upsert(dbc dbctx.Context, row *types.QuizSubmission) (*types.QuizSubmission, bool, error) {
	if row == nil {
		return nil, false, fmt.Errorf("missing submission")
	}
	if row.UserID == "" {
		return nil, false, fmt.Errorf("missing user_id")
	}
	if row.QuizID == uuid.Nil {
		return nil, false, fmt.Errorf("missing quiz_id")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = row.RespondedAt
	}

	// The insert either claims the key or is a no-op; exactly one concurrent
	// writer observes created=true. Losers fall through to the keyed update.
	txx := dbc.DB(r.db)
	res := txx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "quiz_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected == 1

	if !created {
		upd := txx.Model(&types.QuizSubmission{}).
			Where("user_id = ? AND quiz_id = ?", row.UserID, row.QuizID).
			Updates(map[string]interface{}{
				"selected_option": row.SelectedOption,
				"is_correct":      row.IsCorrect,
				"score":           row.Score,
				"difficulty":      row.Difficulty,
				"subject":         row.Subject,
				"responded_at":    row.RespondedAt,
			})
		if upd.Error != nil {
			return nil, false, upd.Error
		}
	}

	stored, err := r.Get(dbc, row.UserID, row.QuizID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("submission vanished after upsert")
	}
	return stored, created, nil
}

func (r *quizSubmissionRepo) Get(dbc dbctx.Context, userID string, quizID uuid.UUID) (*types.QuizSubmission, error) {
	var out types.QuizSubmission
	err := dbc.DB(r.db).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *quizSubmissionRepo) ListByUser(dbc dbctx.Context, userID string) ([]*types.QuizSubmission, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	var out []*types.QuizSubmission
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
