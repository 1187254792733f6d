package tutor

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type QuizRepo interface {
	Create(dbc dbctx.Context, row *types.Quiz) (*types.Quiz, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Quiz, error)
	ListByUser(dbc dbctx.Context, userID string, limit int) ([]*types.Quiz, error)
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, log *logger.Logger) QuizRepo {
	return &quizRepo{db: db, log: log.With("repo", "QuizRepo")}
}

func (r *quizRepo) Create(dbc dbctx.Context, row *types.Quiz) (*types.Quiz, error) {
	if row == nil {
		return nil, fmt.Errorf("missing quiz")
	}
	if row.UserID == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *quizRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Quiz, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing quiz_id")
	}
	var out types.Quiz
	err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *quizRepo) ListByUser(dbc dbctx.Context, userID string, limit int) ([]*types.Quiz, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.Quiz
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
