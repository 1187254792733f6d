package user

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, id string) (*types.User, error)
	UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error
	// TouchLastQuizSubmission records at as the user's latest submission
	// time, creating a bare profile row when none exists.
	TouchLastQuizSubmission(dbc dbctx.Context, id string, at time.Time) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	now := time.Now().UTC()
	for _, u := range users {
		if u == nil {
			continue
		}
		if u.ID == "" {
			return nil, fmt.Errorf("missing user id")
		}
		if u.Grade == "" {
			u.Grade = types.DefaultGrade
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		u.UpdatedAt = now
	}
	if err := dbc.DB(ur.db).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByID(dbc dbctx.Context, id string) (*types.User, error) {
	if id == "" {
		return nil, fmt.Errorf("missing user id")
	}
	var out types.User
	err := dbc.DB(ur.db).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (ur *userRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error {
	if id == "" {
		return fmt.Errorf("missing user id")
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(ur.db).Model(&types.User{}).Where("id = ?", id).Updates(updates).Error
}

func (ur *userRepo) TouchLastQuizSubmission(dbc dbctx.Context, id string, at time.Time) error {
	if id == "" {
		return fmt.Errorf("missing user id")
	}
	at = at.UTC()
	row := &types.User{
		ID:                   id,
		Grade:                types.DefaultGrade,
		LastQuizSubmissionAt: &at,
		CreatedAt:            at,
		UpdatedAt:            at,
	}
	return dbc.DB(ur.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_quiz_submission_at", "updated_at"}),
	}).Create(row).Error
}
