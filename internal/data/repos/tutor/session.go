package tutor

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, rows []*types.Session) ([]*types.Session, error)
	// CreateIfMissing inserts row unless a session with the same id exists.
	CreateIfMissing(dbc dbctx.Context, row *types.Session) (bool, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Session, error)
	ListByUser(dbc dbctx.Context, userID string, limit, offset int) ([]*types.Session, error)
	CountByUser(dbc dbctx.Context, userID string) (int64, error)
	// ReserveSeq atomically advances next_seq by n and returns the first
	// reserved position. Callers must run it inside a transaction.
	ReserveSeq(dbc dbctx.Context, id uuid.UUID, n int64) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, log *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: log.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(dbc dbctx.Context, rows []*types.Session) ([]*types.Session, error) {
	if len(rows) == 0 {
		return []*types.Session{}, nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sessionRepo) CreateIfMissing(dbc dbctx.Context, row *types.Session) (bool, error) {
	if row == nil || row.ID == uuid.Nil {
		return false, fmt.Errorf("missing session_id")
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *sessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Session, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	var out types.Session
	err := dbc.DB(r.db).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sessionRepo) ListByUser(dbc dbctx.Context, userID string, limit, offset int) ([]*types.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var out []*types.Session
	if err := dbc.DB(r.db).
		Model(&types.Session{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) CountByUser(dbc dbctx.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("missing user_id")
	}
	var n int64
	err := dbc.DB(r.db).Model(&types.Session{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *sessionRepo) ReserveSeq(dbc dbctx.Context, id uuid.UUID, n int64) (int64, error) {
	if id == uuid.Nil {
		return 0, fmt.Errorf("missing session_id")
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid reservation size %d", n)
	}
	txx := dbc.DB(r.db)
	res := txx.Model(&types.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"next_seq":   gorm.Expr("next_seq + ?", n),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("session %s: %w", id, gorm.ErrRecordNotFound)
	}
	var next int64
	if err := txx.Model(&types.Session{}).
		Select("next_seq").
		Where("id = ?", id).
		Scan(&next).Error; err != nil {
		return 0, err
	}
	return next - n + 1, nil
}

func (r *sessionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing session_id")
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).Model(&types.Session{}).Where("id = ?", id).Updates(updates).Error
}
