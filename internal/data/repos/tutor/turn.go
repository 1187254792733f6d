package tutor

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type TurnRepo interface {
	Create(dbc dbctx.Context, rows []*types.Turn) ([]*types.Turn, error)
	// ListRecent returns the last n turns in chronological order.
	ListRecent(dbc dbctx.Context, sessionID uuid.UUID, n int) ([]*types.Turn, error)
	// ListRange returns count turns starting at zero-based position start, in
	// chronological order.
	ListRange(dbc dbctx.Context, sessionID uuid.UUID, start, count int) ([]*types.Turn, error)
	Count(dbc dbctx.Context, sessionID uuid.UUID) (int64, error)
}

type turnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTurnRepo(db *gorm.DB, log *logger.Logger) TurnRepo {
	return &turnRepo{db: db, log: log.With("repo", "TurnRepo")}
}

func (r *turnRepo) Create(dbc dbctx.Context, rows []*types.Turn) ([]*types.Turn, error) {
	if len(rows) == 0 {
		return []*types.Turn{}, nil
	}
	for _, row := range rows {
		if row != nil && row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *turnRepo) ListRecent(dbc dbctx.Context, sessionID uuid.UUID, n int) ([]*types.Turn, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	if n <= 0 {
		return []*types.Turn{}, nil
	}
	var out []*types.Turn
	if err := dbc.DB(r.db).
		Model(&types.Turn{}).
		Where("session_id = ?", sessionID).
		Order("seq DESC").
		Limit(n).
		Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *turnRepo) ListRange(dbc dbctx.Context, sessionID uuid.UUID, start, count int) ([]*types.Turn, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	if count <= 0 {
		return []*types.Turn{}, nil
	}
	if start < 0 {
		start = 0
	}
	var out []*types.Turn
	if err := dbc.DB(r.db).
		Model(&types.Turn{}).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Offset(start).
		Limit(count).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *turnRepo) Count(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	if sessionID == uuid.Nil {
		return 0, fmt.Errorf("missing session_id")
	}
	var n int64
	err := dbc.DB(r.db).Model(&types.Turn{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, err
}
