package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurotutor-backend/internal/data/repos"
	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

// DefaultPageLimit is the page size used when a caller asks for none.
const DefaultPageLimit = 10

// HistoryService is the durable per-session turn log.
type HistoryService interface {
	// OpenOrCreate returns the session, creating it for userID when unknown.
	// A session owned by someone else is rejected.
	OpenOrCreate(ctx context.Context, sessionID uuid.UUID, userID string) (*types.Session, error)
	// Append stores turns in order, lazily creating the session.
	Append(ctx context.Context, sessionID uuid.UUID, userID string, turns ...*types.Turn) error
	Recent(ctx context.Context, sessionID uuid.UUID, n int) ([]*types.Turn, error)
	// Page returns up to limit turns, newest first, skipping the newest
	// offset turns.
	Page(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*types.Turn, error)
	Total(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

type historyService struct {
	db       *gorm.DB
	log      *logger.Logger
	sessions repos.SessionRepo
	turns    repos.TurnRepo
}

func NewHistoryService(db *gorm.DB, baseLog *logger.Logger, sessionRepo repos.SessionRepo, turnRepo repos.TurnRepo) HistoryService {
	return &historyService{
		db:       db,
		log:      baseLog.With("service", "HistoryService"),
		sessions: sessionRepo,
		turns:    turnRepo,
	}
}

func (s *historyService) OpenOrCreate(ctx context.Context, sessionID uuid.UUID, userID string) (*types.Session, error) {
	if sessionID == uuid.Nil {
		return nil, apierr.BadRequest("missing_session_id", "session id required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, apierr.BadRequest("missing_user_id", "user id required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	created, err := s.sessions.CreateIfMissing(dbc, &types.Session{ID: sessionID, UserID: userID, Topic: types.DefaultTopic})
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	sess, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s vanished after create", sessionID)
	}
	if sess.UserID != userID {
		return nil, apierr.Forbidden("session_forbidden", "session %s belongs to another user", sessionID)
	}
	if created {
		s.log.Debug("session created", "session_id", sessionID, "user_id", userID)
	}
	return sess, nil
}

func (s *historyService) Append(ctx context.Context, sessionID uuid.UUID, userID string, turns ...*types.Turn) error {
	if sessionID == uuid.Nil {
		return fmt.Errorf("missing session_id")
	}
	rows := make([]*types.Turn, 0, len(turns))
	for _, t := range turns {
		if t != nil {
			rows = append(rows, t)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.sessions.CreateIfMissing(inner, &types.Session{ID: sessionID, UserID: userID, Topic: types.DefaultTopic}); err != nil {
			return fmt.Errorf("ensure session: %w", err)
		}
		first, err := s.sessions.ReserveSeq(inner, sessionID, int64(len(rows)))
		if err != nil {
			return fmt.Errorf("reserve seq: %w", err)
		}
		now := time.Now().UTC()
		for i, row := range rows {
			row.SessionID = sessionID
			row.Seq = first + int64(i)
			if row.CreatedAt.IsZero() {
				row.CreatedAt = now
			}
		}
		if _, err := s.turns.Create(inner, rows); err != nil {
			return fmt.Errorf("insert turns: %w", err)
		}
		return nil
	})
}

func (s *historyService) Recent(ctx context.Context, sessionID uuid.UUID, n int) ([]*types.Turn, error) {
	return s.turns.ListRecent(dbctx.Context{Ctx: ctx}, sessionID, n)
}

func (s *historyService) Page(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*types.Turn, error) {
	if limit < 0 || offset < 0 {
		return nil, apierr.BadRequest("invalid_page", "limit and offset must be non-negative")
	}
	dbc := dbctx.Context{Ctx: ctx}
	total, err := s.turns.Count(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	start, count := pageWindow(int(total), limit, offset)
	if count == 0 {
		return []*types.Turn{}, nil
	}
	rows, err := s.turns.ListRange(dbc, sessionID, start, count)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (s *historyService) Total(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	return s.turns.Count(dbctx.Context{Ctx: ctx}, sessionID)
}

// pageWindow maps a newest-first (limit, offset) page onto the
// chronological log of total turns.
func pageWindow(total, limit, offset int) (start, count int) {
	start = total - offset - limit
	if start < 0 {
		start = 0
	}
	count = total - offset
	if limit < count {
		count = limit
	}
	if count < 0 {
		count = 0
	}
	return start, count
}
