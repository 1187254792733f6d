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
	"github.com/yungbote/neurotutor-backend/internal/platform/ctxutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

// TopicLabeler names a conversation from its first message.
type TopicLabeler interface {
	Label(ctx context.Context, firstMessage string) string
}

// ConversationPage is one page of a conversation's history, newest first.
type ConversationPage struct {
	Session *types.Session
	Turns   []*types.Turn
	Total   int64
}

type ConversationService interface {
	Create(dbc dbctx.Context, firstMessage string) (*types.Session, error)
	List(dbc dbctx.Context, limit, offset int) ([]*types.Session, error)
	Get(dbc dbctx.Context, id uuid.UUID, limit, offset int) (*ConversationPage, error)
	// Latest returns the caller's most recent conversation, or nil.
	Latest(dbc dbctx.Context) (*types.Session, error)
}

type conversationService struct {
	db       *gorm.DB
	log      *logger.Logger
	sessions repos.SessionRepo
	history  HistoryService
	topics   TopicLabeler
}

func NewConversationService(db *gorm.DB, baseLog *logger.Logger, sessionRepo repos.SessionRepo, history HistoryService, topics TopicLabeler) ConversationService {
	return &conversationService{
		db:       db,
		log:      baseLog.With("service", "ConversationService"),
		sessions: sessionRepo,
		history:  history,
		topics:   topics,
	}
}

func callerID(dbc dbctx.Context) (string, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || strings.TrimSpace(rd.UserID) == "" {
		return "", apierr.ErrUnauthorized
	}
	return rd.UserID, nil
}

func (s *conversationService) Create(dbc dbctx.Context, firstMessage string) (*types.Session, error) {
	userID, err := callerID(dbc)
	if err != nil {
		return nil, err
	}
	topic := types.DefaultTopic
	if s.topics != nil && strings.TrimSpace(firstMessage) != "" {
		topic = s.topics.Label(dbc.Ctx, firstMessage)
	}
	now := time.Now().UTC()
	created, err := s.sessions.Create(dbc, []*types.Session{{
		ID:        uuid.New(),
		UserID:    userID,
		Topic:     topic,
		CreatedAt: now,
		UpdatedAt: now,
	}})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	if len(created) == 0 || created[0] == nil {
		return nil, fmt.Errorf("failed to create conversation")
	}
	s.log.Info("conversation created", "session_id", created[0].ID, "user_id", userID)
	return created[0], nil
}

func (s *conversationService) List(dbc dbctx.Context, limit, offset int) ([]*types.Session, error) {
	userID, err := callerID(dbc)
	if err != nil {
		return nil, err
	}
	return s.sessions.ListByUser(dbc, userID, limit, offset)
}

func (s *conversationService) Get(dbc dbctx.Context, id uuid.UUID, limit, offset int) (*ConversationPage, error) {
	userID, err := callerID(dbc)
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, apierr.BadRequest("invalid_conversation_id", "conversation id required")
	}
	sess, err := s.sessions.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != userID {
		return nil, apierr.NotFound("conversation_not_found", "conversation %s", id)
	}
	turns, err := s.history.Page(dbc.Ctx, id, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.history.Total(dbc.Ctx, id)
	if err != nil {
		return nil, err
	}
	return &ConversationPage{Session: sess, Turns: turns, Total: total}, nil
}

func (s *conversationService) Latest(dbc dbctx.Context) (*types.Session, error) {
	userID, err := callerID(dbc)
	if err != nil {
		return nil, err
	}
	rows, err := s.sessions.ListByUser(dbc, userID, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
