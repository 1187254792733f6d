package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/neurotutor-backend/internal/data/repos"
	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/domain/tutor"
	tutormod "github.com/yungbote/neurotutor-backend/internal/modules/tutor"
	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
	"github.com/yungbote/neurotutor-backend/internal/platform/ctxutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type QuizService interface {
	// SaveExtracted persists a complete extracted quiz, filling enum defaults.
	SaveExtracted(ctx context.Context, userID string, sessionID *uuid.UUID, q tutormod.ExtractedQuiz) (*types.Quiz, error)
	// Get returns a quiz owned by the caller.
	Get(dbc dbctx.Context, quizID uuid.UUID) (*types.Quiz, error)
}

type quizService struct {
	db      *gorm.DB
	log     *logger.Logger
	quizzes repos.QuizRepo
}

func NewQuizService(db *gorm.DB, baseLog *logger.Logger, quizRepo repos.QuizRepo) QuizService {
	return &quizService{db: db, log: baseLog.With("service", "QuizService"), quizzes: quizRepo}
}

func (s *quizService) SaveExtracted(ctx context.Context, userID string, sessionID *uuid.UUID, q tutormod.ExtractedQuiz) (*types.Quiz, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	if !q.Complete() {
		return nil, apierr.BadRequest("incomplete_quiz", "quiz needs a question, options and a correct answer")
	}
	row, err := quizFromExtracted(userID, sessionID, q)
	if err != nil {
		return nil, err
	}
	saved, err := s.quizzes.Create(dbctx.Context{Ctx: ctx}, row)
	if err != nil {
		return nil, fmt.Errorf("insert quiz: %w", err)
	}
	s.log.Debug("quiz stored", "quiz_id", saved.ID, "user_id", userID, "difficulty", saved.Difficulty, "subject", saved.Subject)
	return saved, nil
}

func quizFromExtracted(userID string, sessionID *uuid.UUID, q tutormod.ExtractedQuiz) (*types.Quiz, error) {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}
	row := &types.Quiz{
		UserID:        userID,
		SessionID:     sessionID,
		Question:      *q.Question,
		Options:       datatypes.JSON(opts),
		CorrectOption: *q.CorrectOption,
		Difficulty:    tutor.DefaultDifficulty,
		Subject:       tutor.SubjectUnknown,
	}
	if q.Explanation != nil {
		row.Explanation = *q.Explanation
	}
	if q.Difficulty != nil {
		row.Difficulty = *q.Difficulty
	}
	if q.Subject != nil {
		row.Subject = tutor.ParseSubject(*q.Subject)
	}
	return row, nil
}

func (s *quizService) Get(dbc dbctx.Context, quizID uuid.UUID) (*types.Quiz, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == "" {
		return nil, apierr.ErrUnauthorized
	}
	if quizID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_quiz_id", "quiz id required")
	}
	q, err := s.quizzes.GetByID(dbctx.Context{Ctx: dbc.Ctx, Tx: dbc.Tx}, quizID)
	if err != nil {
		return nil, err
	}
	if q == nil || q.UserID != rd.UserID {
		return nil, apierr.NotFound("quiz_not_found", "quiz %s", quizID)
	}
	return q, nil
}
