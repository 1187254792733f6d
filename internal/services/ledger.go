package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/neurotutor-backend/internal/data/repos"
	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/domain/tutor"
	"github.com/yungbote/neurotutor-backend/internal/observability"
	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
	"github.com/yungbote/neurotutor-backend/internal/platform/ctxutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

// SubmitInput is one answer as sent by the client. UserID is optional; when
// set it must match the authenticated caller.
type SubmitInput struct {
	UserID         string
	QuizID         uuid.UUID
	SelectedOption string
	Difficulty     string
	Subject        string
}

type SubmissionLedger interface {
	// Submit upserts the caller's answer keyed on (user, quiz) and rebuilds
	// their metrics. created is false when an earlier answer was overwritten.
	Submit(dbc dbctx.Context, in SubmitInput) (sub *types.QuizSubmission, created bool, err error)
}

type submissionLedger struct {
	db          *gorm.DB
	log         *logger.Logger
	users       repos.UserRepo
	quizzes     repos.QuizRepo
	submissions repos.QuizSubmissionRepo
	metrics     MetricsAggregator
	now         func() time.Time
}

func NewSubmissionLedger(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	quizRepo repos.QuizRepo,
	submissionRepo repos.QuizSubmissionRepo,
	metrics MetricsAggregator,
) SubmissionLedger {
	return &submissionLedger{
		db:          db,
		log:         baseLog.With("service", "SubmissionLedger"),
		users:       userRepo,
		quizzes:     quizRepo,
		submissions: submissionRepo,
		metrics:     metrics,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func normalizeOption(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func validOption(s string) bool {
	for _, l := range tutor.OptionLabels {
		if s == l {
			return true
		}
	}
	return false
}

func (s *submissionLedger) Submit(dbc dbctx.Context, in SubmitInput) (*types.QuizSubmission, bool, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == "" {
		return nil, false, apierr.ErrUnauthorized
	}
	if uid := strings.TrimSpace(in.UserID); uid != "" && uid != rd.UserID {
		return nil, false, apierr.Forbidden("identity_mismatch", "user id does not match token")
	}
	userID := rd.UserID

	if in.QuizID == uuid.Nil {
		return nil, false, apierr.BadRequest("invalid_quiz_id", "quiz id required")
	}
	selected := normalizeOption(in.SelectedOption)
	if !validOption(selected) {
		return nil, false, apierr.BadRequest("invalid_option", "selected option must be one of A, B, C, D")
	}
	var difficulty tutor.Difficulty
	if raw := strings.TrimSpace(in.Difficulty); raw != "" {
		d, ok := tutor.ParseDifficulty(raw)
		if !ok {
			return nil, false, apierr.BadRequest("invalid_difficulty", "difficulty must be easy, medium or hard")
		}
		difficulty = d
	}

	ctx, span := observability.StartSpan(dbc.Ctx, "ledger.submit",
		attribute.String("tutor.quiz_id", in.QuizID.String()),
	)
	defer span.End()

	quiz, err := s.quizzes.GetByID(dbctx.Context{Ctx: ctx}, in.QuizID)
	if err != nil {
		return nil, false, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil || quiz.UserID != userID {
		return nil, false, apierr.NotFound("quiz_not_found", "quiz %s", in.QuizID)
	}

	// Client-sent difficulty and subject win; the quiz fills gaps.
	if difficulty == "" {
		difficulty = quiz.Difficulty
		if _, ok := tutor.ParseDifficulty(string(difficulty)); !ok {
			difficulty = tutor.DefaultDifficulty
		}
	}
	subject := tutor.ParseSubject(in.Subject)
	if strings.TrimSpace(in.Subject) == "" && quiz.Subject != "" {
		subject = quiz.Subject
	}

	correct := selected == normalizeOption(quiz.CorrectOption)
	now := s.now()
	row := &types.QuizSubmission{
		UserID:         userID,
		QuizID:         quiz.ID,
		SelectedOption: selected,
		IsCorrect:      correct,
		Score:          difficulty.Score(correct),
		Difficulty:     difficulty,
		Subject:        subject,
		CreatedAt:      now,
		RespondedAt:    now,
	}

	var (
		stored  *types.QuizSubmission
		created bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		var err error
		stored, created, err = s.submissions.Upsert(inner, row)
		if err != nil {
			return fmt.Errorf("upsert submission: %w", err)
		}
		if err := s.users.TouchLastQuizSubmission(inner, userID, now); err != nil {
			return fmt.Errorf("touch user: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}
	observability.Current().IncSubmission(created)
	span.SetAttributes(attribute.Bool("tutor.created", created), attribute.Bool("tutor.correct", correct))

	if _, err := s.metrics.Recompute(ctx, userID); err != nil {
		s.log.Error("metrics recompute failed after submission", "user_id", userID, "quiz_id", quiz.ID, "error", err)
		return stored, created, fmt.Errorf("recompute metrics: %w", err)
	}
	s.log.Info("quiz submission recorded", "user_id", userID, "quiz_id", quiz.ID, "created", created, "correct", correct)
	return stored, created, nil
}
