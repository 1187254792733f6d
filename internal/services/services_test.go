package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/neurotutor-backend/internal/data/repos"
	"github.com/yungbote/neurotutor-backend/internal/data/repos/testutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/ctxutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type fixture struct {
	db          *gorm.DB
	log         *logger.Logger
	users       repos.UserRepo
	sessions    repos.SessionRepo
	turns       repos.TurnRepo
	quizzes     repos.QuizRepo
	submissions repos.QuizSubmissionRepo
	rollups     repos.UserMetricsRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &fixture{
		db:          db,
		log:         log,
		users:       repos.NewUserRepo(db, log),
		sessions:    repos.NewSessionRepo(db, log),
		turns:       repos.NewTurnRepo(db, log),
		quizzes:     repos.NewQuizRepo(db, log),
		submissions: repos.NewQuizSubmissionRepo(db, log),
		rollups:     repos.NewUserMetricsRepo(db, log),
	}
}

func asUser(userID string) dbctx.Context {
	return dbctx.Context{Ctx: ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID, Email: userID + "@example.com", Name: "Learner " + userID})}
}
