package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurotutor-backend/internal/data/repos"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type Repos struct {
	User           repos.UserRepo
	Session        repos.SessionRepo
	Turn           repos.TurnRepo
	Quiz           repos.QuizRepo
	QuizSubmission repos.QuizSubmissionRepo
	UserMetrics    repos.UserMetricsRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:           repos.NewUserRepo(db, log),
		Session:        repos.NewSessionRepo(db, log),
		Turn:           repos.NewTurnRepo(db, log),
		Quiz:           repos.NewQuizRepo(db, log),
		QuizSubmission: repos.NewQuizSubmissionRepo(db, log),
		UserMetrics:    repos.NewUserMetricsRepo(db, log),
	}
}
