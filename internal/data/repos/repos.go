package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/neurotutor-backend/internal/data/repos/tutor"
	"github.com/yungbote/neurotutor-backend/internal/data/repos/user"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type SessionRepo = tutor.SessionRepo
type TurnRepo = tutor.TurnRepo
type QuizRepo = tutor.QuizRepo
type QuizSubmissionRepo = tutor.QuizSubmissionRepo
type UserMetricsRepo = tutor.UserMetricsRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewSessionRepo(db *gorm.DB, log *logger.Logger) SessionRepo {
	return tutor.NewSessionRepo(db, log)
}

func NewTurnRepo(db *gorm.DB, log *logger.Logger) TurnRepo { return tutor.NewTurnRepo(db, log) }

func NewQuizRepo(db *gorm.DB, log *logger.Logger) QuizRepo { return tutor.NewQuizRepo(db, log) }

func NewQuizSubmissionRepo(db *gorm.DB, log *logger.Logger) QuizSubmissionRepo {
	return tutor.NewQuizSubmissionRepo(db, log)
}

func NewUserMetricsRepo(db *gorm.DB, log *logger.Logger) UserMetricsRepo {
	return tutor.NewUserMetricsRepo(db, log)
}
