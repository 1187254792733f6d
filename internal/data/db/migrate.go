package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/neurotutor-backend/internal/domain"
)

// Models lists every table the service owns, in creation order.
func Models() []interface{} {
	return []interface{}{
		// Identity
		&types.User{},

		// Conversations
		&types.Session{},
		&types.Turn{},

		// Quizzes + ledger
		&types.Quiz{},
		&types.QuizSubmission{},
		&types.UserMetricsRollup{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
