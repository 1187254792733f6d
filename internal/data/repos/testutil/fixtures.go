package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/neurotutor-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, id string) *types.User {
	tb.Helper()
	now := time.Now().UTC()
	u := &types.User{
		ID:        id,
		Name:      "Learner",
		Email:     id + "@example.com",
		Grade:     types.DefaultGrade,
		Board:     "CBSE",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, userID string) *types.Session {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Topic:     types.DefaultTopic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func SeedQuiz(tb testing.TB, ctx context.Context, tx *gorm.DB, userID string, correct string, difficulty types.Difficulty, subject types.Subject) *types.Quiz {
	tb.Helper()
	opts, _ := json.Marshal(map[string]string{"A": "one", "B": "two", "C": "three", "D": "four"})
	q := &types.Quiz{
		ID:            uuid.New(),
		UserID:        userID,
		Question:      "Pick one",
		Options:       datatypes.JSON(opts),
		CorrectOption: correct,
		Explanation:   "because",
		Difficulty:    difficulty,
		Subject:       subject,
		CreatedAt:     time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	return q
}
