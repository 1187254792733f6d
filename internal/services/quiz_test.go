package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/neurotutor-backend/internal/domain"
	tutormod "github.com/yungbote/neurotutor-backend/internal/modules/tutor"
	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
)

func TestQuizServiceSaveExtracted(t *testing.T) {
	f := newFixture(t)
	svc := NewQuizService(f.db, f.log, f.quizzes)
	ctx := context.Background()

	x := tutormod.ExtractQuiz("### Question: 2+2?\n**A.** 3\n**B.** 4\n**Correct Answer:** B\n**Subject:** maths")
	sid := uuid.New()
	q, err := svc.SaveExtracted(ctx, "u1", &sid, x)
	require.NoError(t, err)
	assert.Equal(t, types.DifficultyEasy, q.Difficulty)
	assert.Equal(t, types.Subject("Math"), q.Subject)
	assert.Equal(t, map[string]string{"A": "3", "B": "4"}, q.OptionMap())
	assert.Empty(t, q.Explanation)

	got, err := svc.Get(asUser("u1"), q.ID)
	require.NoError(t, err)
	assert.Equal(t, "2+2?", got.Question)
	require.NotNil(t, got.SessionID)
	assert.Equal(t, sid, *got.SessionID)

	_, err = svc.Get(asUser("u2"), q.ID)
	assert.ErrorIs(t, err, apierr.ErrNotFound)

	_, err = svc.SaveExtracted(ctx, "u1", nil, tutormod.ExtractQuiz("no quiz here"))
	assert.ErrorIs(t, err, apierr.ErrInvalidArgument)

	noSubject := tutormod.ExtractQuiz("### Question: q\n**A.** a\n**Correct Answer:** A\n**Difficulty:** hard")
	q2, err := svc.SaveExtracted(ctx, "u1", nil, noSubject)
	require.NoError(t, err)
	assert.Equal(t, types.SubjectUnknown, q2.Subject)
	assert.Equal(t, types.DifficultyHard, q2.Difficulty)
}
