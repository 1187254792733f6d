package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
)

func TestPageWindow(t *testing.T) {
	cases := []struct {
		total, limit, offset int
		start, count         int
	}{
		{100, 10, 0, 90, 10},
		{100, 10, 95, 0, 5},
		{100, 10, 100, 0, 0},
		{100, 10, 250, 0, 0},
		{5, 10, 0, 0, 5},
		{0, 10, 0, 0, 0},
		{100, 0, 0, 100, 0},
	}
	for _, tc := range cases {
		start, count := pageWindow(tc.total, tc.limit, tc.offset)
		if start != tc.start || count != tc.count {
			t.Fatalf("pageWindow(%d,%d,%d)=(%d,%d) want (%d,%d)", tc.total, tc.limit, tc.offset, start, count, tc.start, tc.count)
		}
	}
}

func seedTurns(t *testing.T, svc HistoryService, sessionID uuid.UUID, userID string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		require.NoError(t, svc.Append(context.Background(), sessionID, userID, &types.Turn{Role: types.RoleHuman, Content: fmt.Sprintf("turn %d", i)}))
	}
}

func contents(turns []*types.Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Content
	}
	return out
}

func TestHistoryPagination(t *testing.T) {
	f := newFixture(t)
	svc := NewHistoryService(f.db, f.log, f.sessions, f.turns)
	ctx := context.Background()
	sid := uuid.New()
	seedTurns(t, svc, sid, "u1", 100)

	total, err := svc.Total(ctx, sid)
	require.NoError(t, err)
	assert.EqualValues(t, 100, total)

	page, err := svc.Page(ctx, sid, 10, 0)
	require.NoError(t, err)
	want := make([]string, 0, 10)
	for i := 100; i >= 91; i-- {
		want = append(want, fmt.Sprintf("turn %d", i))
	}
	assert.Equal(t, want, contents(page))

	page, err = svc.Page(ctx, sid, 10, 95)
	require.NoError(t, err)
	assert.Equal(t, []string{"turn 5", "turn 4", "turn 3", "turn 2", "turn 1"}, contents(page))

	page, err = svc.Page(ctx, sid, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, page)

	_, err = svc.Page(ctx, sid, -1, 0)
	assert.ErrorIs(t, err, apierr.ErrInvalidArgument)

	recent, err := svc.Recent(ctx, sid, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"turn 98", "turn 99", "turn 100"}, contents(recent))
}

func TestHistoryAppendCreatesSessionAndKeepsOrder(t *testing.T) {
	f := newFixture(t)
	svc := NewHistoryService(f.db, f.log, f.sessions, f.turns)
	ctx := context.Background()
	sid := uuid.New()

	require.NoError(t, svc.Append(ctx, sid, "u1",
		&types.Turn{Role: types.RoleHuman, Content: "q"},
		&types.Turn{Role: types.RoleAI, Content: "a"},
	))
	sess, err := f.sessions.GetByID(asUser("u1"), sid)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, types.DefaultTopic, sess.Topic)

	turns, err := svc.Recent(ctx, sid, 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.EqualValues(t, 1, turns[0].Seq)
	assert.EqualValues(t, 2, turns[1].Seq)
	assert.Equal(t, types.RoleAI, turns[1].Role)

	assert.NoError(t, svc.Append(ctx, sid, "u1"))
}

func TestHistoryOpenOrCreate(t *testing.T) {
	f := newFixture(t)
	svc := NewHistoryService(f.db, f.log, f.sessions, f.turns)
	ctx := context.Background()
	sid := uuid.New()

	first, err := svc.OpenOrCreate(ctx, sid, "u1")
	require.NoError(t, err)
	again, err := svc.OpenOrCreate(ctx, sid, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, first.CreatedAt.Equal(again.CreatedAt))

	_, err = svc.OpenOrCreate(ctx, sid, "intruder")
	assert.ErrorIs(t, err, apierr.ErrForbidden)

	_, err = svc.OpenOrCreate(ctx, uuid.Nil, "u1")
	assert.ErrorIs(t, err, apierr.ErrInvalidArgument)
}
