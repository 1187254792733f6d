package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/neurotutor-backend/internal/data/repos"
	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	dels int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Key(parts ...string) string { return "test:" + strings.Join(parts, ":") }

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memCache) SetNX(ctx context.Context, key string, v any) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = raw
	return true, nil
}

func (c *memCache) cached(t *testing.T, key string) *types.UserMetricsRollup {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return nil
	}
	var out types.UserMetricsRollup
	require.NoError(t, json.Unmarshal(raw, &out))
	return &out
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels++
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func sub(subject types.Subject, d types.Difficulty, correct bool) *types.QuizSubmission {
	return &types.QuizSubmission{Subject: subject, Difficulty: d, IsCorrect: correct, Score: d.Score(correct)}
}

func TestBuildRollupExample(t *testing.T) {
	subs := []*types.QuizSubmission{
		sub("Math", types.DifficultyEasy, true),
		sub("Science", types.DifficultyMedium, true),
		sub("Science", types.DifficultyHard, false),
	}
	// scores 1 + 2 + 0 over three answers
	r, err := BuildRollup("u1", subs, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 66.67, r.OverallAccuracy)
	assert.Equal(t, r.OverallAccuracy, r.AverageAccuracy)
	assert.Equal(t, 1.0, r.AverageScore)
	assert.Equal(t, 3, r.TotalQuizzes)

	subjects := r.Subjects()
	require.Len(t, subjects, 2)
	assert.Equal(t, 50.0, subjects["Science"].Accuracy)
	assert.Equal(t, 1.0, subjects["Science"].AverageScore)
	assert.Equal(t, 2, subjects["Science"].Count)
	assert.Equal(t, 100.0, subjects["Math"].Accuracy)

	diffs := r.Difficulties()
	require.Len(t, diffs, 3)
	assert.Equal(t, 0.0, diffs["hard"].Accuracy)
	assert.Equal(t, 2.0, diffs["medium"].AverageScore)
}

func TestBuildRollupIsDeterministic(t *testing.T) {
	subs := []*types.QuizSubmission{
		sub("Physics", types.DifficultyHard, true),
		sub("Biology", types.DifficultyEasy, false),
		sub("Chemistry", types.DifficultyMedium, true),
	}
	a, err := BuildRollup("u1", subs, time.Unix(1, 0))
	require.NoError(t, err)
	b, err := BuildRollup("u1", subs, time.Unix(2, 0))
	require.NoError(t, err)
	assert.Equal(t, string(a.SubjectStats), string(b.SubjectStats))
	assert.Equal(t, string(a.DifficultyStats), string(b.DifficultyStats))
}

func TestBuildRollupEmpty(t *testing.T) {
	_, err := BuildRollup("u1", nil, time.Now())
	assert.ErrorIs(t, err, ErrNoSubmissions)
}

func TestAggregatorRecomputeAndCache(t *testing.T) {
	f := newFixture(t)
	cache := newMemCache()
	agg := NewMetricsAggregator(f.db, f.log, f.submissions, f.rollups, cache)
	ctx := context.Background()

	_, err := agg.Recompute(ctx, "u1")
	require.ErrorIs(t, err, ErrNoSubmissions)
	stored, err := f.rollups.GetByUser(asUser("u1"), "u1")
	require.NoError(t, err)
	assert.Nil(t, stored, "empty ledger must not write a rollup")

	_, err = agg.Get(ctx, "u1")
	assert.ErrorIs(t, err, apierr.ErrNotFound)

	now := time.Now().UTC()
	for i, s := range []*types.QuizSubmission{
		sub("Math", types.DifficultyEasy, true),
		sub("Science", types.DifficultyMedium, false),
	} {
		s.UserID = "u1"
		s.QuizID = uuidFor(i)
		s.SelectedOption = "A"
		s.RespondedAt = now
		_, _, err := f.submissions.Upsert(asUser("u1"), s)
		require.NoError(t, err)
	}

	r, err := agg.Recompute(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, r.OverallAccuracy)

	got, err := agg.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalQuizzes)
	assert.Len(t, cache.data, 1, "rollup should be cached after a read")

	again, err := agg.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, got.OverallAccuracy, again.OverallAccuracy)

	_, _, err = f.submissions.Upsert(asUser("u1"), &types.QuizSubmission{
		UserID: "u1", QuizID: uuidFor(1), SelectedOption: "B", Subject: "Science",
		Difficulty: types.DifficultyMedium, IsCorrect: true, Score: 2, RespondedAt: now,
	})
	require.NoError(t, err)
	_, err = agg.Recompute(ctx, "u1")
	require.NoError(t, err)
	fresh := cache.cached(t, cache.Key("rollup", "u1"))
	require.NotNil(t, fresh, "recompute should write the fresh rollup to the cache")
	assert.Equal(t, 100.0, fresh.OverallAccuracy)
}

// pausedRollups blocks the first GetByUser after it has read the row.
type pausedRollups struct {
	repos.UserMetricsRepo
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (p *pausedRollups) GetByUser(dbc dbctx.Context, userID string) (*types.UserMetricsRollup, error) {
	row, err := p.UserMetricsRepo.GetByUser(dbc, userID)
	p.once.Do(func() { close(p.read) })
	<-p.release
	return row, err
}

func TestAggregatorReadDoesNotOutliveRecompute(t *testing.T) {
	f := newFixture(t)
	cache := newMemCache()
	rollups := &pausedRollups{UserMetricsRepo: f.rollups, read: make(chan struct{}), release: make(chan struct{})}
	agg := NewMetricsAggregator(f.db, f.log, f.submissions, rollups, cache)
	ctx := context.Background()
	key := cache.Key("rollup", "u1")
	now := time.Now().UTC()

	upsert := func(i int, correct bool) {
		s := sub("Math", types.DifficultyEasy, correct)
		s.UserID, s.QuizID, s.SelectedOption, s.RespondedAt = "u1", uuidFor(i), "A", now
		_, _, err := f.submissions.Upsert(asUser("u1"), s)
		require.NoError(t, err)
	}
	upsert(0, false)
	_, err := agg.Recompute(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, cache.Delete(ctx, key))

	type result struct {
		r   *types.UserMetricsRollup
		err error
	}
	done := make(chan result, 1)
	go func() {
		r, err := agg.Get(ctx, "u1")
		done <- result{r, err}
	}()
	<-rollups.read

	upsert(1, true)
	fresh, err := agg.Recompute(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 50.0, fresh.OverallAccuracy)

	close(rollups.release)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, 0.0, res.r.OverallAccuracy, "the in-flight read returns what it loaded")

	cached := cache.cached(t, key)
	require.NotNil(t, cached)
	assert.Equal(t, 50.0, cached.OverallAccuracy, "a stale fill must not replace the recomputed rollup")

	got, err := agg.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.OverallAccuracy)
}

func TestAggregatorGetSurvivesCancelledCaller(t *testing.T) {
	f := newFixture(t)
	agg := NewMetricsAggregator(f.db, f.log, f.submissions, f.rollups, nil)
	s := sub("Math", types.DifficultyHard, true)
	s.UserID, s.QuizID, s.SelectedOption, s.RespondedAt = "u1", uuidFor(0), "A", time.Now().UTC()
	_, _, err := f.submissions.Upsert(asUser("u1"), s)
	require.NoError(t, err)
	_, err = agg.Recompute(context.Background(), "u1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := agg.Get(ctx, "u1")
	require.NoError(t, err, "a shared load must not inherit one caller's cancellation")
	assert.Equal(t, 100.0, got.OverallAccuracy)
}
