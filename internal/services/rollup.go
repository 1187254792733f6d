package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/neurotutor-backend/internal/data/repos"
	types "github.com/yungbote/neurotutor-backend/internal/domain"
	"github.com/yungbote/neurotutor-backend/internal/observability"
	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

// ErrNoSubmissions is returned by Recompute for a user with an empty ledger.
// Nothing is written in that case.
var ErrNoSubmissions = errors.New("no quiz submissions")

// RollupCache is the read-through cache in front of persisted rollups.
type RollupCache interface {
	Key(parts ...string) string
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	// SetNX stores v only when key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, v any) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

type MetricsAggregator interface {
	// Recompute rebuilds the user's rollup from every submission and
	// overwrites the stored row.
	Recompute(ctx context.Context, userID string) (*types.UserMetricsRollup, error)
	// Get returns the persisted rollup, or an ErrNotFound error when none exists.
	Get(ctx context.Context, userID string) (*types.UserMetricsRollup, error)
}

type metricsAggregator struct {
	db          *gorm.DB
	log         *logger.Logger
	submissions repos.QuizSubmissionRepo
	rollups     repos.UserMetricsRepo
	cache       RollupCache
	loads       singleflight.Group
}

// NewMetricsAggregator wires the aggregator. cache may be nil.
func NewMetricsAggregator(db *gorm.DB, baseLog *logger.Logger, submissionRepo repos.QuizSubmissionRepo, metricsRepo repos.UserMetricsRepo, cache RollupCache) MetricsAggregator {
	return &metricsAggregator{
		db:          db,
		log:         baseLog.With("service", "MetricsAggregator"),
		submissions: submissionRepo,
		rollups:     metricsRepo,
		cache:       cache,
	}
}

func (s *metricsAggregator) cacheKey(userID string) string {
	return s.cache.Key("rollup", userID)
}

func (s *metricsAggregator) Recompute(ctx context.Context, userID string) (*types.UserMetricsRollup, error) {
	ctx, span := observability.StartSpan(ctx, "metrics.recompute")
	defer span.End()

	if userID == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	dbc := dbctx.Context{Ctx: ctx}
	subs, err := s.submissions.ListByUser(dbc, userID)
	if err != nil {
		observability.Current().IncRecompute("error")
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	rollup, err := BuildRollup(userID, subs, time.Now().UTC())
	if errors.Is(err, ErrNoSubmissions) {
		observability.Current().IncRecompute("empty")
		return nil, err
	}
	if err != nil {
		observability.Current().IncRecompute("error")
		return nil, err
	}
	if err := s.rollups.Replace(dbc, rollup); err != nil {
		observability.Current().IncRecompute("error")
		return nil, fmt.Errorf("store rollup: %w", err)
	}
	if s.cache != nil {
		key := s.cacheKey(userID)
		if err := s.cache.Set(ctx, key, rollup); err != nil {
			s.log.Warn("rollup cache write failed, invalidating", "user_id", userID, "error", err)
			if err := s.cache.Delete(ctx, key); err != nil {
				s.log.Warn("rollup cache invalidation failed", "user_id", userID, "error", err)
			}
		}
	}
	span.SetAttributes(attribute.Int("tutor.total_quizzes", rollup.TotalQuizzes))
	observability.Current().IncRecompute("ok")
	return rollup, nil
}

func (s *metricsAggregator) Get(ctx context.Context, userID string) (*types.UserMetricsRollup, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	if s.cache != nil {
		var cached types.UserMetricsRollup
		hit, err := s.cache.Get(ctx, s.cacheKey(userID), &cached)
		if err != nil {
			s.log.Warn("rollup cache read failed", "user_id", userID, "error", err)
		}
		if hit {
			observability.Current().IncRollupCache("hit")
			return &cached, nil
		}
		observability.Current().IncRollupCache("miss")
	}

	// The load is shared by every waiter on the key.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.loads.Do(userID, func() (any, error) {
		row, err := s.rollups.GetByUser(dbctx.Context{Ctx: loadCtx}, userID)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, apierr.NotFound("metrics_not_found", "no metrics for user")
		}
		// A fill never replaces a value written by Recompute.
		if s.cache != nil {
			if _, err := s.cache.SetNX(loadCtx, s.cacheKey(userID), row); err != nil {
				s.log.Warn("rollup cache fill failed", "user_id", userID, "error", err)
			}
		}
		return row, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.UserMetricsRollup), nil
}

// BuildRollup computes a user's rollup from their submissions. Group maps
// only hold buckets that have at least one submission.
func BuildRollup(userID string, subs []*types.QuizSubmission, now time.Time) (*types.UserMetricsRollup, error) {
	type acc struct{ correct, score, count int }
	var (
		total        acc
		bySubject    = map[string]*acc{}
		byDifficulty = map[string]*acc{}
	)
	add := func(m map[string]*acc, key string, sub *types.QuizSubmission) {
		a := m[key]
		if a == nil {
			a = &acc{}
			m[key] = a
		}
		a.count++
		a.score += sub.Score
		if sub.IsCorrect {
			a.correct++
		}
	}
	for _, sub := range subs {
		if sub == nil {
			continue
		}
		total.count++
		total.score += sub.Score
		if sub.IsCorrect {
			total.correct++
		}
		add(bySubject, string(sub.Subject), sub)
		add(byDifficulty, string(sub.Difficulty), sub)
	}
	if total.count == 0 {
		return nil, ErrNoSubmissions
	}

	toStats := func(m map[string]*acc) map[string]types.GroupStats {
		out := make(map[string]types.GroupStats, len(m))
		for k, a := range m {
			out[k] = types.GroupStats{
				Accuracy:     percent(a.correct, a.count),
				AverageScore: round2(float64(a.score) / float64(a.count)),
				Count:        a.count,
			}
		}
		return out
	}
	subjects, err := json.Marshal(toStats(bySubject))
	if err != nil {
		return nil, err
	}
	difficulties, err := json.Marshal(toStats(byDifficulty))
	if err != nil {
		return nil, err
	}

	overall := percent(total.correct, total.count)
	return &types.UserMetricsRollup{
		UserID:          userID,
		OverallAccuracy: overall,
		AverageAccuracy: overall,
		AverageScore:    round2(float64(total.score) / float64(total.count)),
		TotalQuizzes:    total.count,
		SubjectStats:    datatypes.JSON(subjects),
		DifficultyStats: datatypes.JSON(difficulties),
		ComputedAt:      now,
	}, nil
}

func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return round2(float64(n) / float64(d) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
