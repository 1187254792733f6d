package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/neurotutor-backend/internal/data/repos/testutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
	"github.com/yungbote/neurotutor-backend/internal/platform/llm"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("RETRIEVAL_TOP_K", "")
	cfg := LoadConfig()
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 3, cfg.RetrievalTopK)
	assert.InDelta(t, 0.7, cfg.RetrievalThreshold, 1e-9)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
}

func TestWireServicesWithoutOptionalClients(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)

	svc, err := wireServices(db, log, LoadConfig(), Clients{Generator: llm.NewMockGenerator()}, wireRepos(db, log))
	require.NoError(t, err)
	require.NotNil(t, svc.Pipeline)

	// No Redis: the aggregator must run uncached rather than call a nil cache.
	_, err = svc.Metrics.Get(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrNotFound), "got %v", err)
}

func TestWireServicesRequiresGenerator(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	_, err := wireServices(db, log, LoadConfig(), Clients{}, wireRepos(db, log))
	require.Error(t, err)
}
