package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/neurotutor-backend/internal/platform/envutil"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	llmRequests *CounterVec
	llmLatency  *HistogramVec
	llmChars    *CounterVec

	pipelineTurns   *CounterVec
	pipelineLatency *HistogramVec
	wsConnections   *Gauge
	wsFrames        *CounterVec
	quizExtracted   *CounterVec

	submissions *CounterVec
	recomputes  *CounterVec
	rollupCache *CounterVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	return envutil.Duration("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("Metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	latency := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	return &Metrics{
		apiRequests: NewCounterVec("tutor_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("tutor_api_request_duration_seconds", "API request latency in seconds.", []string{"method", "route", "status"}, latency),
		apiInflight: NewGauge("tutor_api_inflight_requests", "In-flight API requests."),

		llmRequests: NewCounterVec("tutor_llm_requests_total", "Generation calls by provider/model/status.", []string{"provider", "model", "status"}),
		llmLatency:  NewHistogramVec("tutor_llm_request_duration_seconds", "Generation call latency in seconds.", []string{"provider", "model", "status"}, []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60, 120}),
		llmChars:    NewCounterVec("tutor_llm_output_chars_total", "Characters produced by generation calls.", []string{"provider", "model"}),

		pipelineTurns:   NewCounterVec("tutor_pipeline_turns_total", "Tutor turns by routed intent and outcome.", []string{"intent", "status"}),
		pipelineLatency: NewHistogramVec("tutor_pipeline_turn_duration_seconds", "Tutor turn latency in seconds.", []string{"intent"}, []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120}),
		wsConnections:   NewGauge("tutor_ws_connections", "Open tutor WebSocket connections."),
		wsFrames:        NewCounterVec("tutor_ws_frames_total", "Frames sent to clients by from_agent tag.", []string{"from_agent"}),
		quizExtracted:   NewCounterVec("tutor_quiz_extracted_total", "Quiz extractions by completeness.", []string{"complete"}),

		submissions: NewCounterVec("tutor_quiz_submissions_total", "Ledger writes by outcome.", []string{"result"}),
		recomputes:  NewCounterVec("tutor_rollup_recomputes_total", "Metrics rollup recomputes by outcome.", []string{"status"}),
		rollupCache: NewCounterVec("tutor_rollup_cache_total", "Rollup cache lookups by result.", []string{"result"}),

		pgStats:   NewGaugeVec("tutor_postgres_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:   NewGauge("tutor_redis_up", "1 if the last Redis ping succeeded."),
		redisPing: NewGauge("tutor_redis_ping_seconds", "Latency of the last Redis ping."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, fam := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency, m.llmChars,
		m.pipelineTurns, m.pipelineLatency, m.wsConnections, m.wsFrames, m.quizExtracted,
		m.submissions, m.recomputes, m.rollupCache,
		m.pgStats, m.redisUp, m.redisPing,
	} {
		if err := fam.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method, route, status = orUnknown(strings.ToUpper(method)), orUnknown(route), orUnknown(status)
	m.apiRequests.Inc(method, route, status)
	if dur > 0 {
		m.apiLatency.Observe(dur.Seconds(), method, route, status)
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(provider, model, status string, dur time.Duration, outputChars int) {
	if m == nil {
		return
	}
	provider, model, status = orUnknown(provider), orUnknown(model), orUnknown(status)
	m.llmRequests.Inc(provider, model, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), provider, model, status)
	}
	if outputChars > 0 {
		m.llmChars.Add(float64(outputChars), provider, model)
	}
}

func (m *Metrics) ObserveTurn(intent, status string, dur time.Duration) {
	if m == nil {
		return
	}
	intent = orUnknown(intent)
	m.pipelineTurns.Inc(intent, orUnknown(status))
	m.pipelineLatency.Observe(dur.Seconds(), intent)
}

func (m *Metrics) WSConnected() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

func (m *Metrics) WSDisconnected() {
	if m == nil {
		return
	}
	m.wsConnections.Dec()
}

func (m *Metrics) IncFrame(fromAgent string) {
	if m == nil {
		return
	}
	m.wsFrames.Inc(orUnknown(fromAgent))
}

func (m *Metrics) IncQuizExtracted(complete bool) {
	if m == nil {
		return
	}
	if complete {
		m.quizExtracted.Inc("true")
		return
	}
	m.quizExtracted.Inc("false")
}

func (m *Metrics) IncSubmission(created bool) {
	if m == nil {
		return
	}
	if created {
		m.submissions.Inc("created")
		return
	}
	m.submissions.Inc("updated")
}

func (m *Metrics) IncRecompute(status string) {
	if m == nil {
		return
	}
	m.recomputes.Inc(orUnknown(status))
}

func (m *Metrics) IncRollupCache(result string) {
	if m == nil {
		return
	}
	m.rollupCache.Inc(orUnknown(result))
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

// StartRedisCollector pings rdb on the scrape interval. The client is owned
// by the caller and is not closed here.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
