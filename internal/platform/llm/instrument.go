package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/neurotutor-backend/internal/observability"
	"github.com/yungbote/neurotutor-backend/internal/platform/logger"
)

type instrumented struct {
	inner Generator
	log   *logger.Logger
}

// Instrument wraps g with a span, request metrics and a debug log per call.
func Instrument(g Generator, log *logger.Logger) Generator {
	if g == nil {
		return nil
	}
	if log == nil {
		log = logger.Nop()
	}
	return &instrumented{inner: g, log: log.With("service", "Generator")}
}

func (i *instrumented) Provider() string { return i.inner.Provider() }
func (i *instrumented) Model() string    { return i.inner.Model() }

func (i *instrumented) Stream(ctx context.Context, req Request, onDelta DeltaFunc) (string, error) {
	ctx, span := observability.StartSpan(ctx, "llm.stream",
		attribute.String("llm.provider", i.inner.Provider()),
		attribute.String("llm.model", i.inner.Model()),
		attribute.Int("llm.messages", len(req.Messages)),
	)
	defer span.End()

	start := time.Now()
	var first time.Duration
	wrapped := onDelta
	if onDelta != nil {
		wrapped = func(d string) error {
			if first == 0 {
				first = time.Since(start)
			}
			return onDelta(d)
		}
	}
	out, err := i.inner.Stream(ctx, req, wrapped)
	dur := time.Since(start)
	status := statusLabel(err)

	observability.Current().ObserveLLMRequest(i.inner.Provider(), i.inner.Model(), status, dur, len(out))
	span.SetAttributes(attribute.String("llm.status", status), attribute.Int("llm.output_chars", len(out)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		i.log.Warn("generation failed",
			"provider", i.inner.Provider(), "model", i.inner.Model(), "status", status,
			"duration_ms", dur.Milliseconds(), "error", err)
		return "", err
	}
	i.log.Debug("generation done",
		"provider", i.inner.Provider(), "model", i.inner.Model(),
		"duration_ms", dur.Milliseconds(), "first_delta_ms", first.Milliseconds(), "chars", len(out))
	return out, nil
}
