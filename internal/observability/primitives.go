package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Minimal Prometheus text-format primitives. Series are written in sorted
// label order so scrapes are stable.

type family struct {
	name       string
	help       string
	kind       string
	labelNames []string
}

func (f family) writeHeader(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", f.name, f.help); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "# TYPE %s %s\n", f.name, f.kind)
	return err
}

// valueVec backs both labelled counters and labelled gauges.
type valueVec struct {
	family
	mu     sync.RWMutex
	values map[string]float64
}

func newValueVec(name, help, kind string, labels []string) *valueVec {
	return &valueVec{family: family{name: name, help: help, kind: kind, labelNames: labels}, values: map[string]float64{}}
}

func (v *valueVec) add(delta float64, set bool, labels []string) {
	if v == nil {
		return
	}
	key := labelString(v.labelNames, labels)
	v.mu.Lock()
	if set {
		v.values[key] = delta
	} else {
		v.values[key] += delta
	}
	v.mu.Unlock()
}

func (v *valueVec) get(labels []string) float64 {
	if v == nil {
		return 0
	}
	key := labelString(v.labelNames, labels)
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

func (v *valueVec) WritePrometheus(w io.Writer) error {
	if v == nil {
		return nil
	}
	if err := v.writeHeader(w); err != nil {
		return err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, k := range sortedKeys(v.values) {
		if _, err := fmt.Fprintf(w, "%s%s %g\n", v.name, k, v.values[k]); err != nil {
			return err
		}
	}
	return nil
}

type CounterVec struct{ *valueVec }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{newValueVec(name, help, "counter", labels)}
}

func (c *CounterVec) Inc(values ...string)            { c.add(1, false, values) }
func (c *CounterVec) Add(v float64, values ...string) { c.add(v, false, values) }
func (c *CounterVec) Value(values ...string) float64  { return c.get(values) }

type GaugeVec struct{ *valueVec }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{newValueVec(name, help, "gauge", labels)}
}

func (g *GaugeVec) Set(v float64, values ...string) { g.add(v, true, values) }
func (g *GaugeVec) Add(v float64, values ...string) { g.add(v, false, values) }
func (g *GaugeVec) Value(values ...string) float64  { return g.get(values) }

type Gauge struct{ *valueVec }

func NewGauge(name, help string) *Gauge {
	return &Gauge{newValueVec(name, help, "gauge", nil)}
}

func (g *Gauge) Set(v float64)  { g.add(v, true, nil) }
func (g *Gauge) Inc()           { g.add(1, false, nil) }
func (g *Gauge) Dec()           { g.add(-1, false, nil) }
func (g *Gauge) Value() float64 { return g.get(nil) }

type HistogramVec struct {
	family
	buckets []float64
	mu      sync.RWMutex
	values  map[string]*histogram
}

type histogram struct {
	counts []uint64
	sum    float64
	total  uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{
		family:  family{name: name, help: help, kind: "histogram", labelNames: labels},
		buckets: buckets,
		values:  map[string]*histogram{},
	}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	key := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.values[key]
	if !ok {
		hist = &histogram{counts: make([]uint64, len(h.buckets))}
		h.values[key] = hist
	}
	hist.sum += v
	hist.total++
	for i, b := range h.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
}

func (h *HistogramVec) Count(values ...string) uint64 {
	if h == nil {
		return 0
	}
	key := labelString(h.labelNames, values)
	h.mu.RLock()
	defer h.mu.RUnlock()
	if hist, ok := h.values[key]; ok {
		return hist.total
	}
	return 0
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if err := h.writeHeader(w); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	keys := make([]string, 0, len(h.values))
	for k := range h.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		hist := h.values[k]
		for i, b := range h.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, fmt.Sprintf("%g", b)), hist.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, "+Inf"), hist.total); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %g\n", h.name, k, hist.sum); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_count%s %d\n", h.name, k, hist.total); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, 0, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) && values[i] != "" {
			val = values[i]
		}
		parts = append(parts, name+"=\""+escapeLabel(val)+"\"")
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func escapeLabel(v string) string {
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	return strings.ReplaceAll(v, "\n", "\\n")
}

func withLe(labels string, le string) string {
	le = escapeLabel(le)
	if labels == "" || labels == "{}" {
		return "{le=\"" + le + "\"}"
	}
	return strings.TrimSuffix(labels, "}") + ",le=\"" + le + "\"}"
}
