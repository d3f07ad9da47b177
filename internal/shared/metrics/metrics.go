package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	generationRequestsTotal  atomic.Uint64
	generationItemsPersisted atomic.Uint64
	generationItemsSkipped   atomic.Uint64
	matchEvaluationsTotal    atomic.Uint64
	matchEvaluationFailures  atomic.Uint64
	backfillPairsTotal       atomic.Uint64
	llmRequestsTotal         atomic.Uint64
	llmFailuresTotal         atomic.Uint64
	rateLimitedTotal         atomic.Uint64

	llmLatency = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncGenerationRequests counts one generation batch.
func IncGenerationRequests() {
	generationRequestsTotal.Add(1)
}

// AddGenerationItems records the outcome split of a generation batch.
func AddGenerationItems(persisted, skipped int) {
	if persisted > 0 {
		generationItemsPersisted.Add(uint64(persisted))
	}
	if skipped > 0 {
		generationItemsSkipped.Add(uint64(skipped))
	}
}

// IncMatchEvaluations counts one stored match evaluation.
func IncMatchEvaluations() {
	matchEvaluationsTotal.Add(1)
}

// IncMatchEvaluationFailures counts one failed match evaluation.
func IncMatchEvaluationFailures() {
	matchEvaluationFailures.Add(1)
}

// AddBackfillPairs counts pairs evaluated by backfill passes.
func AddBackfillPairs(n int) {
	if n > 0 {
		backfillPairsTotal.Add(uint64(n))
	}
}

// IncLLMRequests counts one upstream completion request.
func IncLLMRequests() {
	llmRequestsTotal.Add(1)
}

// IncLLMFailures counts one failed upstream completion request.
func IncLLMFailures() {
	llmFailuresTotal.Add(1)
}

// IncRateLimited counts one request rejected by the rate limiter.
func IncRateLimited() {
	rateLimitedTotal.Add(1)
}

// ObserveLLMLatencyMs records an upstream completion latency in milliseconds.
func ObserveLLMLatencyMs(value float64) {
	if value < 0 {
		value = 0
	}
	llmLatency.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "generation_requests_total", "Total generation batches", generationRequestsTotal.Load())
	writeCounter(&buf, "generation_items_persisted_total", "Generated items persisted", generationItemsPersisted.Load())
	writeCounter(&buf, "generation_items_skipped_total", "Generated items skipped", generationItemsSkipped.Load())
	writeCounter(&buf, "match_evaluations_total", "Match evaluations stored", matchEvaluationsTotal.Load())
	writeCounter(&buf, "match_evaluation_failures_total", "Match evaluations failed", matchEvaluationFailures.Load())
	writeCounter(&buf, "backfill_pairs_total", "Pairs evaluated by backfill", backfillPairsTotal.Load())
	writeCounter(&buf, "llm_requests_total", "Upstream completion requests", llmRequestsTotal.Load())
	writeCounter(&buf, "llm_failures_total", "Upstream completion failures", llmFailuresTotal.Load())
	writeCounter(&buf, "http_rate_limited_total", "Requests rejected by the rate limiter", rateLimitedTotal.Load())
	writeHistogram(&buf, "llm_latency_ms", "Upstream completion latency in milliseconds", llmLatency.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
