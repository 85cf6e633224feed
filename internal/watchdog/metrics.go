package watchdog

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector tracks internal decision metrics in memory, using running
// averages for latency so memory stays O(1) regardless of session length.
// Grounded directly on original_source's MetricsCollector: the same
// counter set, the same decision-source breakdown, and the same
// new_avg = (old_avg*count + sample) / (count + 1) running-average
// formula, re-expressed with Go mutexes instead of Python's single-threaded
// assumption and backed additionally by Prometheus CounterVecs so the
// counters are scrapeable, not just CLI-reportable.
type Collector struct {
	mu sync.Mutex

	counters        map[string]int
	decisionSources map[string]int
	latencies       map[string]*runningAverage

	promCounters        *prometheus.CounterVec
	promDecisionSources *prometheus.CounterVec
}

type runningAverage struct {
	avg   float64
	count float64
}

func (r *runningAverage) record(sample float64) {
	r.avg = (r.avg*r.count + sample) / (r.count + 1)
	r.count++
}

// knownCounters mirrors original_source's fixed counter set.
var knownCounters = []string{
	"total_commands",
	"semantic_calls",
	"refinement_calls",
	"clarification_triggers",
	"clarification_failures",
	"multi_intent_chains",
	"memory_resolutions",
	"normalization_applied",
	"conversation_adjustments",
	"tone_detected",
}

// NewCollector creates a fresh in-memory metrics collector and registers
// its Prometheus vectors with reg. A nil registry skips Prometheus
// registration (used in tests, where a global registry would collide
// across test cases).
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		counters:        make(map[string]int, len(knownCounters)),
		decisionSources: make(map[string]int),
		latencies: map[string]*runningAverage{
			"semantic": {},
			"total":    {},
		},
		promCounters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lyra",
			Name:      "internal_counter_total",
			Help:      "Internal decision-pipeline counters.",
		}, []string{"counter"}),
		promDecisionSources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lyra",
			Name:      "decision_source_total",
			Help:      "Commands classified per cascade source.",
		}, []string{"source"}),
	}
	for _, name := range knownCounters {
		c.counters[name] = 0
	}
	if reg != nil {
		reg.MustRegister(c.promCounters, c.promDecisionSources)
	}
	return c
}

// Increment bumps a named counter. Unknown counter names are ignored, as
// in original_source.
func (c *Collector) Increment(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.counters[name]; ok {
		c.counters[name]++
		c.promCounters.WithLabelValues(name).Inc()
	}
}

// IncrementDecisionSource bumps the count for one classification cascade
// source (semantic, regex, refinement, clarification, embedding, unknown).
func (c *Collector) IncrementDecisionSource(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(source)
	if key == "" {
		key = "unknown"
	}
	c.decisionSources[key]++
	c.promDecisionSources.WithLabelValues(key).Inc()
}

// RecordLatency updates a named latency tracker's running average.
func (c *Collector) RecordLatency(metric string, durationMS float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tracker, ok := c.latencies[metric]
	if !ok {
		return
	}
	tracker.record(durationMS)
}

// Report is a point-in-time dump of all collected metrics.
type Report struct {
	Counters        map[string]int
	DecisionSources map[string]int
	AvgSemanticMS   float64
	AvgTotalMS      float64
}

// Snapshot returns a defensive copy of the collector's current state.
func (c *Collector) Snapshot() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	counters := make(map[string]int, len(c.counters))
	for k, v := range c.counters {
		counters[k] = v
	}
	sources := make(map[string]int, len(c.decisionSources))
	for k, v := range c.decisionSources {
		sources[k] = v
	}
	return Report{
		Counters:        counters,
		DecisionSources: sources,
		AvgSemanticMS:   c.latencies["semantic"].avg,
		AvgTotalMS:      c.latencies["total"].avg,
	}
}

// FormatReport renders the metrics the way original_source's get_report did,
// for the `lyra metrics` CLI command.
func FormatReport(r Report) string {
	var b strings.Builder
	b.WriteString("Lyra Internal Metrics:\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	for _, name := range knownCounters {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(strconv.Itoa(r.Counters[name]))
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("-", 30) + "\n")

	keys := make([]string, 0, len(r.DecisionSources))
	for k := range r.DecisionSources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("Decision Sources:\n")
	for _, k := range keys {
		b.WriteString("  ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strconv.Itoa(r.DecisionSources[k]))
		b.WriteString("\n")
	}
	return b.String()
}
