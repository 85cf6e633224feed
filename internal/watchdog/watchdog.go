// Package watchdog implements the Integrity Watchdog and Metrics Collector
// of spec.md §4.10. It tracks a rolling window of recent advisor responses
// to catch a malformed-output rate spike, and keeps running counters that
// roll up into a three-state health verdict the same way the teacher's
// vibecheck package classified a commit timeline as healthy, a warning, or
// critical from a set of independently-collected findings.
package watchdog

import (
	"fmt"
	"sync"
)

// Health mirrors vibecheck's three-state classification.
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthWarning  Health = "warning"
	HealthCritical Health = "critical"
)

// Severity levels for findings, matching the teacher's Finding.Severity values.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Finding is one observation surfaced by the watchdog's checks.
type Finding struct {
	Severity string
	Category string
	Message  string
}

// windowSize is the rolling malformed-output window's length, per spec.md §4.10.
const windowSize = 10

// malformedRateCritical is the fraction of the last windowSize advisor
// responses that must be malformed to escalate to critical.
const malformedRateCritical = 0.3

// malformedRateWarning is the lower threshold that escalates to warning.
const malformedRateWarning = 0.1

// Watchdog tracks running counters and a rolling window of advisor-output
// well-formedness, and derives a composite health verdict on demand.
type Watchdog struct {
	mu sync.Mutex

	totalCommands      int
	totalErrors        int
	totalRollbacks     int
	partialRollbacks   int
	killSwitchTrips    int
	recentMalformed    [windowSize]bool
	recentCount        int
	recentPos          int
}

// New creates an empty Watchdog.
func New() *Watchdog {
	return &Watchdog{}
}

// RecordCommand increments the command counter.
func (w *Watchdog) RecordCommand() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.totalCommands++
}

// RecordError increments the error counter.
func (w *Watchdog) RecordError() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.totalErrors++
}

// RecordRollback records a rollback outcome; partial indicates at least one
// undo handler failed.
func (w *Watchdog) RecordRollback(partial bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.totalRollbacks++
	if partial {
		w.partialRollbacks++
	}
}

// RecordKillSwitchTrip increments the kill-switch counter.
func (w *Watchdog) RecordKillSwitchTrip() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.killSwitchTrips++
}

// RecordAdvisorOutput records whether the most recent advisor response was
// well-formed, sliding the rolling window forward.
func (w *Watchdog) RecordAdvisorOutput(malformed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.recentMalformed[w.recentPos] = malformed
	w.recentPos = (w.recentPos + 1) % windowSize
	if w.recentCount < windowSize {
		w.recentCount++
	}
}

func (w *Watchdog) malformedRate() float64 {
	if w.recentCount == 0 {
		return 0
	}
	n := 0
	for i := 0; i < w.recentCount; i++ {
		if w.recentMalformed[i] {
			n++
		}
	}
	return float64(n) / float64(w.recentCount)
}

// Snapshot is a point-in-time view of the watchdog's counters.
type Snapshot struct {
	TotalCommands   int
	TotalErrors     int
	TotalRollbacks  int
	PartialRollbacks int
	KillSwitchTrips int
	MalformedRate   float64
}

// Snapshot returns the current counters and rolling rate.
func (w *Watchdog) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		TotalCommands:    w.totalCommands,
		TotalErrors:      w.totalErrors,
		TotalRollbacks:   w.totalRollbacks,
		PartialRollbacks: w.partialRollbacks,
		KillSwitchTrips:  w.killSwitchTrips,
		MalformedRate:    w.malformedRate(),
	}
}

// Assess derives the composite health verdict and the findings that
// justify it, the way vibecheck derived a timeline's grade from its
// collected findings.
func (w *Watchdog) Assess() (Health, []Finding) {
	snap := w.Snapshot()
	var findings []Finding

	health := HealthHealthy

	if snap.MalformedRate >= malformedRateCritical {
		health = HealthCritical
		findings = append(findings, Finding{SeverityCritical, "advisor-output",
			fmt.Sprintf("malformed advisor output rate %.0f%% over last %d responses", snap.MalformedRate*100, windowSize)})
	} else if snap.MalformedRate >= malformedRateWarning {
		if health != HealthCritical {
			health = HealthWarning
		}
		findings = append(findings, Finding{SeverityWarning, "advisor-output",
			fmt.Sprintf("malformed advisor output rate %.0f%% over last %d responses", snap.MalformedRate*100, windowSize)})
	}

	if snap.TotalRollbacks > 0 && snap.PartialRollbacks == snap.TotalRollbacks {
		health = HealthCritical
		findings = append(findings, Finding{SeverityCritical, "rollback",
			"every rollback attempted so far ended PARTIAL"})
	} else if snap.PartialRollbacks > 0 {
		if health != HealthCritical {
			health = HealthWarning
		}
		findings = append(findings, Finding{SeverityWarning, "rollback",
			fmt.Sprintf("%d of %d rollbacks ended PARTIAL", snap.PartialRollbacks, snap.TotalRollbacks)})
	}

	if snap.KillSwitchTrips > 0 {
		if health != HealthCritical {
			health = HealthWarning
		}
		findings = append(findings, Finding{SeverityWarning, "kill-switch",
			fmt.Sprintf("kill switch has tripped %d time(s) this session", snap.KillSwitchTrips)})
	}

	return health, findings
}
