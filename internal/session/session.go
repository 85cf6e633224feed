// Package session holds volatile, per-session state: last successful
// action, turn history, and preferred-language tracking. Nothing here is
// persisted beyond the process lifetime; the audit ledger is the only
// durable record a governed execution leaves behind.
package session

import (
	"time"

	"github.com/boshu2/lyra/internal/types"
)

// languagePromotionThreshold is the number of consecutive same-language
// detections required before it becomes preferred.
const languagePromotionThreshold = 5

// Memory is the per-session volatile state described in spec.md §3.
type Memory struct {
	LastCreatedFile     string
	LastOpenedApp       string
	LastPath            string
	LastSuccessfulIntent string
	LastParameters      map[string]string

	InteractionHistory []types.Turn

	PreferredLanguage    string
	consecutiveLangHits  map[string]int
}

// NewMemory constructs an empty session memory.
func NewMemory() *Memory {
	return &Memory{
		LastParameters:      map[string]string{},
		consecutiveLangHits: map[string]int{},
	}
}

// RecordSuccess populates memory fields from a verified execution success.
// Per spec.md §3, session memory is populated only on verified success.
func (m *Memory) RecordSuccess(cmd types.Command) {
	m.LastSuccessfulIntent = cmd.Intent
	m.LastParameters = cmd.Clone().Entities

	switch cmd.Intent {
	case "create_file":
		if f, ok := cmd.Entities["filename"]; ok {
			m.LastCreatedFile = f
		}
	case "launch_app":
		if a, ok := cmd.Entities["app"]; ok {
			m.LastOpenedApp = a
		}
	}
	if p, ok := cmd.Entities["path"]; ok {
		m.LastPath = p
	}
}

// ResetOnFailure clears the last-successful fields. Per spec.md §3, session
// memory is cleared on failure or explicit reset.
func (m *Memory) ResetOnFailure() {
	m.LastSuccessfulIntent = ""
	m.LastParameters = map[string]string{}
}

// AddTurn appends one turn to the interaction history.
func (m *Memory) AddTurn(turn types.Turn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	m.InteractionHistory = append(m.InteractionHistory, turn)
}

// TurnCount returns the number of recorded turns.
func (m *Memory) TurnCount() int {
	return len(m.InteractionHistory)
}

// ObserveLanguage records one detection of lang and promotes it to
// PreferredLanguage once it has been seen languagePromotionThreshold times
// in a row. Any different detection resets that language's counter.
func (m *Memory) ObserveLanguage(lang string) {
	if lang == "" {
		return
	}
	for other := range m.consecutiveLangHits {
		if other != lang {
			m.consecutiveLangHits[other] = 0
		}
	}
	m.consecutiveLangHits[lang]++
	if m.consecutiveLangHits[lang] >= languagePromotionThreshold {
		m.PreferredLanguage = lang
	}
}
