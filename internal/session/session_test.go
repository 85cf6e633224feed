package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boshu2/lyra/internal/types"
)

func TestRecordSuccess_PopulatesLastCreatedFile(t *testing.T) {
	m := NewMemory()
	m.RecordSuccess(types.Command{
		Intent:   "create_file",
		Entities: map[string]string{"filename": "notes.txt"},
	})
	assert.Equal(t, "create_file", m.LastSuccessfulIntent)
	assert.Equal(t, "notes.txt", m.LastCreatedFile)
}

func TestRecordSuccess_PopulatesLastOpenedApp(t *testing.T) {
	m := NewMemory()
	m.RecordSuccess(types.Command{
		Intent:   "launch_app",
		Entities: map[string]string{"app": "chrome"},
	})
	assert.Equal(t, "chrome", m.LastOpenedApp)
}

func TestRecordSuccess_TracksLastPathAcrossIntents(t *testing.T) {
	m := NewMemory()
	m.RecordSuccess(types.Command{
		Intent:   "delete_file",
		Entities: map[string]string{"path": "/tmp/a"},
	})
	assert.Equal(t, "/tmp/a", m.LastPath)
}

func TestResetOnFailure_ClearsLastSuccessfulState(t *testing.T) {
	m := NewMemory()
	m.RecordSuccess(types.Command{Intent: "create_file", Entities: map[string]string{"filename": "x"}})
	m.ResetOnFailure()
	assert.Empty(t, m.LastSuccessfulIntent)
	assert.Empty(t, m.LastParameters)
	assert.Equal(t, "x", m.LastCreatedFile, "ResetOnFailure only clears the last-successful fields, not prior memory")
}

func TestAddTurn_IncrementsTurnCount(t *testing.T) {
	m := NewMemory()
	assert.Equal(t, 0, m.TurnCount())
	m.AddTurn(types.Turn{Role: "user", Content: "hi"})
	assert.Equal(t, 1, m.TurnCount())
}

func TestAddTurn_StampsZeroTimestamp(t *testing.T) {
	m := NewMemory()
	m.AddTurn(types.Turn{Role: "user", Content: "hi"})
	assert.False(t, m.InteractionHistory[0].Timestamp.IsZero())
}

func TestObserveLanguage_PromotesAfterThreshold(t *testing.T) {
	m := NewMemory()
	for i := 0; i < languagePromotionThreshold-1; i++ {
		m.ObserveLanguage("es")
	}
	assert.Empty(t, m.PreferredLanguage)
	m.ObserveLanguage("es")
	assert.Equal(t, "es", m.PreferredLanguage)
}

func TestObserveLanguage_SwitchingResetsOtherCounters(t *testing.T) {
	m := NewMemory()
	for i := 0; i < languagePromotionThreshold-1; i++ {
		m.ObserveLanguage("es")
	}
	m.ObserveLanguage("en") // resets the "es" counter back to zero
	for i := 0; i < languagePromotionThreshold-2; i++ {
		m.ObserveLanguage("en")
	}
	assert.Empty(t, m.PreferredLanguage)
	m.ObserveLanguage("en")
	assert.Equal(t, "en", m.PreferredLanguage)
}

func TestObserveLanguage_IgnoresEmptyString(t *testing.T) {
	m := NewMemory()
	m.ObserveLanguage("")
	assert.Empty(t, m.PreferredLanguage)
}
