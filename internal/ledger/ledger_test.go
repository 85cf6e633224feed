package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boshu2/lyra/internal/gateway"
	"github.com/boshu2/lyra/internal/types"
)

func TestChain_FirstEntryChainsFromGenesis(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "ledger.jsonl"))
	require.NoError(t, err)

	entry, err := c.Append(gateway.AuditRecord{PlanID: "p1", Intent: "open_app", RiskLevel: types.RiskLow, Outcome: "allowed"})
	require.NoError(t, err)
	assert.Equal(t, GenesisHash, entry.PreviousRecordHash)
	assert.NotEmpty(t, entry.CurrentRecordHash)
}

func TestChain_SecondEntryChainsFromFirst(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "ledger.jsonl"))
	require.NoError(t, err)

	first, err := c.Append(gateway.AuditRecord{PlanID: "p1", Outcome: "allowed"})
	require.NoError(t, err)
	second, err := c.Append(gateway.AuditRecord{PlanID: "p2", Outcome: "denied"})
	require.NoError(t, err)

	assert.Equal(t, first.CurrentRecordHash, second.PreviousRecordHash)
}

func TestChain_Validate_PassesForUntamperedChain(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "ledger.jsonl"))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := c.Append(gateway.AuditRecord{PlanID: "p", Outcome: "allowed"})
		require.NoError(t, err)
	}
	assert.NoError(t, c.Validate())
}

func TestChain_Validate_DetectsTamperedEntry(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(filepath.Join(dir, "ledger.jsonl"))
	require.NoError(t, err)
	_, err = c.Append(gateway.AuditRecord{PlanID: "p1", Outcome: "allowed"})
	require.NoError(t, err)
	_, err = c.Append(gateway.AuditRecord{PlanID: "p2", Outcome: "allowed"})
	require.NoError(t, err)

	c.entries[0].Outcome = "denied"

	assert.ErrorIs(t, c.Validate(), ErrChainBroken)
}

func TestOpen_ReloadsPersistedEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.jsonl")
	c, err := Open(path)
	require.NoError(t, err)
	_, err = c.Append(gateway.AuditRecord{PlanID: "p1", Outcome: "allowed"})
	require.NoError(t, err)

	reloaded, err := Open(path)
	require.NoError(t, err)
	assert.Len(t, reloaded.Entries(), 1)
	assert.NoError(t, reloaded.Validate())
}
