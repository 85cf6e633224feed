package safety

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func examplePolicy(name string) Policy {
	return Policy{
		ToolName:                  name,
		Reversible:                true,
		RollbackStrategy:          "restore_file",
		PreStateCapture:           "capture_file_state",
		ConfirmationRequiredLevel: ConfirmationNone,
	}
}

func TestRegistry_RegisterAndLock(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(examplePolicy("create_file_tool")))

	hash, err := r.Lock()
	require.NoError(t, err)
	assert.Len(t, hash, 64)
	assert.True(t, r.Locked())
}

func TestRegistry_RegisterAfterLockFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(examplePolicy("a")))
	_, err := r.Lock()
	require.NoError(t, err)

	err = r.Register(examplePolicy("b"))
	assert.ErrorIs(t, err, ErrRegistryLocked)
}

func TestRegistry_DuplicateRegistrationFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(examplePolicy("a")))
	err := r.Register(examplePolicy("a"))
	assert.ErrorIs(t, err, ErrDuplicatePolicy)
}

func TestRegistry_UnknownToolRefused(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lock()
	require.NoError(t, err)

	_, err = r.GetPolicy("nonexistent")
	assert.ErrorIs(t, err, ErrUnknownTool)
	assert.False(t, r.HasPolicy("nonexistent"))
}

func TestRegistry_HashStableAcrossRegistrationOrder(t *testing.T) {
	r1 := NewRegistry()
	require.NoError(t, r1.Register(examplePolicy("a")))
	require.NoError(t, r1.Register(examplePolicy("b")))
	h1, err := r1.Lock()
	require.NoError(t, err)

	r2 := NewRegistry()
	require.NoError(t, r2.Register(examplePolicy("b")))
	require.NoError(t, r2.Register(examplePolicy("a")))
	h2, err := r2.Lock()
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "hash must be canonical regardless of registration order")
}

func TestRegistry_HashIdempotentOnRepeatedLock(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(examplePolicy("a")))
	h1, err := r.Lock()
	require.NoError(t, err)
	h2, err := r.Lock()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestRegistry_HashUnavailableBeforeLock(t *testing.T) {
	r := NewRegistry()
	_, err := r.GetRegistryHash()
	assert.True(t, errors.Is(err, ErrRegistryNotLocked))
}
