package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	closed bool
}

func (f *fakeModel) Encode(ctx context.Context, text string) ([]float64, error) {
	return []float64{1, 0, 0}, nil
}

func (f *fakeModel) Close() error {
	f.closed = true
	return nil
}

func TestHandle_Encode_LoadsOnFirstUse(t *testing.T) {
	restore := availableMemory
	availableMemory = func() (uint64, error) { return 4 * 1024 * 1024 * 1024, nil }
	defer func() { availableMemory = restore }()

	loads := 0
	h := NewHandle(DefaultConfig(), func(ctx context.Context) (Model, error) {
		loads++
		return &fakeModel{}, nil
	})
	defer h.Close()

	_, err := h.Encode(context.Background(), "hello")
	require.NoError(t, err)
	_, err = h.Encode(context.Background(), "world")
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.True(t, h.Loaded())
}

func TestHandle_Encode_RefusesBelowMemoryFloor(t *testing.T) {
	restore := availableMemory
	availableMemory = func() (uint64, error) { return 1024, nil }
	defer func() { availableMemory = restore }()

	h := NewHandle(DefaultConfig(), func(ctx context.Context) (Model, error) {
		return &fakeModel{}, nil
	})
	defer h.Close()

	_, err := h.Encode(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrInsufficientMemory)
}

func TestHandle_EvictIfIdle_UnloadsAfterWindow(t *testing.T) {
	restore := availableMemory
	availableMemory = func() (uint64, error) { return 4 * 1024 * 1024 * 1024, nil }
	defer func() { availableMemory = restore }()

	model := &fakeModel{}
	h := NewHandle(Config{MinAvailableMemoryBytes: 1, IdleUnloadAfter: time.Millisecond}, func(ctx context.Context) (Model, error) {
		return model, nil
	})
	defer h.Close()

	_, err := h.Encode(context.Background(), "hello")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	h.evictIfIdle()

	assert.False(t, h.Loaded())
	assert.True(t, model.closed)
}
