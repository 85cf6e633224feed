// Package embedding provides the lazy-load/idle-unload handle for Stage
// D's embedding model (spec.md §4.3, §5). The model itself is expensive to
// keep resident: it is loaded on first use, guarded against loading at all
// when the host is low on memory, and scheduled to unload again after a
// configurable idle window via a cron-style ticker, mirroring the worker
// pool's resource-conscious lifecycle but specialized to a single
// singleton resource instead of a fan-out of homogeneous tasks.
package embedding

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v3/mem"
)

// ErrInsufficientMemory is returned when Load is attempted below the
// configured available-memory floor.
var ErrInsufficientMemory = errors.New("available system memory below embedding load floor")

// Model is the minimal contract the handle manages the lifecycle of. A
// concrete implementation (e.g. an ONNX or sentence-transformers binding)
// is supplied by the embedding the handle wraps; lyra's core ships no
// concrete model.
type Model interface {
	Encode(ctx context.Context, text string) ([]float64, error)
	Close() error
}

// Loader constructs a fresh Model instance on demand.
type Loader func(ctx context.Context) (Model, error)

// Config governs the handle's memory floor and idle-unload schedule.
type Config struct {
	// MinAvailableMemoryBytes is the floor below which Load refuses to run.
	MinAvailableMemoryBytes uint64
	// IdleUnloadAfter is how long the model may sit unused before the
	// idle-unload ticker evicts it.
	IdleUnloadAfter time.Duration
}

// DefaultConfig returns conservative defaults: a 512MB floor and a
// 10-minute idle window.
func DefaultConfig() Config {
	return Config{MinAvailableMemoryBytes: 512 * 1024 * 1024, IdleUnloadAfter: 10 * time.Minute}
}

// availableMemory is overridable in tests to avoid depending on the real
// host's memory state.
var availableMemory = func() (uint64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return v.Available, nil
}

// Handle lazily loads a Model, guards loads against low memory, and
// schedules an idle unload.
type Handle struct {
	mu       sync.Mutex
	cfg      Config
	loader   Loader
	model    Model
	lastUsed time.Time

	cronRunner *cron.Cron
	entryID    cron.EntryID
}

// NewHandle constructs a Handle. The idle-unload ticker is scheduled
// immediately and runs for the Handle's lifetime; call Close to stop it.
func NewHandle(cfg Config, loader Loader) *Handle {
	h := &Handle{cfg: cfg, loader: loader, cronRunner: cron.New()}
	spec := "@every 1m"
	id, err := h.cronRunner.AddFunc(spec, h.evictIfIdle)
	if err == nil {
		h.entryID = id
	}
	h.cronRunner.Start()
	return h
}

// Encode loads the model if necessary (subject to the RAM guard) and
// encodes text, updating the idle-unload clock on every call.
func (h *Handle) Encode(ctx context.Context, text string) ([]float64, error) {
	h.mu.Lock()
	if h.model == nil {
		avail, err := availableMemory()
		if err != nil {
			h.mu.Unlock()
			return nil, err
		}
		if avail < h.cfg.MinAvailableMemoryBytes {
			h.mu.Unlock()
			return nil, ErrInsufficientMemory
		}
		model, err := h.loader(ctx)
		if err != nil {
			h.mu.Unlock()
			return nil, err
		}
		h.model = model
	}
	model := h.model
	h.lastUsed = time.Now()
	h.mu.Unlock()

	return model.Encode(ctx, text)
}

// evictIfIdle runs on the cron ticker and unloads the model if it has sat
// unused longer than IdleUnloadAfter.
func (h *Handle) evictIfIdle() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model == nil {
		return
	}
	if time.Since(h.lastUsed) < h.cfg.IdleUnloadAfter {
		return
	}
	_ = h.model.Close()
	h.model = nil
}

// Loaded reports whether the model is currently resident, for diagnostics.
func (h *Handle) Loaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.model != nil
}

// Close stops the idle-unload ticker and releases the model if resident.
func (h *Handle) Close() error {
	h.cronRunner.Stop()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model == nil {
		return nil
	}
	err := h.model.Close()
	h.model = nil
	return err
}
