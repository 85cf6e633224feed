// Package ledger implements the Audit Ledger of spec.md §4.9: an
// append-only, hash-chained JSONL file. Every entry's current_record_hash
// covers the previous entry's hash, so a validator can walk the file and
// detect any retroactive edit. The append/lock discipline (open with
// O_APPEND, flock exclusive, write, unlock) is carried over verbatim from
// the teacher's ratchet chain, which used the same pattern to make
// concurrent chain writes from multiple CLI invocations safe; what's new
// here is the cryptographic hash link between consecutive entries, which
// the teacher's status-tracking chain never needed.
package ledger

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/boshu2/lyra/internal/gateway"
	"github.com/boshu2/lyra/internal/types"
)

// GenesisHash is the previous_record_hash of the first entry in a chain:
// 64 hex zero characters, per spec.md §4.9.
var GenesisHash = strings.Repeat("0", 64)

// ErrChainBroken is returned by Validate when a hash link does not match.
var ErrChainBroken = errors.New("audit ledger hash chain is broken")

// ErrNoPath is returned when an operation needs a file path that was never set.
var ErrNoPath = errors.New("ledger has no backing file path")

// Entry is one append-only audit record.
type Entry struct {
	Timestamp          time.Time       `json:"created_at"`
	PlanID             string          `json:"plan_id"`
	TraceID            string          `json:"trace_id"`
	Intent             string          `json:"intent"`
	RiskLevel          types.RiskLevel `json:"risk_level"`
	DeterministicHash  string          `json:"deterministic_hash"`
	SimulationResult   string          `json:"simulation_result"`
	Outcome            string          `json:"final_state"`
	Reason             string          `json:"reason,omitempty"`
	TrustScore         float64         `json:"trust_score"`
	PreviousRecordHash string          `json:"previous_record_hash"`
	CurrentRecordHash  string          `json:"current_record_hash"`
}

// canonical returns the byte sequence hashed to produce CurrentRecordHash:
// every field except CurrentRecordHash itself, so the hash is self-referential
// only through PreviousRecordHash.
func (e Entry) canonical() ([]byte, error) {
	cp := e
	cp.CurrentRecordHash = ""
	return json.Marshal(cp)
}

// Chain is an append-only, hash-linked audit ledger backed by a JSONL file.
type Chain struct {
	path    string
	entries []Entry
}

// Open loads an existing ledger file, or starts a fresh empty chain if path
// does not yet exist.
func Open(path string) (*Chain, error) {
	c := &Chain{path: path}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("parse ledger entry: %w", err)
		}
		c.entries = append(c.entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return c, nil
}

// lastHash returns the current_record_hash of the most recent entry, or the
// genesis hash if the chain is empty.
func (c *Chain) lastHash() string {
	if len(c.entries) == 0 {
		return GenesisHash
	}
	return c.entries[len(c.entries)-1].CurrentRecordHash
}

// Append adds a new record to the ledger: one audit entry per gateway
// attempt, as spec.md §4.9 requires. The entry's hash is computed and the
// line is appended to the backing file under an exclusive flock.
func (c *Chain) Append(record gateway.AuditRecord) (Entry, error) {
	if c.path == "" {
		return Entry{}, ErrNoPath
	}

	entry := Entry{
		Timestamp:          time.Now(),
		PlanID:             record.PlanID,
		TraceID:            record.TraceID,
		Intent:             record.Intent,
		RiskLevel:          record.RiskLevel,
		DeterministicHash:  record.DeterministicHash,
		SimulationResult:   record.SimulationResult,
		Outcome:            record.Outcome,
		Reason:             record.Reason,
		TrustScore:         record.TrustScore,
		PreviousRecordHash: c.lastHash(),
	}
	canonical, err := entry.canonical()
	if err != nil {
		return Entry{}, fmt.Errorf("canonicalize entry: %w", err)
	}
	sum := sha256.Sum256(canonical)
	entry.CurrentRecordHash = hex.EncodeToString(sum[:])

	if err := c.withLockedFile(func(f *os.File) error {
		line, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write entry: %w", err)
		}
		return nil
	}); err != nil {
		return Entry{}, err
	}

	c.entries = append(c.entries, entry)
	return entry, nil
}

// withLockedFile opens the ledger file for append, acquires an exclusive
// flock, runs fn, then releases the lock and closes the file.
func (c *Chain) withLockedFile(fn func(*os.File) error) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open ledger file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock ledger file: %w", err)
	}
	defer func() { _ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN) }()

	return fn(f)
}

// Entries returns a defensive copy of all loaded entries in append order.
func (c *Chain) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Validate walks the chain and verifies each entry's previous_record_hash
// matches the prior entry's current_record_hash, and that each
// current_record_hash is correctly derived from its own content. Returns
// the index of the first broken link wrapped in ErrChainBroken, or nil if
// the whole chain verifies.
func (c *Chain) Validate() error {
	expected := GenesisHash
	for i, e := range c.entries {
		if e.PreviousRecordHash != expected {
			return fmt.Errorf("%w: entry %d previous_record_hash mismatch", ErrChainBroken, i)
		}
		canonical, err := e.canonical()
		if err != nil {
			return fmt.Errorf("canonicalize entry %d: %w", i, err)
		}
		sum := sha256.Sum256(canonical)
		if hex.EncodeToString(sum[:]) != e.CurrentRecordHash {
			return fmt.Errorf("%w: entry %d current_record_hash mismatch", ErrChainBroken, i)
		}
		expected = e.CurrentRecordHash
	}
	return nil
}

// AppendAdapter adapts *Chain to gateway.AuditSink.
type AppendAdapter struct {
	Chain *Chain
}

// Append implements gateway.AuditSink.
func (a AppendAdapter) Append(_ context.Context, record gateway.AuditRecord) error {
	_, err := a.Chain.Append(record)
	return err
}
