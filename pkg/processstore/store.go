// Package processstore persists AgentProcess state: an append-only event
// log per process plus a serialized snapshot record that round-trips the
// blackboard, history, usage, and pending awaitable. The runtime works
// entirely in-memory (MemStore) unless a
// Postgres store is configured.
package processstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codeready-toolchain/agentcore/pkg/events"
)

// StoredObject is one serialized blackboard object (or awaitable). The
// type name keys decoding through a TypeRegistry on rehydration.
type StoredObject struct {
	TypeName string          `json:"type_name"`
	Data     json.RawMessage `json:"data"`
}

// HistoryRecord is one executed action in a persisted record.
type HistoryRecord struct {
	ActionName string    `json:"action_name"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
}

// Record is the persisted snapshot of one process.
type Record struct {
	ProcessID string            `json:"process_id"`
	AgentName string            `json:"agent_name"`
	Status    string            `json:"status"`
	Objects   []StoredObject    `json:"objects"`
	Bindings  map[string]int    `json:"bindings"` // binding name → index into Objects
	History   []HistoryRecord   `json:"history"`
	Usage     events.TokenUsage `json:"usage"`
	Cost      float64           `json:"cost"`
	Pending   *StoredObject     `json:"pending,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store is the persistence adapter. Implementations must be safe for
// concurrent use by many processes.
type Store interface {
	// Append adds one event to a process's event log.
	Append(ctx context.Context, ev events.Event) error
	// Events returns a process's event log in append order.
	Events(ctx context.Context, processID string) ([]events.Event, error)

	// SaveRecord upserts a process snapshot.
	SaveRecord(ctx context.Context, rec Record) error
	// Record returns a process snapshot, reporting whether one exists.
	Record(ctx context.Context, processID string) (Record, bool, error)
	// Records returns all process snapshots.
	Records(ctx context.Context) ([]Record, error)

	// DeleteOlderThan removes the records whose UpdatedAt predates cutoff,
	// together with those processes' event logs, returning how many records
	// were removed. An event log with no record is not removed. Used by the
	// retention service (pkg/cleanup).
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	Close() error
}
