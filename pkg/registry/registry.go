// Package registry records trained agents so they can be listed, inspected
// and restored by name.
//
// A Record carries the agent snapshot, the evaluation metrics and the
// training report of one run. Records are keyed by agent name; putting a
// record for an existing name replaces it. Values are encoded with msgpack.
//
// Three stores are provided: Memory for tests, Badger for an embedded
// on-disk key-value store, and SQLite for a single-file database. Open
// selects one from a URI.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/agentkit/pkg/agent"
)

// ErrNotFound is returned when no record exists for a name.
var ErrNotFound = errors.New("registry: not found")

// Record is one trained agent.
type Record struct {
	ID        string         `msgpack:"id" json:"id" yaml:"id"`
	Name      string         `msgpack:"name" json:"name" yaml:"name"`
	Version   string         `msgpack:"version" json:"version" yaml:"version"`
	Kind      agent.Kind     `msgpack:"kind" json:"kind" yaml:"kind"`
	Snapshot  []byte         `msgpack:"snapshot" json:"-" yaml:"-"`
	Metrics   *agent.Metrics `msgpack:"metrics,omitempty" json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Report    string         `msgpack:"report,omitempty" json:"report,omitempty" yaml:"report,omitempty"`
	Location  string         `msgpack:"location,omitempty" json:"location,omitempty" yaml:"location,omitempty"`
	CreatedAt time.Time      `msgpack:"created_at" json:"created_at" yaml:"created_at"`
}

// NewRecord snapshots a and wraps it in a record with a fresh ID. metrics
// may be nil when evaluation was skipped.
func NewRecord(a agent.Agent, metrics *agent.Metrics, report string) (*Record, error) {
	s := a.Snapshot()
	data, err := s.Marshal()
	if err != nil {
		return nil, fmt.Errorf("registry: encode snapshot: %w", err)
	}
	return &Record{
		ID:        uuid.NewString(),
		Name:      a.Name(),
		Version:   a.Version(),
		Kind:      a.Kind(),
		Snapshot:  data,
		Metrics:   metrics,
		Report:    report,
		CreatedAt: s.Timestamp,
	}, nil
}

// Decode returns the agent snapshot stored in r.
func (r *Record) Decode() (*agent.Snapshot, error) {
	return agent.UnmarshalSnapshot(r.Snapshot)
}

// Store persists records by name.
type Store interface {
	// Put stores r, replacing any record with the same name.
	Put(ctx context.Context, r *Record) error

	// Get returns the record for name. Returns ErrNotFound if not present.
	Get(ctx context.Context, name string) (*Record, error)

	// List returns every record ordered by name.
	List(ctx context.Context) ([]*Record, error)

	// Delete removes the record for name. Returns ErrNotFound if not present.
	Delete(ctx context.Context, name string) error

	// Close releases any resources held by the store.
	Close() error
}

func encode(r *Record) ([]byte, error) {
	if r == nil || r.Name == "" {
		return nil, errors.New("registry: record name is required")
	}
	data, err := msgpack.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("registry: encode %s: %w", r.Name, err)
	}
	return data, nil
}

func decode(data []byte) (*Record, error) {
	var r Record
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("registry: decode: %w", err)
	}
	return &r, nil
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}
