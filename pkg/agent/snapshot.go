package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/haivivi/agentkit/pkg/agentcfg"
)

// Snapshot is the persisted form of an agent. History is never persisted.
type Snapshot struct {
	Name      string           `json:"name"`
	Version   string           `json:"version"`
	Config    *agentcfg.Config `json:"config"`
	Timestamp time.Time        `json:"timestamp"`
}

// Marshal encodes the snapshot as indented JSON.
func (s Snapshot) Marshal() ([]byte, error) {
	if s.Config == nil {
		s.Config = &agentcfg.Config{}
	}
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalSnapshot decodes a snapshot document.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("agent: decode snapshot: %w", err)
	}
	return &s, nil
}

// ReadSnapshot reads the snapshot file at path.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("agent: read snapshot: %w", err)
	}
	return UnmarshalSnapshot(data)
}

func (b *Base) Snapshot() Snapshot {
	return Snapshot{
		Name:      b.name,
		Version:   b.version,
		Config:    b.cfg.Clone(),
		Timestamp: b.now(),
	}
}

func (b *Base) Save(path string) error {
	data, err := b.Snapshot().Marshal()
	if err != nil {
		return fmt.Errorf("agent: encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("agent: create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("agent: write snapshot: %w", err)
	}
	b.logger.Info("agent: saved", "path", path)
	return nil
}

// restore overlays a snapshot: the configuration when the snapshot carries
// one, then name and version. History starts empty.
func (b *Base) restore(s *Snapshot) {
	if !s.Config.IsZero() {
		b.cfg = s.Config.Clone()
	}
	if s.Name != "" {
		b.name = s.Name
	}
	if s.Version != "" {
		b.version = s.Version
	}
	b.history = nil
}

// Load builds an agent of kind through New, so backend setup runs against
// the live configuration at configPath, then overlays the snapshot at path.
func Load(kind Kind, path, configPath string, opts *Options) (Agent, error) {
	s, err := ReadSnapshot(path)
	if err != nil {
		return nil, err
	}
	a, err := New(kind, configPath, opts)
	if err != nil {
		return nil, err
	}
	a.base().restore(s)
	opts.logger().Info("agent: loaded", "path", path, "name", a.Name(), "version", a.Version())
	return a, nil
}

// Restore builds an agent of kind from an already decoded snapshot, using
// the live configuration at configPath for backend setup.
func Restore(kind Kind, s *Snapshot, configPath string, opts *Options) (Agent, error) {
	a, err := New(kind, configPath, opts)
	if err != nil {
		return nil, err
	}
	a.base().restore(s)
	return a, nil
}
