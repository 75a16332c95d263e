// Package artifacts stores the files a training run produces (the agent
// snapshot and its metrics) and reads them back for inference.
//
// A Store addresses files by forward-slash names relative to its root. Local
// keeps them in a directory; S3 keeps them as objects under a bucket prefix
// on Amazon S3 or any S3-compatible service.
package artifacts

import (
	"context"
	"fmt"
	"os"
)

// Well-known artifact names written by training.
const (
	AgentFile   = "agent.json"
	MetricsFile = "metrics.json"
)

// ErrNotExist is returned when an artifact is missing. It wraps
// os.ErrNotExist.
var ErrNotExist = fmt.Errorf("artifacts: %w", os.ErrNotExist)

// Store reads and writes whole artifacts.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Put writes data to name, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the content of name. A missing artifact yields an error
	// wrapping ErrNotExist.
	Get(ctx context.Context, name string) ([]byte, error)

	// Exists reports whether name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// Location returns a human-readable address of name for logs.
	Location(name string) string
}

func notExist(name string) error {
	return fmt.Errorf("%w: %s", ErrNotExist, name)
}
