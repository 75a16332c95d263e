package registry

import (
	"fmt"
	"log/slog"
	"strings"
)

// Open returns the store named by uri:
//
//	memory://           in-process, lost on exit
//	badger://<dir>      BadgerDB data directory
//	sqlite://<file>     SQLite database file
//
// A uri without a scheme is taken as a badger directory.
func Open(uri string, logger *slog.Logger) (Store, error) {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		scheme, rest = "badger", uri
	}
	switch strings.ToLower(scheme) {
	case "memory", "mem":
		return NewMemory(), nil
	case "badger":
		if rest == "" {
			return nil, fmt.Errorf("registry: %q: missing directory", uri)
		}
		s, err := NewBadger(BadgerOptions{Dir: rest, Logger: logger})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite", "sqlite3":
		if rest == "" {
			return nil, fmt.Errorf("registry: %q: missing database file", uri)
		}
		s, err := NewSQLite(rest)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("registry: unsupported scheme %q", scheme)
}
