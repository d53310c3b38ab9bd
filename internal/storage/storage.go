// Package storage provides the flat key-value namespace botanic persists its
// collections in. Two engines are available: SQLite (default) and bbolt.
package storage

import (
	"context"
	"fmt"
)

// Namespace is a flat string key-value store.
type Namespace interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	EngineSQLite = "sqlite"
	EngineBolt   = "bolt"
)

// Open opens the namespace for the named engine inside dataDir.
func Open(engine, dataDir string) (Namespace, error) {
	switch engine {
	case "", EngineSQLite:
		return OpenSQLite(dataDir)
	case EngineBolt:
		return OpenBolt(dataDir)
	default:
		return nil, fmt.Errorf("unknown storage engine %q (want %q or %q)", engine, EngineSQLite, EngineBolt)
	}
}
