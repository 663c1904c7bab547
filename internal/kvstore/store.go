package kvstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stagelist/internal/shared"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = shared.ErrKeyNotFound

// Driver names accepted in the [store] config section.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverS3       = "s3"
)

// Entry is one key and its JSON value.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the backend's key-value contract. Values are opaque JSON documents.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// GetByPrefix returns every entry whose key starts with prefix, ordered by key.
	GetByPrefix(ctx context.Context, prefix string) ([]Entry, error)
	Close() error
}

// Open creates the store named by cfg.Driver.
func Open(ctx context.Context, cfg shared.StoreConfig, logger *log.Logger) (Store, error) {
	if logger != nil {
		logger.Info("opening key-value store", "driver", cfg.Driver)
	}

	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN)
	case DriverRedis:
		return OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case DriverS3:
		return OpenS3(cfg.S3)
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}

// escapeLike escapes LIKE wildcards with a backslash.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
}
