package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/justdad/internal/storage/postgres"
	"github.com/julianstephens/justdad/internal/storage/sqlite"
	"github.com/julianstephens/justdad/internal/utils"
)

// Open selects a RecordStore from a DSN:
//
//	postgres://... or postgresql://...  PostgreSQL (no embedded password)
//	memory://                           process memory
//	*.json                              JSON file
//	anything else                       SQLite database path
func Open(dsn string) (RecordStore, error) {
	return open(dsn, false)
}

// OpenTrusted is Open for DSNs read from the OS keyring or the environment,
// where an embedded PostgreSQL password is allowed.
func OpenTrusted(dsn string) (RecordStore, error) {
	return open(dsn, true)
}

func open(dsn string, allowCredentials bool) (RecordStore, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, fmt.Errorf("store DSN cannot be empty")
	case postgres.IsURL(dsn) || strings.Contains(dsn, "host="):
		if !allowCredentials && HasEmbeddedCredentials(dsn) {
			return nil, postgres.ErrEmbeddedCredentials
		}
		return postgres.New(dsn), nil
	case strings.HasPrefix(dsn, "memory://"):
		return NewMemoryRecordStore(), nil
	}

	path, err := utils.ExpandPath(dsn)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return NewJSONStore(path), nil
	}
	return sqlite.NewStore(path), nil
}

// HasEmbeddedCredentials reports whether a PostgreSQL connection string carries a password.
func HasEmbeddedCredentials(connStr string) bool {
	_, err := postgres.ValidateConnString(connStr)
	return errors.Is(err, postgres.ErrEmbeddedCredentials)
}

// IsSQLite reports whether a RecordStore is the SQLite backend.
func IsSQLite(rs RecordStore) (*sqlite.Store, bool) {
	s, ok := rs.(*sqlite.Store)
	return s, ok
}
