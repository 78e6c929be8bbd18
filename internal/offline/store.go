// Package offline persists a durable snapshot of the active grocery
// list so the client can keep showing it when the network-backed cache
// is empty or unavailable. Storage failures are logged and swallowed:
// losing the snapshot must never break the caller.
package offline

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mquan/grocery-planner/internal/model"
)

// SnapshotKey is the fixed key the active grocery list is mirrored under.
const SnapshotKey = "grocery-list-offline"

// Store mirrors grocery list snapshots into a local SQLite database.
type Store struct {
	db  *sqlx.DB
	log *zap.Logger
}

// NewStore opens (or creates) a SQLite database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func NewStore(dbPath string, log *zap.Logger) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveToLocal mirrors the given list under the fixed snapshot key.
// Serialization or storage failures are logged as warnings and never
// surfaced to the caller.
func (s *Store) SaveToLocal(list *model.GroceryList) {
	if list == nil {
		return
	}

	payload, err := json.Marshal(list)
	if err != nil {
		s.log.Warn("offline snapshot marshal failed",
			zap.String("list_id", list.ID),
			zap.Error(err),
		)
		return
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO snapshots (key, payload, saved_at)
		VALUES (?, ?, ?)`,
		SnapshotKey, string(payload), time.Now().UTC(),
	)
	if err != nil {
		s.log.Warn("offline snapshot write failed",
			zap.String("list_id", list.ID),
			zap.Error(err),
		)
	}
}

// LoadFromLocal returns the last saved snapshot, or nil when no
// snapshot exists or the stored payload cannot be read. Malformed
// payloads are treated as absent, not as errors.
func (s *Store) LoadFromLocal() *model.GroceryList {
	var payload string
	err := s.db.Get(
		&payload,
		"SELECT payload FROM snapshots WHERE key = ?",
		SnapshotKey,
	)
	if err != nil {
		// No rows is the ordinary empty case; anything else is a
		// storage fault worth a warning. Both read as absent.
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Warn("offline snapshot read failed", zap.Error(err))
		}
		return nil
	}

	var list model.GroceryList
	if err := json.Unmarshal([]byte(payload), &list); err != nil {
		s.log.Warn("offline snapshot corrupted, treating as absent",
			zap.Error(err),
		)
		return nil
	}

	return &list
}

// ClearLocal removes the stored snapshot. Failures are logged as
// warnings and never surfaced to the caller.
func (s *Store) ClearLocal() {
	_, err := s.db.Exec(
		"DELETE FROM snapshots WHERE key = ?", SnapshotKey,
	)
	if err != nil {
		s.log.Warn("offline snapshot clear failed", zap.Error(err))
	}
}
