package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStorage is the alternative persistence backend: all five collections
// live in one documents table keyed by (collection, key). Save semantics
// match the file backend: a full overwrite of one collection per call,
// transactional per collection, nothing spanning collections.
type SQLiteStorage struct {
	db   *sql.DB
	root string
}

// NewSQLiteStorage opens (or creates) wp-bot.db under root.
func NewSQLiteStorage(root string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Join(root, "backups"), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(root, "wp-bot.db"))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			PRIMARY KEY (collection, key)
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStorage{db: db, root: root}, nil
}

// Load reads all documents of a collection. An empty result is a valid
// empty collection; row-level decode problems surface as errors because a
// partially-read collection is worse than an empty one.
func (s *SQLiteStorage) Load(collection string) (Records, error) {
	rows, err := s.db.Query(`SELECT key, value FROM documents WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	defer rows.Close()

	records := Records{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		records[key] = json.RawMessage(value)
	}
	return records, rows.Err()
}

// Save overwrites the collection inside a single transaction.
func (s *SQLiteStorage) Save(collection string, records Records) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save %s: %w", collection, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM documents WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("clear %s: %w", collection, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO documents (collection, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare %s: %w", collection, err)
	}
	defer stmt.Close()

	for key, value := range records {
		if _, err := stmt.Exec(collection, key, string(value)); err != nil {
			return fmt.Errorf("insert %s/%s: %w", collection, key, err)
		}
	}

	return tx.Commit()
}

// Backup dumps all collections into a timestamped JSON archive under
// backups/, same format and rotation as the file backend so archives stay
// portable between drivers.
func (s *SQLiteStorage) Backup(retain int) (string, error) {
	archive := backupArchive{
		Timestamp: time.Now().UTC(),
		Data:      make(map[string]Records, len(Collections)),
	}
	for _, collection := range Collections {
		records, err := s.Load(collection)
		if err != nil {
			return "", err
		}
		archive.Data[collection] = records
	}

	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal backup: %w", err)
	}

	name := fmt.Sprintf("backup_%s_%s.json",
		archive.Timestamp.Format("20060102-150405"),
		uuid.NewString()[:8],
	)
	backupDir := filepath.Join(s.root, "backups")
	path := filepath.Join(backupDir, name)
	if err := writeFileAtomic(backupDir, path, data); err != nil {
		return "", err
	}

	if err := pruneBackups(backupDir, retain); err != nil {
		slog.Warn("backup pruning failed", "error", err)
	}
	return path, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStorage) Close() error { return s.db.Close() }
