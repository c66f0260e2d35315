package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// FileStorage keeps each collection in a pretty-printed JSON file under a
// root directory, human-readable and diffable. A missing file is treated as
// an empty collection and immediately persisted (self-healing bootstrap); a
// corrupt file falls back to an empty collection for that collection only.
type FileStorage struct {
	root string
}

// NewFileStorage creates the root directory (and backups/ subdirectory)
// if needed.
func NewFileStorage(root string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Join(root, "backups"), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStorage{root: root}, nil
}

func (s *FileStorage) path(collection string) string {
	return filepath.Join(s.root, collection+".json")
}

// Load reads a collection file. Missing files bootstrap an empty collection
// on disk; unreadable or corrupt files are logged and yield an empty
// collection without touching the file.
func (s *FileStorage) Load(collection string) (Records, error) {
	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		if os.IsNotExist(err) {
			if err := s.Save(collection, Records{}); err != nil {
				return nil, fmt.Errorf("bootstrap %s: %w", collection, err)
			}
			return Records{}, nil
		}
		slog.Error("collection unreadable, starting empty", "collection", collection, "error", err)
		return Records{}, nil
	}

	var records Records
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Error("collection corrupt, starting empty", "collection", collection, "error", err)
		return Records{}, nil
	}
	if records == nil {
		records = Records{}
	}
	return records, nil
}

// Save overwrites the collection file with the given records.
// Atomic per file: temp write + fsync + rename.
func (s *FileStorage) Save(collection string, records Records) error {
	if records == nil {
		records = Records{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", collection, err)
	}
	return writeFileAtomic(s.root, s.path(collection), data)
}

// backupArchive is the on-disk shape of a full-snapshot backup file.
type backupArchive struct {
	Timestamp time.Time          `json:"timestamp"`
	Data      map[string]Records `json:"data"`
}

// Backup writes a timestamped full snapshot of all collections into
// backups/ and prunes archives beyond retain. Archive names sort
// lexicographically in creation order, which is what the pruning relies on.
func (s *FileStorage) Backup(retain int) (string, error) {
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

// Close is a no-op for the file backend.
func (s *FileStorage) Close() error { return nil }

// pruneBackups deletes the oldest archives, keeping the newest retain files
// sorted lexicographically by name.
func pruneBackups(dir string, retain int) error {
	if retain <= 0 {
		retain = 10
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	if len(names) <= retain {
		return nil
	}

	sort.Strings(names)
	for _, name := range names[:len(names)-retain] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// writeFileAtomic writes data to path via a temp file in dir + rename.
func writeFileAtomic(dir, path string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, "store-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return err
	}
	tmpFile.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	cleanup = false
	return nil
}
