package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStorageRoundTrip(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}

	records := Records{
		"123@s.whatsapp.net": json.RawMessage(`{"id":"123@s.whatsapp.net","name":"Alice"}`),
	}
	if err := s.Save(CollectionUsers, records); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(CollectionUsers)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if _, ok := got["123@s.whatsapp.net"]; !ok {
		t.Error("record missing after round trip")
	}
}

func TestFileStorageBootstrapsMissingCollection(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}

	got, err := s.Load(CollectionThreads)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty collection, got %d records", len(got))
	}

	// The bootstrap persists an empty file so the next start finds it.
	if _, err := os.Stat(filepath.Join(dir, "threads.json")); err != nil {
		t.Errorf("expected collection file on disk: %v", err)
	}
}

func TestFileStorageCorruptFileYieldsEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(CollectionUsers)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty collection from corrupt file, got %d", len(got))
	}
}

func TestBackupRotation(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	if err := s.Save(CollectionUsers, Records{"u1": json.RawMessage(`{}`)}); err != nil {
		t.Fatal(err)
	}

	const retain = 3
	for i := 0; i < retain+2; i++ {
		if _, err := s.Backup(retain); err != nil {
			t.Fatalf("Backup %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(dir, "backups"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != retain {
		t.Fatalf("expected %d archives after rotation, got %d", retain, len(entries))
	}
}

func TestBackupContainsAllCollections(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	if err := s.Save(CollectionUsers, Records{"u1": json.RawMessage(`{"name":"Bob"}`)}); err != nil {
		t.Fatal(err)
	}

	path, err := s.Backup(10)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var archive backupArchive
	if err := json.Unmarshal(data, &archive); err != nil {
		t.Fatalf("archive not valid JSON: %v", err)
	}
	for _, collection := range Collections {
		if _, ok := archive.Data[collection]; !ok {
			t.Errorf("archive missing collection %s", collection)
		}
	}
	if archive.Timestamp.IsZero() {
		t.Error("archive timestamp not set")
	}
}
