package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/adhocore/gronx"
)

// Database holds all five collections in memory as the single source of
// truth and periodically snapshots them to a Storage backend. All access
// goes through one mutex; handlers read and write typed records, the
// persistence layer only ever sees encoded snapshots.
type Database struct {
	mu      sync.RWMutex
	storage Storage

	users    map[string]*UserRecord
	threads  map[string]*ThreadRecord
	settings Settings
	bans     BanLedger
	cache    map[string]json.RawMessage

	// gen counts mutations; savedGen is the generation captured by the
	// last successful save. State is dirty while they differ, so a
	// mutation racing a save is never marked clean.
	gen      uint64
	savedGen uint64
}

// Open loads all collections from the backend and decodes them. Individual
// records that fail to decode are dropped with a log line rather than
// aborting startup.
func Open(storage Storage) (*Database, error) {
	db := &Database{
		storage: storage,
		users:   make(map[string]*UserRecord),
		threads: make(map[string]*ThreadRecord),
		cache:   make(map[string]json.RawMessage),
	}

	userDocs, err := storage.Load(CollectionUsers)
	if err != nil {
		return nil, err
	}
	for id, raw := range userDocs {
		var u UserRecord
		if err := json.Unmarshal(raw, &u); err != nil {
			slog.Error("dropping undecodable user record", "id", id, "error", err)
			continue
		}
		db.users[id] = &u
	}

	threadDocs, err := storage.Load(CollectionThreads)
	if err != nil {
		return nil, err
	}
	for id, raw := range threadDocs {
		var t ThreadRecord
		if err := json.Unmarshal(raw, &t); err != nil {
			slog.Error("dropping undecodable thread record", "id", id, "error", err)
			continue
		}
		db.threads[id] = &t
	}

	settingsDocs, err := storage.Load(CollectionSettings)
	if err != nil {
		return nil, err
	}
	if raw, ok := settingsDocs["global"]; ok {
		if err := json.Unmarshal(raw, &db.settings); err != nil {
			slog.Error("settings record corrupt, using defaults", "error", err)
		}
	}
	if db.settings.Initialized.IsZero() {
		db.settings.Initialized = time.Now().UTC()
		db.gen++
	}

	banDocs, err := storage.Load(CollectionBans)
	if err != nil {
		return nil, err
	}
	if raw, ok := banDocs["ledger"]; ok {
		if err := json.Unmarshal(raw, &db.bans); err != nil {
			slog.Error("ban ledger corrupt, starting empty", "error", err)
		}
	}

	cacheDocs, err := storage.Load(CollectionCache)
	if err != nil {
		return nil, err
	}
	for key, raw := range cacheDocs {
		db.cache[key] = raw
	}

	slog.Info("database loaded",
		"users", len(db.users),
		"threads", len(db.threads),
		"bannedUsers", len(db.bans.Users),
		"bannedThreads", len(db.bans.Threads),
	)
	return db, nil
}

// GetUser returns the record for a sender, creating it on first sight.
// The returned copy is a snapshot; mutate through UpdateUser.
func (db *Database) GetUser(id, name string) UserRecord {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.ensureUserLocked(id, name)
}

func (db *Database) ensureUserLocked(id, name string) *UserRecord {
	if u, ok := db.users[id]; ok {
		if name != "" && u.Name != name {
			u.Name = name
			db.gen++
		}
		return u
	}
	now := time.Now().UTC()
	u := &UserRecord{
		ID:          id,
		Name:        name,
		Registered:  now,
		LastSeen:    now,
		LastMessage: now,
		Settings:    UserSettings{},
		Data:        UserData{Level: 1},
	}
	db.users[id] = u
	db.settings.Stats.TotalUsers = len(db.users)
	db.gen++
	slog.Info("new user registered", "id", id, "name", name)
	return u
}

// UpdateUser applies fn to the live record under the lock. The record is
// created first if the sender is unknown.
func (db *Database) UpdateUser(id string, fn func(*UserRecord)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	fn(db.ensureUserLocked(id, ""))
	db.gen++
}

// GetThread returns the record for a group conversation, creating it on
// first sight. Direct chats are not tracked as threads; callers pass only
// group IDs here.
func (db *Database) GetThread(id string) ThreadRecord {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.ensureThreadLocked(id)
}

func (db *Database) ensureThreadLocked(id string) *ThreadRecord {
	if t, ok := db.threads[id]; ok {
		return t
	}
	t := &ThreadRecord{
		ID: id,
		Settings: ThreadSettings{
			AntiSpam: true,
			Welcome:  true,
			Goodbye:  true,
		},
		Data: ThreadData{CreatedAt: time.Now().UTC()},
	}
	db.threads[id] = t
	db.settings.Stats.TotalThreads = len(db.threads)
	db.gen++
	slog.Info("new thread registered", "id", id)
	return t
}

// UpdateThread applies fn to the live record under the lock.
func (db *Database) UpdateThread(id string, fn func(*ThreadRecord)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	fn(db.ensureThreadLocked(id))
	db.gen++
}

// HasThread reports whether a thread record already exists, without
// creating one.
func (db *Database) HasThread(id string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.threads[id]
	return ok
}

// UserLanguage returns the persisted language preference for a sender, or
// empty if none is set or the sender is unknown.
func (db *Database) UserLanguage(id string) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if u, ok := db.users[id]; ok {
		return u.Language
	}
	return ""
}

// ThreadLanguage returns the persisted language preference for a thread,
// or empty if none is set or the thread is unknown.
func (db *Database) ThreadLanguage(id string) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if t, ok := db.threads[id]; ok {
		return t.Language
	}
	return ""
}

// ThreadPrefix returns the per-thread prefix override, or empty.
func (db *Database) ThreadPrefix(id string) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if t, ok := db.threads[id]; ok {
		return t.Prefix
	}
	return ""
}

// BanUser records a ban in the ledger and mirrors it onto the user record.
// duration 0 means permanent.
func (db *Database) BanUser(id, reason string, duration time.Duration) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := time.Now().UTC()
	rec := BanRecord{SubjectID: id, Reason: reason, Timestamp: now}
	state := BanState{IsBanned: true, Reason: reason}
	if duration > 0 {
		expires := now.Add(duration)
		rec.DurationSeconds = int64(duration.Seconds())
		rec.Expires = &expires
		state.Expires = &expires
	}
	db.bans.Users = append(db.bans.Users, rec)
	db.ensureUserLocked(id, "").Ban = state
	db.gen++
	slog.Info("user banned", "id", id, "reason", reason, "duration", duration)
}

// UnbanUser clears the live ledger entries for a user and resets the
// mirrored flag. Returns false if the user had no active ban.
func (db *Database) UnbanUser(id string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	found := false
	kept := db.bans.Users[:0]
	for _, rec := range db.bans.Users {
		if rec.SubjectID == id {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	db.bans.Users = kept

	if u, ok := db.users[id]; ok {
		if u.Ban.IsBanned {
			found = true
		}
		u.Ban = BanState{}
	}
	if found {
		db.gen++
		slog.Info("user unbanned", "id", id)
	}
	return found
}

// BanThread records a thread ban in the ledger and mirrors it onto the
// thread record.
func (db *Database) BanThread(id, reason string, duration time.Duration) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := time.Now().UTC()
	rec := BanRecord{SubjectID: id, Reason: reason, Timestamp: now}
	state := BanState{IsBanned: true, Reason: reason}
	if duration > 0 {
		expires := now.Add(duration)
		rec.DurationSeconds = int64(duration.Seconds())
		rec.Expires = &expires
		state.Expires = &expires
	}
	db.bans.Threads = append(db.bans.Threads, rec)
	db.ensureThreadLocked(id).Ban = state
	db.gen++
	slog.Info("thread banned", "id", id, "reason", reason)
}

// UnbanThread clears the live ledger entries for a thread and resets the
// mirrored flag. Returns false if the thread had no active ban.
func (db *Database) UnbanThread(id string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	found := false
	kept := db.bans.Threads[:0]
	for _, rec := range db.bans.Threads {
		if rec.SubjectID == id {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	db.bans.Threads = kept

	if t, ok := db.threads[id]; ok {
		if t.Ban.IsBanned {
			found = true
		}
		t.Ban = BanState{}
	}
	if found {
		db.gen++
		slog.Info("thread unbanned", "id", id)
	}
	return found
}

// BannedUserIDs returns the IDs of all users with an active ban.
func (db *Database) BannedUserIDs(now time.Time) []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var ids []string
	for id, u := range db.users {
		if u.Ban.Active(now) {
			ids = append(ids, id)
		}
	}
	return ids
}

// BannedThreadIDs returns the IDs of all threads with an active ban.
func (db *Database) BannedThreadIDs(now time.Time) []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var ids []string
	for id, t := range db.threads {
		if t.Ban.Active(now) {
			ids = append(ids, id)
		}
	}
	return ids
}

// CountCommand bumps the global and per-subject command counters.
func (db *Database) CountCommand(userID, threadID string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.settings.Stats.TotalCommands++
	if u, ok := db.users[userID]; ok {
		u.Data.CommandsUsed++
	}
	if threadID != "" {
		if t, ok := db.threads[threadID]; ok {
			t.Data.CommandsUsed++
		}
	}
	db.gen++
}

// Stats returns the cumulative counters with live user/thread totals.
func (db *Database) Stats() StatTotals {
	db.mu.RLock()
	defer db.mu.RUnlock()
	s := db.settings.Stats
	s.TotalUsers = len(db.users)
	s.TotalThreads = len(db.threads)
	return s
}

// CacheGet decodes a cache entry into out. Returns false if absent.
func (db *Database) CacheGet(key string, out any) bool {
	db.mu.RLock()
	raw, ok := db.cache[key]
	db.mu.RUnlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// CacheSet stores an encodable value in the cache collection.
func (db *Database) CacheSet(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache %s: %w", key, err)
	}
	db.mu.Lock()
	db.cache[key] = raw
	db.gen++
	db.mu.Unlock()
	return nil
}

// snapshot encodes all collections under a read lock and reports the
// generation the snapshot represents.
func (db *Database) snapshot() (map[string]Records, uint64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make(map[string]Records, len(Collections))

	users := make(Records, len(db.users))
	for id, u := range db.users {
		raw, err := json.Marshal(u)
		if err != nil {
			return nil, 0, fmt.Errorf("encode user %s: %w", id, err)
		}
		users[id] = raw
	}
	out[CollectionUsers] = users

	threads := make(Records, len(db.threads))
	for id, t := range db.threads {
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, 0, fmt.Errorf("encode thread %s: %w", id, err)
		}
		threads[id] = raw
	}
	out[CollectionThreads] = threads

	settingsRaw, err := json.Marshal(db.settings)
	if err != nil {
		return nil, 0, fmt.Errorf("encode settings: %w", err)
	}
	out[CollectionSettings] = Records{"global": settingsRaw}

	bansRaw, err := json.Marshal(db.bans)
	if err != nil {
		return nil, 0, fmt.Errorf("encode ban ledger: %w", err)
	}
	out[CollectionBans] = Records{"ledger": bansRaw}

	cache := make(Records, len(db.cache))
	for key, raw := range db.cache {
		cache[key] = raw
	}
	out[CollectionCache] = cache

	return out, db.gen, nil
}

// SaveAll snapshots every collection to the backend. A failing collection
// is logged and the rest still save; the first error is returned.
func (db *Database) SaveAll() error {
	snap, gen, err := db.snapshot()
	if err != nil {
		return err
	}

	var firstErr error
	for _, collection := range Collections {
		if err := db.storage.Save(collection, snap[collection]); err != nil {
			slog.Error("collection save failed", "collection", collection, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr == nil {
		// Mark only the saved generation clean. Mutations made while the
		// snapshot was being written keep the state dirty.
		db.mu.Lock()
		if gen > db.savedGen {
			db.savedGen = gen
		}
		db.mu.Unlock()
	}
	return firstErr
}

// Backup delegates to the backend after flushing current state.
func (db *Database) Backup(retain int) (string, error) {
	if err := db.SaveAll(); err != nil {
		return "", err
	}
	return db.storage.Backup(retain)
}

// Close flushes state and closes the backend.
func (db *Database) Close() error {
	if err := db.SaveAll(); err != nil {
		slog.Error("final save failed", "error", err)
	}
	return db.storage.Close()
}

// RunAutoSave persists dirty state on a fixed interval until ctx is done.
// An interval of zero disables autosaving entirely.
func (db *Database) RunAutoSave(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		slog.Info("autosave disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			db.mu.RLock()
			dirty := db.gen != db.savedGen
			db.mu.RUnlock()
			if !dirty {
				continue
			}
			if err := db.SaveAll(); err != nil {
				slog.Error("autosave failed", "error", err)
			} else {
				slog.Debug("autosave complete")
			}
		}
	}
}

// RunBackupSchedule takes a backup whenever the cron expression is due,
// checked once a minute. An empty expression disables scheduled backups.
func (db *Database) RunBackupSchedule(ctx context.Context, expr string, retain int) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		slog.Info("scheduled backups disabled")
		return nil
	}

	gron := gronx.New()
	if !gron.IsValid(expr) {
		return fmt.Errorf("invalid backup schedule %q", expr)
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case tick := <-ticker.C:
			due, err := gron.IsDue(expr, tick)
			if err != nil || !due {
				continue
			}
			path, err := db.Backup(retain)
			if err != nil {
				slog.Error("scheduled backup failed", "error", err)
				continue
			}
			slog.Info("scheduled backup written", "path", path)
		}
	}
}
