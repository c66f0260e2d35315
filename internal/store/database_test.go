package store

import (
	"testing"
	"time"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	s, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	db, err := Open(s)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return db
}

func TestLazyUserCreation(t *testing.T) {
	db := openTestDB(t)

	u := db.GetUser("99@s.whatsapp.net", "Carol")
	if u.ID != "99@s.whatsapp.net" || u.Name != "Carol" {
		t.Fatalf("unexpected record: %+v", u)
	}
	if u.Data.Level != 1 {
		t.Errorf("new users start at level 1, got %d", u.Data.Level)
	}
	if u.Registered.IsZero() {
		t.Error("registered timestamp not set")
	}

	// Second lookup returns the same record, no duplicate.
	db.GetUser("99@s.whatsapp.net", "Carol")
	if got := db.Stats().TotalUsers; got != 1 {
		t.Errorf("expected 1 user, got %d", got)
	}
}

func TestLazyThreadCreationDefaults(t *testing.T) {
	db := openTestDB(t)

	th := db.GetThread("grp@g.us")
	if !th.Settings.AntiSpam || !th.Settings.Welcome || !th.Settings.Goodbye {
		t.Errorf("new thread defaults wrong: %+v", th.Settings)
	}
	if th.Data.CreatedAt.IsZero() {
		t.Error("createdAt not set")
	}
}

func TestBanAndUnbanUser(t *testing.T) {
	db := openTestDB(t)
	db.GetUser("bad@s.whatsapp.net", "Mallory")

	db.BanUser("bad@s.whatsapp.net", "spamming", 0)
	u := db.GetUser("bad@s.whatsapp.net", "")
	if !u.Ban.Active(time.Now()) {
		t.Fatal("ban not mirrored onto user record")
	}
	if u.Ban.Reason != "spamming" {
		t.Errorf("reason = %q", u.Ban.Reason)
	}
	if len(db.BannedUserIDs(time.Now())) != 1 {
		t.Error("banned user not listed")
	}

	if !db.UnbanUser("bad@s.whatsapp.net") {
		t.Fatal("UnbanUser reported no active ban")
	}
	if db.GetUser("bad@s.whatsapp.net", "").Ban.IsBanned {
		t.Error("ban flag survived unban")
	}
	if db.UnbanUser("bad@s.whatsapp.net") {
		t.Error("second unban should report nothing to clear")
	}
}

func TestTemporaryBanExpires(t *testing.T) {
	db := openTestDB(t)
	db.BanUser("tmp@s.whatsapp.net", "cool off", time.Minute)

	u := db.GetUser("tmp@s.whatsapp.net", "")
	if !u.Ban.Active(time.Now()) {
		t.Fatal("ban should be active now")
	}
	if u.Ban.Active(time.Now().Add(2 * time.Minute)) {
		t.Error("ban should lapse after its duration")
	}
}

func TestBanThread(t *testing.T) {
	db := openTestDB(t)
	db.BanThread("grp@g.us", "rule violations", 0)

	if !db.GetThread("grp@g.us").Ban.Active(time.Now()) {
		t.Fatal("thread ban not mirrored")
	}
	if !db.UnbanThread("grp@g.us") {
		t.Fatal("UnbanThread reported no active ban")
	}
}

func TestSaveAllAndReload(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	db, err := Open(s)
	if err != nil {
		t.Fatal(err)
	}

	db.UpdateUser("u@s.whatsapp.net", func(u *UserRecord) {
		u.Name = "Dave"
		u.Data.Money = 500
	})
	db.UpdateThread("g@g.us", func(th *ThreadRecord) {
		th.Prefix = "?"
		th.Language = "bn"
	})
	db.CountCommand("u@s.whatsapp.net", "g@g.us")
	if err := db.SaveAll(); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	s2, err := NewFileStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	db2, err := Open(s2)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	u := db2.GetUser("u@s.whatsapp.net", "")
	if u.Name != "Dave" || u.Data.Money != 500 {
		t.Errorf("user state lost across restart: %+v", u)
	}
	if got := db2.ThreadPrefix("g@g.us"); got != "?" {
		t.Errorf("thread prefix lost: %q", got)
	}
	if got := db2.ThreadLanguage("g@g.us"); got != "bn" {
		t.Errorf("thread language lost: %q", got)
	}
	if db2.Stats().TotalCommands != 1 {
		t.Errorf("command counter lost: %d", db2.Stats().TotalCommands)
	}
}

// hookStorage lets a test run code while a save is in flight.
type hookStorage struct {
	Storage
	onSave func(collection string)
}

func (h *hookStorage) Save(collection string, records Records) error {
	if h.onSave != nil {
		h.onSave(collection)
	}
	return h.Storage.Save(collection, records)
}

func TestMutationDuringSaveStaysDirty(t *testing.T) {
	base, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	hs := &hookStorage{Storage: base}
	db, err := Open(hs)
	if err != nil {
		t.Fatal(err)
	}

	db.UpdateUser("early@s.whatsapp.net", func(u *UserRecord) { u.Data.Money = 1 })

	// A write lands after the snapshot is taken but before the save
	// completes. It must not be marked clean along with the snapshot.
	raced := false
	hs.onSave = func(string) {
		if !raced {
			raced = true
			db.UpdateUser("late@s.whatsapp.net", func(u *UserRecord) { u.Data.Money = 7 })
		}
	}
	if err := db.SaveAll(); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	db.mu.RLock()
	dirty := db.gen != db.savedGen
	db.mu.RUnlock()
	if !dirty {
		t.Fatal("state with an unsaved mutation was marked clean")
	}

	// The next save flushes the late write and settles clean.
	hs.onSave = nil
	if err := db.SaveAll(); err != nil {
		t.Fatalf("second SaveAll: %v", err)
	}
	db.mu.RLock()
	dirty = db.gen != db.savedGen
	db.mu.RUnlock()
	if dirty {
		t.Error("fully saved state should be clean")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	db := openTestDB(t)

	type payload struct {
		URL string `json:"url"`
	}
	if err := db.CacheSet("lastMedia", payload{URL: "https://example.com/x.jpg"}); err != nil {
		t.Fatal(err)
	}

	var got payload
	if !db.CacheGet("lastMedia", &got) {
		t.Fatal("cache entry missing")
	}
	if got.URL != "https://example.com/x.jpg" {
		t.Errorf("cache value = %+v", got)
	}
	if db.CacheGet("absent", &got) {
		t.Error("absent key should miss")
	}
}
