// Package store persists bot state. Five named collections (users, threads,
// settings, bans, cache) are held in memory as the single source of truth
// and snapshotted to a Storage backend: full-collection overwrites on a
// timer, atomic per collection but deliberately not atomic across them.
package store

import "encoding/json"

// Collection names. Every Storage backend persists exactly these five.
const (
	CollectionUsers    = "users"
	CollectionThreads  = "threads"
	CollectionSettings = "settings"
	CollectionBans     = "bans"
	CollectionCache    = "cache"
)

// Collections lists all collection names in save order.
var Collections = []string{
	CollectionUsers,
	CollectionThreads,
	CollectionSettings,
	CollectionBans,
	CollectionCache,
}

// Records is a generic keyed collection payload. Typed decoding happens in
// the Database layer; Storage backends only move raw documents.
type Records map[string]json.RawMessage

// Storage is the pluggable persistence backend. Load of a collection that
// does not exist yet returns an empty Records and no error; backends
// bootstrap themselves on first use. Save is a full overwrite of the named
// collection and must be atomic for that collection only; a crash between
// two Save calls may leave collections at different generations, which the
// Database layer accepts as best-effort durability.
type Storage interface {
	Load(collection string) (Records, error)
	Save(collection string, records Records) error

	// Backup writes a timestamped full-snapshot archive of all collections
	// and prunes older archives beyond retain. Returns the archive path.
	Backup(retain int) (string, error)

	Close() error
}
