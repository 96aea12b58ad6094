package storage

import (
	"time"

	"github.com/braddunbar/bradis/internal/storage/value"
)

// Databases is the number of logical databases.
const Databases = 16

// nowMillis returns the wall clock as epoch milliseconds.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// DB is one logical database: the key space plus expiration deadlines.
// A key present in expires is always present in objects.
type DB struct {
	objects map[string]value.Value
	expires map[string]int64
}

func newDB() *DB {
	return &DB{
		objects: make(map[string]value.Value),
		expires: make(map[string]int64),
	}
}

// Len returns the number of live keys, counting not-yet-reaped expired keys.
func (db *DB) Len() int { return len(db.objects) }

func (db *DB) isExpired(key string) bool {
	at, ok := db.expires[key]
	return ok && nowMillis() >= at
}

// expireAt sets the deadline for an existing key. It returns false when the
// key does not exist.
func (db *DB) expireAt(key string, at int64) bool {
	if _, ok := db.objects[key]; !ok {
		return false
	}
	db.expires[key] = at
	return true
}

// persist drops the deadline for key, reporting whether one existed.
func (db *DB) persist(key string) bool {
	if _, ok := db.expires[key]; !ok {
		return false
	}
	delete(db.expires, key)
	return true
}

// ttl returns the remaining lifetime for key in milliseconds, or false when
// it has no deadline.
func (db *DB) ttl(key string) (int64, bool) {
	at, ok := db.expires[key]
	if !ok {
		return 0, false
	}
	return at - nowMillis(), true
}
