// Package storage implements durable client storage: the small key-value space that holds the bearer token,
// the cached user and the guest-mode flag between runs.
//
// Implementations:
//   - [SQLiteStore] : Default; a client_storage table created by the embedded migrations in package shared
//   - [RedisStore] : Shares a session across machines; keys are namespaced with a prefix
//   - [MemoryStore] : Process-local, used by tests and the "memory" driver
//
// Single-key writes are atomic in every implementation. [Store.SetMany] writes a group of keys atomically
// (one SQLite transaction, one MSET, one lock), which is how a token and its user are persisted together.
package storage
