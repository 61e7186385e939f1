// Package maple implements the db.KVDB interface as an in-memory database.
//
// Entries live in a single xsync.MapOf, a concurrent map that shards its keys internally,
// so the engine is safe for concurrent use even though the store on top of it is driven
// by a single command loop.
//
// Key Components:
//
//   - Entry: The stored bytes together with the write index of the write that created them.
//
//   - Write Index: A logical timestamp handed in by the caller with every write. The engine
//     keeps the highest index it has seen (WriteIdx) and updates it with a CompareAndSwap
//     loop. A write whose index is lower than the index of the stored entry is ignored,
//     so delayed writes never overwrite newer data.
//
//   - Copy Semantics: Values are copied on Set and on Get. Callers can reuse or modify
//     their slices without affecting the database.
//
// The database does not persist anything, Close drops all entries.
package maple
