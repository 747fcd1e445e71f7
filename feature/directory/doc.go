// Package directory implements the player directory cache.
//
// The directory keeps every tracked player in memory, indexed under sorted
// views that answer list queries without touching storage:
//
//  1. All: the canonical store, the single source of truth.
//  2. Current: players in the live game session right now.
//  3. Recent: players seen within a sliding recency window.
//  4. Category / Tag buckets: one view per assignment id, with bucket 0
//     reserved for players that have no assignments of that kind.
//
// # Components
//
//   - Service: the cache itself, plus every mutation path (add, update,
//     delete, tag assignment, flag changes).
//   - Merge: collapses two records confirmed to be the same identity.
//   - Reload: rebuilds every view from storage behind an atomic swap.
//   - Sweeper: expires players out of the recent view on a timer.
//   - Retention: bulk deletion guarded by configurable keep-rules.
//   - Handler: exposes the read side plus notes editing over HTTP.
//
// Writes go to storage synchronously on the mutating goroutine; reads are
// always served from memory. Storage failures on updates keep the in-memory
// state authoritative until the next reload.
//
// # HTTP Endpoints
//
//   - GET /players : Page through a view (all, current, recent, category, tag).
//   - GET /players/:id : Get a single player by storage id.
//   - GET /players/key/:key : Get a single player by identity key.
//   - POST /players/:id/notes : Replace a player's notes.
package directory
