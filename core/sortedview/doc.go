// Package sortedview provides a reusable, thread-safe container holding a
// sorted sequence of records plus a key-based lookup index.
//
// A Collection serves both as the canonical record store and as any number of
// derived views over the same records: the container stores references, so a
// record updated through one collection is the same logical entity observed
// through every other collection that holds it.
//
// # Guarantees
//
//   - Mutations (Add, Update, AddOrUpdate, Remove, Resort) are serialized.
//   - Reads run concurrently with each other and observe either the pre- or
//     post-state of any single mutation, never a torn state.
//   - Page/PageWhere apply the predicate before paginating and return items
//     in current sort order; an offset past the end yields an empty result.
//   - Removing an absent key or updating an absent item reports false rather
//     than failing.
//
// The comparator is supplied up front and can be swapped at runtime with
// Resort, which reorders in place without losing or duplicating elements.
package sortedview
