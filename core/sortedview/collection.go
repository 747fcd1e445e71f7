package sortedview

import (
	"sort"
	"sync"
)

// Item is the constraint for records held by a Collection. The key must be
// stable for the lifetime of the item's membership; re-keying an item requires
// removing and re-adding it.
type Item interface {
	ItemKey() string
}

// Less orders two items. It must define a strict weak ordering; ties are the
// caller's responsibility to break (e.g. with the item key) so that the order
// stays deterministic.
type Less[T Item] func(a, b T) bool

// Collection is a thread-safe sorted sequence of items with a key-based index.
// Mutations are serialized; reads run concurrently and observe either the
// pre- or post-state of any single mutation, never a torn state.
type Collection[T Item] struct {
	mu    sync.RWMutex
	items []T
	index map[string]T
	less  Less[T]
}

// New creates an empty collection ordered by less.
func New[T Item](less Less[T]) *Collection[T] {
	return &Collection[T]{
		index: make(map[string]T),
		less:  less,
	}
}

// NewFrom creates a collection from a pre-existing item set, sorting it once.
// Items with duplicate keys keep only the last occurrence.
func NewFrom[T Item](items []T, less Less[T]) *Collection[T] {
	c := &Collection[T]{
		items: make([]T, 0, len(items)),
		index: make(map[string]T, len(items)),
		less:  less,
	}
	for _, item := range items {
		if _, ok := c.index[item.ItemKey()]; ok {
			c.removeLocked(item.ItemKey())
		}
		c.index[item.ItemKey()] = item
		c.items = append(c.items, item)
	}
	sort.SliceStable(c.items, func(i, j int) bool { return less(c.items[i], c.items[j]) })
	return c
}

// Add inserts the item at its sorted position. It returns false if an item
// with the same key is already present.
func (c *Collection[T]) Add(item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := item.ItemKey()
	if _, ok := c.index[key]; ok {
		return false
	}
	c.insertLocked(item)
	c.index[key] = item
	return true
}

// Update replaces the item with the same key and restores sort order. It
// returns false if no item with that key is present.
func (c *Collection[T]) Update(item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := item.ItemKey()
	if _, ok := c.index[key]; !ok {
		return false
	}
	c.removeLocked(key)
	c.insertLocked(item)
	c.index[key] = item
	return true
}

// AddOrUpdate upserts the item by key.
func (c *Collection[T]) AddOrUpdate(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := item.ItemKey()
	if _, ok := c.index[key]; ok {
		c.removeLocked(key)
	}
	c.insertLocked(item)
	c.index[key] = item
}

// Remove deletes the item with the given key. It returns false if the key is
// absent; removal of an absent item is not an error.
func (c *Collection[T]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.index[key]; !ok {
		return false
	}
	c.removeLocked(key)
	delete(c.index, key)
	return true
}

// RemoveItem deletes the given item by its key.
func (c *Collection[T]) RemoveItem(item T) bool {
	return c.Remove(item.ItemKey())
}

// Get returns the item with the given key.
func (c *Collection[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.index[key]
	return item, ok
}

// FindFirst returns the first item, in sort order, matching the predicate.
func (c *Collection[T]) FindFirst(pred func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, item := range c.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// FindAll returns every item matching the predicate, in sort order.
func (c *Collection[T]) FindAll(pred func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []T
	for _, item := range c.items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// Count returns the number of items.
func (c *Collection[T]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// CountWhere returns the number of items matching the predicate.
func (c *Collection[T]) CountWhere(pred func(T) bool) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, item := range c.items {
		if pred(item) {
			n++
		}
	}
	return n
}

// Page returns up to limit items starting at offset, in sort order. An offset
// beyond the end returns an empty slice.
func (c *Collection[T]) Page(offset, limit int) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return pageOf(c.items, offset, limit)
}

// PageWhere applies the predicate before paginating.
func (c *Collection[T]) PageWhere(pred func(T) bool, offset, limit int) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return nil
	}

	out := make([]T, 0, limit)
	skipped := 0
	for _, item := range c.items {
		if !pred(item) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Items returns a snapshot of all items in sort order.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Resort re-establishes sort order under a new comparator without losing or
// duplicating any element. Used when externally supplied ranks change.
func (c *Collection[T]) Resort(less Less[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.less = less
	sort.SliceStable(c.items, func(i, j int) bool { return less(c.items[i], c.items[j]) })
}

// insertLocked places the item at its sorted position. Caller holds the lock.
func (c *Collection[T]) insertLocked(item T) {
	pos := sort.Search(len(c.items), func(i int) bool {
		return c.less(item, c.items[i])
	})
	c.items = append(c.items, item)
	copy(c.items[pos+1:], c.items[pos:])
	c.items[pos] = item
}

// removeLocked deletes the item with the given key from the slice. A linear
// scan by key is used because the item's sort fields may already have changed,
// which would defeat a binary search. Caller holds the lock.
func (c *Collection[T]) removeLocked(key string) {
	for i, item := range c.items {
		if item.ItemKey() == key {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func pageOf[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}
