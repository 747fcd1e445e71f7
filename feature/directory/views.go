package directory

import (
	"maps"
	"sync"

	"player-directory/core/sortedview"
	"player-directory/feature/directory/models"
)

// playerView is a sorted, key-indexed view over players.
type playerView = sortedview.Collection[*models.Player]

// viewSet bundles the canonical store with every derived view. The bucket
// maps grow as category/tag ids are discovered; bucket 0 always exists. A
// whole viewSet is built off to the side during reload and swapped in
// atomically, so readers never observe a partially populated rebuild.
type viewSet struct {
	cache   *playerView
	current *playerView
	recent  *playerView

	mu         sync.RWMutex
	less       sortedview.Less[*models.Player]
	ranks      map[int]int // the rank map the views are currently sorted under
	categories map[int]*playerView
	tags       map[int]*playerView
}

func newViewSet(ranks map[int]int) *viewSet {
	less := NewComparer(ranks)
	return &viewSet{
		cache:   sortedview.New(less),
		current: sortedview.New(less),
		recent:  sortedview.New(less),
		less:    less,
		ranks:   ranks,
		categories: map[int]*playerView{
			models.BucketNone: sortedview.New(less),
		},
		tags: map[int]*playerView{
			models.BucketNone: sortedview.New(less),
		},
	}
}

// categoryView returns the bucket view for the id, or nil if it has never
// been populated.
func (v *viewSet) categoryView(id int) *playerView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.categories[id]
}

// tagView returns the bucket view for the id, or nil if it has never been
// populated.
func (v *viewSet) tagView(id int) *playerView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tags[id]
}

func (v *viewSet) ensureCategoryView(id int) *playerView {
	v.mu.Lock()
	defer v.mu.Unlock()
	if view, ok := v.categories[id]; ok {
		return view
	}
	view := sortedview.New(v.less)
	v.categories[id] = view
	return view
}

func (v *viewSet) ensureTagView(id int) *playerView {
	v.mu.Lock()
	defer v.mu.Unlock()
	if view, ok := v.tags[id]; ok {
		return view
	}
	view := sortedview.New(v.less)
	v.tags[id] = view
	return view
}

// bucketViews returns snapshots of both bucket maps so callers can iterate
// without holding the map lock.
func (v *viewSet) bucketViews() (categories, tags map[int]*playerView) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	categories = make(map[int]*playerView, len(v.categories))
	for id, view := range v.categories {
		categories[id] = view
	}
	tags = make(map[int]*playerView, len(v.tags))
	for id, view := range v.tags {
		tags[id] = view
	}
	return categories, tags
}

// sortedUnder reports whether the views are already ordered by the given
// rank map.
func (v *viewSet) sortedUnder(ranks map[int]int) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return maps.Equal(v.ranks, ranks)
}

// resort re-sorts every view in place under the order the rank map induces.
// Membership is unchanged.
func (v *viewSet) resort(ranks map[int]int) {
	less := NewComparer(ranks)
	v.mu.Lock()
	v.less = less
	v.ranks = ranks
	v.mu.Unlock()

	v.cache.Resort(less)
	v.current.Resort(less)
	v.recent.Resort(less)
	categories, tags := v.bucketViews()
	for _, view := range categories {
		view.Resort(less)
	}
	for _, view := range tags {
		view.Resort(less)
	}
}

// reconcileMembership updates every derived view to match the player's
// current flags and assignments: insert into views newly qualified for,
// remove from views no longer qualified for. The canonical store is not
// touched here.
func (v *viewSet) reconcileMembership(p *models.Player) {
	if p.IsCurrent {
		v.current.AddOrUpdate(p)
	} else {
		v.current.RemoveItem(p)
	}
	if p.IsRecent {
		v.recent.AddOrUpdate(p)
	} else {
		v.recent.RemoveItem(p)
	}

	// Make sure a bucket exists for every assignment before walking the
	// snapshot, so newly discovered ids gain a view immediately.
	for _, c := range p.AssignedCategories {
		v.ensureCategoryView(c.ID)
	}
	for _, t := range p.AssignedTags {
		v.ensureTagView(t.ID)
	}

	categories, tags := v.bucketViews()
	for id, view := range categories {
		if bucketMember(id, len(p.AssignedCategories) == 0, p.HasCategory(id)) {
			view.AddOrUpdate(p)
		} else {
			view.RemoveItem(p)
		}
	}
	for id, view := range tags {
		if bucketMember(id, len(p.AssignedTags) == 0, p.HasTag(id)) {
			view.AddOrUpdate(p)
		} else {
			view.RemoveItem(p)
		}
	}
}

// evict removes the player from the canonical store and every derived view.
func (v *viewSet) evict(p *models.Player) {
	v.cache.RemoveItem(p)
	v.current.RemoveItem(p)
	v.recent.RemoveItem(p)
	categories, tags := v.bucketViews()
	for _, view := range categories {
		view.RemoveItem(p)
	}
	for _, view := range tags {
		view.RemoveItem(p)
	}
}

// bucketMember reports membership for one bucket view: bucket 0 holds
// players with no assignments, every other bucket holds its assignees.
func bucketMember(bucketID int, unassigned, assigned bool) bool {
	if bucketID == models.BucketNone {
		return unassigned
	}
	return assigned
}
