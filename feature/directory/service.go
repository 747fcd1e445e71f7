package directory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"player-directory/core/clock"
	"player-directory/core/notify"
	"player-directory/feature/directory/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// defaultListIcon is the fallback list glyph (FontAwesome "user").
const defaultListIcon = ""

// Service is the player directory cache: the canonical sorted store plus the
// derived views (current, recent, per-category, per-tag), kept mutually
// consistent under concurrent reads and serialized per-view writes.
//
// All collaborators are constructor-injected interfaces. Storage is the
// durable source of truth; when a storage call fails the in-memory mutation
// still applies and the inconsistency is logged, leaving the cache
// eventually consistent with the store.
type Service struct {
	logger     *zap.Logger
	cfg        Config
	players    PlayerStore
	relations  RelationStore
	categories CategoryProvider
	tags       TagProvider
	tracker    ProcessTracker
	alerter    Alerter
	clock      clock.Clock
	events     *notify.Registry[Event]

	stateMu sync.RWMutex // guards the views pointer swap during reload
	views   *viewSet

	sweeper    *Sweeper
	reloads    singleflight.Group
	loadedOnce atomic.Bool
}

// NewService creates a directory service with empty views. Call Reload to
// populate it from storage.
func NewService(
	cfg Config,
	players PlayerStore,
	relations RelationStore,
	categories CategoryProvider,
	tags TagProvider,
	tracker ProcessTracker,
	alerter Alerter,
	clk clock.Clock,
	logger *zap.Logger,
) *Service {
	s := &Service{
		logger:     logger,
		cfg:        cfg,
		players:    players,
		relations:  relations,
		categories: categories,
		tags:       tags,
		tracker:    tracker,
		alerter:    alerter,
		clock:      clk,
		events:     notify.NewRegistry[Event](),
		views:      newViewSet(nil),
	}
	s.sweeper = newSweeper(s)
	return s
}

// Subscribe registers a listener for directory change events. Delivery is
// synchronous on the mutating goroutine.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.events.Subscribe(fn)
}

// Sweeper returns the recent-player expiry sweeper for lifecycle control.
func (s *Service) Sweeper() *Sweeper { return s.sweeper }

// currentViews returns the live view set.
func (s *Service) currentViews() *viewSet {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.views
}

// swapViews atomically publishes a freshly built view set.
func (s *Service) swapViews(v *viewSet) {
	s.stateMu.Lock()
	s.views = v
	s.stateMu.Unlock()
}

// GetByID returns the player with the given storage id.
func (s *Service) GetByID(id int) (*models.Player, bool) {
	return s.currentViews().cache.FindFirst(func(p *models.Player) bool { return p.ID == id })
}

// GetByKey returns the player with the given identity key.
func (s *Service) GetByKey(key string) (*models.Player, bool) {
	return s.currentViews().cache.Get(key)
}

// GetByObjectID returns the player with the given live object handle.
func (s *Service) GetByObjectID(objectID uint32) (*models.Player, bool) {
	return s.currentViews().cache.FindFirst(func(p *models.Player) bool { return p.ObjectID == objectID })
}

// All returns every player in the canonical store in view order.
func (s *Service) All() []*models.Player {
	return s.currentViews().cache.Items()
}

// List returns one page of the requested view filtered by name, plus the
// exact count for the same filter. Both are taken from the same view; at
// quiescence the count equals the size of the full filtered result.
func (s *Service) List(view View, offset, limit int, name string, mode MatchMode) ([]*models.Player, int, error) {
	if _, err := ParseViewKind(string(view.Kind)); err != nil {
		return nil, 0, err
	}
	filter, err := NameFilter(name, modeOrDefault(mode))
	if err != nil {
		return nil, 0, err
	}

	collection, ok := s.resolveView(view)
	if !ok {
		// A bucket id that has never been populated is an empty view, not an
		// error: the bucket exists conceptually for every known id.
		return nil, 0, nil
	}

	if name == "" {
		return collection.Page(offset, limit), collection.Count(), nil
	}
	return collection.PageWhere(filter, offset, limit), collection.CountWhere(filter), nil
}

// Count returns the number of players in the view matching the filter.
func (s *Service) Count(view View, name string, mode MatchMode) (int, error) {
	_, count, err := s.List(view, 0, 0, name, mode)
	return count, err
}

func modeOrDefault(mode MatchMode) MatchMode {
	if mode == "" {
		return MatchContains
	}
	return mode
}

func (s *Service) resolveView(view View) (*playerView, bool) {
	v := s.currentViews()
	switch view.Kind {
	case ViewAll:
		return v.cache, true
	case ViewCurrent:
		return v.current, true
	case ViewRecent:
		return v.recent, true
	case ViewCategory:
		c := v.categoryView(view.BucketID)
		return c, c != nil
	case ViewTag:
		c := v.tagView(view.BucketID)
		return c, c != nil
	default:
		return nil, false
	}
}

// Add assigns the player an id via storage, computes derived fields, inserts
// it into the canonical store and every qualifying view, creates the initial
// lodestone lookup and a link row per assigned category, and emits a
// "player added" event.
func (s *Service) Add(ctx context.Context, p *models.Player) error {
	id, err := s.players.CreatePlayer(ctx, p)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	p.ID = id
	p.PlayerConfig.PlayerID = id
	if p.Created.IsZero() {
		p.Created = s.clock.Now()
	}
	p.Updated = s.clock.Now()

	s.populateDerivedFields(ctx, p)

	v := s.currentViews()
	v.cache.AddOrUpdate(p)
	v.reconcileMembership(p)

	if err := s.relations.CreateLodestoneLookup(ctx, p.ID, p.Name, p.WorldID); err != nil {
		s.logger.Warn("Failed to create lodestone lookup", zap.Int("player_id", p.ID), zap.Error(err))
	}
	for _, c := range p.AssignedCategories {
		if err := s.relations.AssignCategory(ctx, p.ID, c.ID); err != nil {
			s.logger.Warn("Failed to persist category assignment",
				zap.Int("player_id", p.ID), zap.Int("category_id", c.ID), zap.Error(err))
		}
	}

	s.events.Publish(Event{Type: EventPlayerAdded, Player: p})
	return nil
}

// Update recomputes derived fields, updates the canonical store, reconciles
// view membership, persists, and emits a "player updated" event. A storage
// failure is logged and reported while the in-memory change stays applied.
func (s *Service) Update(ctx context.Context, p *models.Player) error {
	s.populateDerivedFields(ctx, p)
	p.Updated = s.clock.Now()

	v := s.currentViews()
	if !v.cache.Update(p) {
		return ErrNotFound
	}
	v.reconcileMembership(p)

	var storageErr error
	if err := s.players.UpdatePlayer(ctx, p); err != nil {
		storageErr = fmt.Errorf("update player %d: %w", p.ID, err)
		s.logger.Error("Player persisted state is stale after failed update",
			zap.Int("player_id", p.ID), zap.Error(err))
	}

	s.events.Publish(Event{Type: EventPlayerUpdated, Player: p})
	return storageErr
}

// UpdateNotes sets a player's notes and runs a normal update.
func (s *Service) UpdateNotes(ctx context.Context, playerID int, notes string) error {
	p, ok := s.GetByID(playerID)
	if !ok {
		return ErrNotFound
	}
	p.Notes = notes
	return s.Update(ctx, p)
}

// UpdateTags replaces a player's tag assignments, persisting the link-row
// diff against the current set. Link-row failures are logged and skipped so
// one bad row does not abandon the rest of the replacement.
func (s *Service) UpdateTags(ctx context.Context, playerID int, tags []models.Tag) error {
	p, ok := s.GetByID(playerID)
	if !ok {
		return ErrNotFound
	}

	desired := make(map[int]struct{}, len(tags))
	for _, t := range tags {
		desired[t.ID] = struct{}{}
	}
	for _, t := range p.AssignedTags {
		if _, keep := desired[t.ID]; keep {
			continue
		}
		if err := s.relations.DeletePlayerTag(ctx, playerID, t.ID); err != nil {
			s.logger.Warn("Failed to delete tag assignment",
				zap.Int("player_id", playerID), zap.Int("tag_id", t.ID), zap.Error(err))
		}
	}
	for _, t := range tags {
		if p.HasTag(t.ID) {
			continue
		}
		if err := s.relations.AssignTag(ctx, playerID, t.ID); err != nil {
			s.logger.Warn("Failed to persist tag assignment",
				zap.Int("player_id", playerID), zap.Int("tag_id", t.ID), zap.Error(err))
		}
	}

	p.AssignedTags = tags
	return s.Update(ctx, p)
}

// AssignTag adds a tag assignment and persists the link row.
func (s *Service) AssignTag(ctx context.Context, playerID, tagID int) error {
	p, ok := s.GetByID(playerID)
	if !ok {
		return ErrNotFound
	}
	if p.HasTag(tagID) {
		return nil
	}

	tag := models.Tag{ID: tagID}
	if all, err := s.tags.Tags(ctx); err == nil {
		for _, t := range all {
			if t.ID == tagID {
				tag = t
				break
			}
		}
	}

	p.AssignedTags = append(p.AssignedTags, tag)
	if err := s.relations.AssignTag(ctx, playerID, tagID); err != nil {
		s.logger.Warn("Failed to persist tag assignment",
			zap.Int("player_id", playerID), zap.Int("tag_id", tagID), zap.Error(err))
	}
	return s.Update(ctx, p)
}

// UnassignTag removes a tag assignment and deletes the link row.
func (s *Service) UnassignTag(ctx context.Context, playerID, tagID int) error {
	p, ok := s.GetByID(playerID)
	if !ok {
		return ErrNotFound
	}
	if !p.HasTag(tagID) {
		return nil
	}

	p.RemoveTag(tagID)
	if err := s.relations.DeletePlayerTag(ctx, playerID, tagID); err != nil {
		s.logger.Warn("Failed to delete tag assignment",
			zap.Int("player_id", playerID), zap.Int("tag_id", tagID), zap.Error(err))
	}
	return s.Update(ctx, p)
}

// Delete cascades deletion of every dependent record through storage, then
// removes the player from the canonical store and all derived views.
// Deletion is terminal: no notification is emitted.
func (s *Service) Delete(ctx context.Context, playerID int) error {
	p, ok := s.GetByID(playerID)
	if !ok {
		return ErrNotFound
	}

	for _, step := range []struct {
		name string
		fn   func(context.Context, int) error
	}{
		{"customize history", s.relations.DeleteCustomizeHistory},
		{"name/world history", s.relations.DeleteNameWorldHistory},
		{"category assignments", s.relations.DeletePlayerCategories},
		{"player config", s.relations.DeletePlayerConfig},
		{"tag assignments", s.relations.DeletePlayerTags},
		{"lodestone lookups", s.relations.DeleteLodestoneLookups},
		{"encounters", s.relations.DeleteEncounters},
	} {
		if err := step.fn(ctx, playerID); err != nil {
			s.logger.Warn("Cascade delete step failed",
				zap.String("step", step.name), zap.Int("player_id", playerID), zap.Error(err))
		}
	}

	s.currentViews().evict(p)
	s.removeExpiry(playerID)

	if err := s.players.DeletePlayer(ctx, playerID); err != nil {
		return fmt.Errorf("delete player %d: %w", playerID, err)
	}
	return nil
}

// ClearCategoryFromPlayers removes the category assignment from every player
// holding it, recomputing each player's primary category. Failures for an
// individual player are logged and skipped.
func (s *Service) ClearCategoryFromPlayers(ctx context.Context, categoryID int) {
	holders := s.currentViews().cache.FindAll(func(p *models.Player) bool {
		return p.HasCategory(categoryID)
	})
	for _, p := range holders {
		p.RemoveCategory(categoryID)
		p.PrimaryCategoryID = models.BucketNone
		if err := s.Update(ctx, p); err != nil {
			s.logger.Warn("Failed to clear category from player",
				zap.Int("category_id", categoryID), zap.Int("player_id", p.ID), zap.Error(err))
		}
	}
}

// MarkCurrent sets or clears the player's transient current flag and runs a
// normal update so every view reconciles.
func (s *Service) MarkCurrent(ctx context.Context, playerID int, current bool) error {
	p, ok := s.GetByID(playerID)
	if !ok {
		return ErrNotFound
	}
	p.IsCurrent = current
	if current {
		p.LastSeen = s.clock.Now()
		p.SeenCount++
	}
	return s.Update(ctx, p)
}

// MarkRecent flags the player as recently seen and registers it with the
// expiry sweeper.
func (s *Service) MarkRecent(ctx context.Context, playerID int) error {
	p, ok := s.GetByID(playerID)
	if !ok {
		return ErrNotFound
	}
	p.IsRecent = true
	s.registerExpiry(playerID, s.clock.Now())
	return s.Update(ctx, p)
}

// RecalculateRankings re-fetches category ranks and re-sorts the canonical
// store and every derived view in place. Membership does not change.
func (s *Service) RecalculateRankings(ctx context.Context) error {
	ranks, err := s.categories.CategoryRanks(ctx)
	if err != nil {
		return fmt.Errorf("fetch category ranks: %w", err)
	}
	s.currentViews().resort(ranks)
	return nil
}

// fetchRanks returns the live category rank map, keeping the view order in
// step with it: when the ranks differ from the map the views were last sorted
// under, every view is re-sorted first. Without this, records added before
// the first reload would sort by name alone.
func (s *Service) fetchRanks(ctx context.Context) map[int]int {
	ranks, err := s.categories.CategoryRanks(ctx)
	if err != nil {
		s.logger.Warn("Falling back to empty rank map", zap.Error(err))
		ranks = map[int]int{}
	}
	if v := s.currentViews(); !v.sortedUnder(ranks) {
		v.resort(ranks)
	}
	return ranks
}

// populateDerivedFields recomputes the player's primary category and visual
// derived fields from the live rank map and the per-player config overrides.
func (s *Service) populateDerivedFields(ctx context.Context, p *models.Player) {
	populateDerivedFields(p, s.fetchRanks(ctx))
}

// populateDerivedFields is the pure form used by the reload pipeline, which
// fetches the rank map once for the whole batch.
func populateDerivedFields(p *models.Player, ranks map[int]int) {
	p.PrimaryCategoryID = primaryCategoryID(p, ranks)

	var primary *models.Category
	for i := range p.AssignedCategories {
		if p.AssignedCategories[i].ID == p.PrimaryCategoryID {
			primary = &p.AssignedCategories[i]
			break
		}
	}

	p.ListColor = 0
	p.ListIcon = defaultListIcon
	p.Nameplate = ""
	if primary != nil {
		p.ListColor = primary.ListColor
		if primary.Icon != 0 {
			p.ListIcon = string(rune(primary.Icon))
		}
		p.Nameplate = primary.Name
	}
	if p.PlayerConfig.ColorOverride != 0 {
		p.ListColor = p.PlayerConfig.ColorOverride
	}
	if p.PlayerConfig.IconOverride != 0 {
		p.ListIcon = string(rune(p.PlayerConfig.IconOverride))
	}
	if p.PlayerConfig.UseNameplateTitle && p.PlayerConfig.NameplateTitle != "" {
		p.Nameplate = p.PlayerConfig.NameplateTitle
	}
}

// primaryCategoryID returns the highest-ranked (lowest rank number) assigned
// category, or BucketNone when the player has no assignments.
func primaryCategoryID(p *models.Player, ranks map[int]int) int {
	best := models.BucketNone
	bestRank := unrankedCategory
	for _, c := range p.AssignedCategories {
		rank, ok := ranks[c.ID]
		if !ok {
			rank = c.Rank
		}
		if best == models.BucketNone || rank < bestRank {
			best = c.ID
			bestRank = rank
		}
	}
	return best
}
