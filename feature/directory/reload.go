package directory

import (
	"context"
	"fmt"

	"player-directory/feature/directory/models"

	"go.uber.org/zap"
)

// Reload rebuilds every view from storage. The rebuild happens off to the
// side in a fresh viewSet, then replaces the live one in a single pointer
// swap, so readers are served the old snapshot until the new one is complete.
//
// Transient flags live only in memory, so the rebuilt records are re-flagged
// from the id sets observed on the outgoing snapshot. Concurrent calls are
// collapsed: only one rebuild runs, every caller gets its result.
func (s *Service) Reload(ctx context.Context) error {
	_, err, _ := s.reloads.Do("reload", func() (interface{}, error) {
		return nil, s.reload(ctx)
	})
	return err
}

// ReloadAsync runs Reload on its own goroutine, logging the outcome. Used
// where the caller cannot usefully react to a failed rebuild.
func (s *Service) ReloadAsync(ctx context.Context) {
	go func() {
		if err := s.Reload(ctx); err != nil {
			s.logger.Error("Background reload failed", zap.Error(err))
		}
	}()
}

func (s *Service) reload(ctx context.Context) error {
	// Snapshot the transient flag sets before anything is rebuilt. On the
	// first ever load there is nothing to preserve.
	var currentIDs, recentIDs map[int]struct{}
	if s.loadedOnce.Load() {
		currentIDs, recentIDs = s.flaggedIDs()
	}

	ranks, err := s.categories.CategoryRanks(ctx)
	if err != nil {
		return fmt.Errorf("fetch category ranks: %w", err)
	}
	cats, err := s.categories.Categories(ctx)
	if err != nil {
		return fmt.Errorf("fetch categories: %w", err)
	}
	tags, err := s.tags.Tags(ctx)
	if err != nil {
		return fmt.Errorf("fetch tags: %w", err)
	}
	players, err := s.players.AllPlayersWithRelations(ctx)
	if err != nil {
		return fmt.Errorf("fetch players: %w", err)
	}

	players, err = s.mergeKeyDuplicates(ctx, players)
	if err != nil {
		return err
	}

	next := newViewSet(ranks)

	// Pre-create a bucket for every known definition so empty categories and
	// tags still answer queries, then let membership reconciliation discover
	// any assignment ids storage knows that the definition tables do not.
	for _, c := range cats {
		next.ensureCategoryView(c.ID)
	}
	for _, t := range tags {
		next.ensureTagView(t.ID)
	}

	for _, p := range players {
		populateDerivedFields(p, ranks)
		if _, ok := currentIDs[p.ID]; ok {
			p.IsCurrent = true
		}
		if _, ok := recentIDs[p.ID]; ok {
			p.IsRecent = true
		}
		next.cache.AddOrUpdate(p)
		next.reconcileMembership(p)
	}

	s.swapViews(next)
	s.loadedOnce.Store(true)
	s.logger.Info("Directory reloaded",
		zap.Int("players", len(players)),
		zap.Int("categories", len(cats)),
		zap.Int("tags", len(tags)))
	return nil
}

// flaggedIDs collects the ids of currently flagged players from the live
// snapshot.
func (s *Service) flaggedIDs() (current, recent map[int]struct{}) {
	v := s.currentViews()
	current = make(map[int]struct{}, v.current.Count())
	for _, p := range v.current.Items() {
		current[p.ID] = struct{}{}
	}
	recent = make(map[int]struct{}, v.recent.Count())
	for _, p := range v.recent.Items() {
		recent[p.ID] = struct{}{}
	}
	return current, recent
}

// mergeKeyDuplicates folds records sharing an identity key into the one with
// the lowest id before the views are built. Duplicates appear when a record
// was written while an earlier merge was mid-protocol; the cache never
// tolerates two records under one key.
func (s *Service) mergeKeyDuplicates(ctx context.Context, players []*models.Player) ([]*models.Player, error) {
	byKey := make(map[string]*models.Player, len(players))
	var dups []*models.Player
	for _, p := range players {
		kept, ok := byKey[p.Key]
		if !ok {
			byKey[p.Key] = p
			continue
		}
		older, newer := kept, p
		if newer.ID < older.ID {
			older, newer = newer, older
			byKey[p.Key] = older
		}
		older.Absorb(newer)
		dups = append(dups, newer)
		if err := s.reparentAndDelete(ctx, newer.ID, older.ID); err != nil {
			return nil, fmt.Errorf("merge duplicate key %s: %w", p.Key, err)
		}
	}
	if len(dups) == 0 {
		return players, nil
	}
	s.logger.Warn("Removed duplicate player records during reload",
		zap.Int("duplicates", len(dups)))
	merged := make([]*models.Player, 0, len(byKey))
	for _, p := range players {
		if byKey[p.Key] == p {
			merged = append(merged, p)
		}
	}
	return merged, nil
}

// reparentAndDelete moves a duplicate's dependent rows to the kept id and
// removes the duplicate's own rows.
func (s *Service) reparentAndDelete(ctx context.Context, fromID, toID int) error {
	if err := s.relations.ReparentNameWorldHistory(ctx, fromID, toID); err != nil {
		return err
	}
	if err := s.relations.ReparentCustomizeHistory(ctx, fromID, toID); err != nil {
		return err
	}
	if err := s.relations.ReparentEncounters(ctx, fromID, toID); err != nil {
		return err
	}
	if err := s.relations.DeletePlayerConfig(ctx, fromID); err != nil {
		return err
	}
	if err := s.relations.DeletePlayerCategories(ctx, fromID); err != nil {
		return err
	}
	if err := s.relations.DeletePlayerTags(ctx, fromID); err != nil {
		return err
	}
	if err := s.relations.DeleteLodestoneLookups(ctx, fromID); err != nil {
		return err
	}
	return s.players.DeletePlayer(ctx, fromID)
}
