package directory

import (
	"context"
	"fmt"
	"time"

	"player-directory/feature/directory/models"

	"go.uber.org/zap"
)

// maxDeleteBatch bounds a single bulk-delete statement.
const maxDeleteBatch = 500

// DeletePlayers removes every player that no enabled keep-rule excludes,
// batching the deletions, then rebuilds the views from storage. Returns the
// number of players deleted.
func (s *Service) DeletePlayers(ctx context.Context, opts RetentionOptions) (int, error) {
	encounters, err := s.encounterSet(ctx, opts)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	var ids []int
	for _, p := range s.currentViews().cache.Items() {
		if keepPlayer(p, opts, encounters, now) {
			continue
		}
		ids = append(ids, p.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	for start := 0; start < len(ids); start += maxDeleteBatch {
		end := start + maxDeleteBatch
		if end > len(ids) {
			end = len(ids)
		}
		if err := s.players.DeletePlayersWithRelations(ctx, ids[start:end]); err != nil {
			return 0, fmt.Errorf("delete player batch: %w", err)
		}
	}

	s.logger.Info("Bulk player deletion complete", zap.Int("deleted", len(ids)))
	if err := s.Reload(ctx); err != nil {
		return len(ids), err
	}
	return len(ids), nil
}

// DeletePlayerConfigs clears the saved per-player settings of every player
// that no enabled keep-rule excludes. The players themselves are kept.
// Returns the number of configs deleted.
func (s *Service) DeletePlayerConfigs(ctx context.Context, opts RetentionOptions) (int, error) {
	encounters, err := s.encounterSet(ctx, opts)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	deleted := 0
	for _, p := range s.currentViews().cache.Items() {
		if !p.PlayerConfig.HasSettings() {
			continue
		}
		if keepPlayer(p, opts, encounters, now) {
			continue
		}
		if err := s.relations.DeletePlayerConfig(ctx, p.ID); err != nil {
			return deleted, fmt.Errorf("delete config for player %d: %w", p.ID, err)
		}
		deleted++
	}
	if deleted == 0 {
		return 0, nil
	}

	s.logger.Info("Bulk player config deletion complete", zap.Int("deleted", deleted))
	if err := s.Reload(ctx); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// encounterSet fetches the encounter-holding id set only when the rule that
// needs it is enabled.
func (s *Service) encounterSet(ctx context.Context, opts RetentionOptions) (map[int]struct{}, error) {
	if !opts.KeepWithEncounters {
		return nil, nil
	}
	set, err := s.relations.PlayersWithEncounters(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch players with encounters: %w", err)
	}
	return set, nil
}

// keepPlayer reports whether any enabled keep-rule excludes the player from
// bulk deletion.
func keepPlayer(p *models.Player, opts RetentionOptions, encounters map[int]struct{}, now time.Time) bool {
	if opts.KeepWithNotes && p.Notes != "" {
		return true
	}
	if opts.KeepWithCategories && len(p.AssignedCategories) > 0 {
		return true
	}
	if opts.KeepWithSettings && p.PlayerConfig.HasSettings() {
		return true
	}
	if opts.KeepWithEncounters {
		if _, ok := encounters[p.ID]; ok {
			return true
		}
	}
	if opts.KeepSeenWithinDays > 0 {
		cutoff := now.AddDate(0, 0, -opts.KeepSeenWithinDays)
		if p.LastSeen.After(cutoff) {
			return true
		}
	}
	if opts.KeepLodestoneVerified && p.LodestoneStatus == models.LodestoneVerified {
		return true
	}
	return false
}
