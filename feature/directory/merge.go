package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"player-directory/feature/directory/models"

	"go.uber.org/zap"
)

// Merge collapses two player records that an external identity verification
// determined to be the same real identity. The older record is kept as the
// canonical one; the newer duplicate's dependent records are re-parented onto
// it, its own rows are deleted, and its fresher field values are absorbed.
//
// The protocol runs at the directory level without holding any single view's
// lock throughout: both records are evicted from every view first, storage is
// mutated, and the merged record is re-inserted. A failure mid-protocol
// leaves the merged identity cache-absent (never cache-duplicated); the
// duplicate id is reconciled on the next full reload.
func (s *Service) Merge(ctx context.Context, older *models.Player, newerID int) error {
	newer, ok := s.GetByID(newerID)
	if !ok {
		return ErrNotFound
	}
	if older == nil || older.ID == newer.ID {
		return fmt.Errorf("%w: merge requires two distinct players", ErrInconsistentState)
	}

	// Snapshot pre-merge state for diagnostics and alerting before anything
	// mutates.
	olderSnap, _ := json.Marshal(older)
	newerSnap, _ := json.Marshal(newer)
	wasCurrent := newer.IsCurrent
	payloads := s.alerter.NameWorldChangeAlert(older, newer)

	// Cache-evict both records from the canonical store and every derived
	// view. Post-merge sort keys and membership change, so stale entries must
	// never linger.
	s.tracker.RemoveCurrent(newer.ObjectID)
	v := s.currentViews()
	v.evict(newer)
	v.evict(older)
	s.removeExpiry(newer.ID)

	fail := func(step string, err error) error {
		s.logger.Error("Merge aborted; both records left evicted until next reload",
			zap.String("step", step),
			zap.Int("older_id", older.ID),
			zap.Int("newer_id", newer.ID),
			zap.ByteString("older_snapshot", olderSnap),
			zap.ByteString("newer_snapshot", newerSnap),
			zap.Error(err))
		return fmt.Errorf("%w: merge %s: %v", ErrInconsistentState, step, err)
	}

	// Record the observed name/world (and customize) change on the canonical
	// record's history before re-parenting.
	if older.Name != newer.Name || older.WorldID != newer.WorldID {
		if err := s.relations.RecordNameWorldChange(ctx, older.ID, newer.Name, newer.WorldID); err != nil {
			return fail("record name/world change", err)
		}
	}
	if len(newer.Customize) > 0 && !bytes.Equal(older.Customize, newer.Customize) {
		if err := s.relations.RecordCustomizeChange(ctx, older.ID, newer.Customize); err != nil {
			return fail("record customize change", err)
		}
	}

	// Rewrite relations: re-parent every dependent record onto the older id
	// before the newer id is deleted.
	if err := s.relations.ReparentNameWorldHistory(ctx, newer.ID, older.ID); err != nil {
		return fail("reparent name/world history", err)
	}
	if err := s.relations.ReparentCustomizeHistory(ctx, newer.ID, older.ID); err != nil {
		return fail("reparent customize history", err)
	}
	if err := s.relations.ReparentEncounters(ctx, newer.ID, older.ID); err != nil {
		return fail("reparent encounters", err)
	}

	// Delete the duplicate's own rows. These are not merged; only relations
	// pointing at history are.
	if err := s.relations.DeletePlayerConfig(ctx, newer.ID); err != nil {
		return fail("delete duplicate config", err)
	}
	if err := s.relations.DeletePlayerCategories(ctx, newer.ID); err != nil {
		return fail("delete duplicate categories", err)
	}
	if err := s.relations.DeletePlayerTags(ctx, newer.ID); err != nil {
		return fail("delete duplicate tags", err)
	}
	if err := s.relations.DeleteLodestoneLookups(ctx, newer.ID); err != nil {
		return fail("delete duplicate lodestone lookups", err)
	}
	if err := s.players.DeletePlayer(ctx, newer.ID); err != nil {
		return fail("delete duplicate player", err)
	}

	// Absorb the duplicate's fresher values, keeping the older id and
	// accumulated history, then recompute derived fields under the new key.
	older.Absorb(newer)
	s.populateDerivedFields(ctx, older)

	// Carry the live flag over before membership reconciles.
	if wasCurrent {
		older.IsCurrent = true
	}

	if err := s.players.UpdatePlayer(ctx, older); err != nil {
		s.logger.Error("Merged player persisted state is stale",
			zap.Int("player_id", older.ID), zap.Error(err))
	}

	// Re-insert into the canonical store and every view it now qualifies for.
	v.cache.AddOrUpdate(older)
	v.reconcileMembership(older)

	if wasCurrent {
		s.tracker.RegisterCurrent(older)
	}

	s.events.Publish(Event{Type: EventPlayersMerged, Player: older})

	if len(payloads) == 0 {
		s.logger.Warn("Skipping empty alert for name/world change",
			zap.ByteString("older_snapshot", olderSnap),
			zap.ByteString("newer_snapshot", newerSnap))
		return nil
	}
	s.alerter.Send(payloads)
	return nil
}
