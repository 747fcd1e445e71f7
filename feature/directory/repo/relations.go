package repo

import (
	"context"
	"fmt"
	"time"

	"player-directory/feature/directory/models"

	"gorm.io/gorm"
)

// RelationRepository persists the dependent rows that hang off a player.
type RelationRepository struct {
	db *gorm.DB
}

// NewRelationRepository creates a new relation repository.
func NewRelationRepository(db *gorm.DB) *RelationRepository {
	return &RelationRepository{db: db}
}

// RecordNameWorldChange appends a name/world history entry for the player.
func (r *RelationRepository) RecordNameWorldChange(ctx context.Context, playerID int, name string, worldID uint32) error {
	row := models.NameWorldHistoryRow{
		PlayerID: playerID,
		Name:     name,
		WorldID:  worldID,
		Created:  time.Now().UnixMilli(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record name/world change for player %d: %w", playerID, err)
	}
	return nil
}

// RecordCustomizeChange appends an appearance history entry for the player.
func (r *RelationRepository) RecordCustomizeChange(ctx context.Context, playerID int, customize []byte) error {
	row := models.CustomizeHistoryRow{
		PlayerID:  playerID,
		Customize: customize,
		Created:   time.Now().UnixMilli(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record customize change for player %d: %w", playerID, err)
	}
	return nil
}

// ReparentNameWorldHistory re-points name/world history rows to another player.
func (r *RelationRepository) ReparentNameWorldHistory(ctx context.Context, fromID, toID int) error {
	return r.reparent(ctx, &models.NameWorldHistoryRow{}, fromID, toID)
}

// ReparentCustomizeHistory re-points customize history rows to another player.
func (r *RelationRepository) ReparentCustomizeHistory(ctx context.Context, fromID, toID int) error {
	return r.reparent(ctx, &models.CustomizeHistoryRow{}, fromID, toID)
}

// ReparentEncounters re-points encounter rows to another player.
func (r *RelationRepository) ReparentEncounters(ctx context.Context, fromID, toID int) error {
	return r.reparent(ctx, &models.EncounterRow{}, fromID, toID)
}

func (r *RelationRepository) reparent(ctx context.Context, table interface{}, fromID, toID int) error {
	err := r.db.WithContext(ctx).Model(table).
		Where("player_id = ?", fromID).
		Update("player_id", toID).Error
	if err != nil {
		return fmt.Errorf("reparent rows from player %d to %d: %w", fromID, toID, err)
	}
	return nil
}

// AssignCategory links a category to the player.
func (r *RelationRepository) AssignCategory(ctx context.Context, playerID, categoryID int) error {
	row := models.PlayerCategoryRow{PlayerID: playerID, CategoryID: categoryID}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("assign category %d to player %d: %w", categoryID, playerID, err)
	}
	return nil
}

// AssignTag links a tag to the player.
func (r *RelationRepository) AssignTag(ctx context.Context, playerID, tagID int) error {
	row := models.PlayerTagRow{PlayerID: playerID, TagID: tagID}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("assign tag %d to player %d: %w", tagID, playerID, err)
	}
	return nil
}

// DeletePlayerTag removes a single tag assignment.
func (r *RelationRepository) DeletePlayerTag(ctx context.Context, playerID, tagID int) error {
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND tag_id = ?", playerID, tagID).
		Delete(&models.PlayerTagRow{}).Error
	if err != nil {
		return fmt.Errorf("unassign tag %d from player %d: %w", tagID, playerID, err)
	}
	return nil
}

// DeletePlayerConfig removes the player's saved config.
func (r *RelationRepository) DeletePlayerConfig(ctx context.Context, playerID int) error {
	return r.deleteByPlayer(ctx, &models.PlayerConfigRow{}, playerID)
}

// DeletePlayerCategories removes every category assignment of the player.
func (r *RelationRepository) DeletePlayerCategories(ctx context.Context, playerID int) error {
	return r.deleteByPlayer(ctx, &models.PlayerCategoryRow{}, playerID)
}

// DeletePlayerTags removes every tag assignment of the player.
func (r *RelationRepository) DeletePlayerTags(ctx context.Context, playerID int) error {
	return r.deleteByPlayer(ctx, &models.PlayerTagRow{}, playerID)
}

// DeleteLodestoneLookups removes the player's lodestone lookup rows.
func (r *RelationRepository) DeleteLodestoneLookups(ctx context.Context, playerID int) error {
	return r.deleteByPlayer(ctx, &models.LodestoneLookupRow{}, playerID)
}

// DeleteNameWorldHistory removes the player's name/world history.
func (r *RelationRepository) DeleteNameWorldHistory(ctx context.Context, playerID int) error {
	return r.deleteByPlayer(ctx, &models.NameWorldHistoryRow{}, playerID)
}

// DeleteCustomizeHistory removes the player's appearance history.
func (r *RelationRepository) DeleteCustomizeHistory(ctx context.Context, playerID int) error {
	return r.deleteByPlayer(ctx, &models.CustomizeHistoryRow{}, playerID)
}

// DeleteEncounters removes the player's encounter rows.
func (r *RelationRepository) DeleteEncounters(ctx context.Context, playerID int) error {
	return r.deleteByPlayer(ctx, &models.EncounterRow{}, playerID)
}

func (r *RelationRepository) deleteByPlayer(ctx context.Context, table interface{}, playerID int) error {
	err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Delete(table).Error
	if err != nil {
		return fmt.Errorf("delete rows of player %d: %w", playerID, err)
	}
	return nil
}

// CreateLodestoneLookup queues an identity verification request for the
// player's current name and world.
func (r *RelationRepository) CreateLodestoneLookup(ctx context.Context, playerID int, name string, worldID uint32) error {
	now := time.Now().UnixMilli()
	row := models.LodestoneLookupRow{
		PlayerID: playerID,
		Name:     name,
		WorldID:  worldID,
		Status:   int(models.LodestoneUnverified),
		Created:  now,
		Updated:  now,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create lodestone lookup for player %d: %w", playerID, err)
	}
	return nil
}

// PlayersWithEncounters returns the ids of players with at least one
// encounter row.
func (r *RelationRepository) PlayersWithEncounters(ctx context.Context) (map[int]struct{}, error) {
	var ids []int
	err := r.db.WithContext(ctx).
		Model(&models.EncounterRow{}).
		Distinct("player_id").
		Pluck("player_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("load players with encounters: %w", err)
	}
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
