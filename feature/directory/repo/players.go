package repo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"player-directory/feature/directory/models"

	"gorm.io/gorm"
)

// PlayerRepository persists players and performs the full-directory load.
type PlayerRepository struct {
	db *gorm.DB
}

// NewPlayerRepository creates a new player repository.
func NewPlayerRepository(db *gorm.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// CreatePlayer inserts a new player row and returns the assigned id.
func (r *PlayerRepository) CreatePlayer(ctx context.Context, p *models.Player) (int, error) {
	row := models.NewPlayerRow(p)
	now := time.Now().UnixMilli()
	row.Created = now
	row.Updated = now
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("create player: %w", err)
	}
	return row.ID, nil
}

// UpdatePlayer writes the player's current field values.
func (r *PlayerRepository) UpdatePlayer(ctx context.Context, p *models.Player) error {
	row := models.NewPlayerRow(p)
	row.Updated = time.Now().UnixMilli()
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("update player %d: %w", p.ID, err)
	}
	return nil
}

// DeletePlayer removes the player row only. Dependent rows are the caller's
// responsibility.
func (r *PlayerRepository) DeletePlayer(ctx context.Context, id int) error {
	if err := r.db.WithContext(ctx).Delete(&models.PlayerRow{}, id).Error; err != nil {
		return fmt.Errorf("delete player %d: %w", id, err)
	}
	return nil
}

// DeletePlayersWithRelations removes the given players and every dependent
// row in one transaction.
func (r *PlayerRepository) DeletePlayersWithRelations(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		byPlayer := []interface{}{
			&models.PlayerConfigRow{},
			&models.PlayerCategoryRow{},
			&models.PlayerTagRow{},
			&models.NameWorldHistoryRow{},
			&models.CustomizeHistoryRow{},
			&models.EncounterRow{},
			&models.LodestoneLookupRow{},
		}
		for _, table := range byPlayer {
			if err := tx.Where("player_id IN ?", ids).Delete(table).Error; err != nil {
				return err
			}
		}
		return tx.Where("id IN ?", ids).Delete(&models.PlayerRow{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete %d players with relations: %w", len(ids), err)
	}
	return nil
}

// AllPlayersWithRelations loads every player together with its category and
// tag assignments and its saved config, joined in memory.
func (r *PlayerRepository) AllPlayersWithRelations(ctx context.Context) ([]*models.Player, error) {
	db := r.db.WithContext(ctx)

	var playerRows []models.PlayerRow
	if err := db.Find(&playerRows).Error; err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	var categoryRows []models.CategoryRow
	if err := db.Find(&categoryRows).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	var tagRows []models.TagRow
	if err := db.Find(&tagRows).Error; err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	var categoryLinks []models.PlayerCategoryRow
	if err := db.Find(&categoryLinks).Error; err != nil {
		return nil, fmt.Errorf("load category assignments: %w", err)
	}
	var tagLinks []models.PlayerTagRow
	if err := db.Find(&tagLinks).Error; err != nil {
		return nil, fmt.Errorf("load tag assignments: %w", err)
	}
	var configRows []models.PlayerConfigRow
	if err := db.Find(&configRows).Error; err != nil {
		return nil, fmt.Errorf("load player configs: %w", err)
	}

	categories := make(map[int]models.Category, len(categoryRows))
	for _, row := range categoryRows {
		categories[row.ID] = row.ToModel()
	}
	tags := make(map[int]models.Tag, len(tagRows))
	for _, row := range tagRows {
		tags[row.ID] = row.ToModel()
	}

	players := make([]*models.Player, 0, len(playerRows))
	byID := make(map[int]*models.Player, len(playerRows))
	for _, row := range playerRows {
		p := row.ToModel()
		players = append(players, p)
		byID[p.ID] = p
	}

	for _, link := range categoryLinks {
		p, ok := byID[link.PlayerID]
		if !ok {
			continue
		}
		// Assignments pointing at deleted category definitions are dropped;
		// a later save will clean the orphaned link row up.
		if c, ok := categories[link.CategoryID]; ok {
			p.AssignedCategories = append(p.AssignedCategories, c)
		}
	}
	for _, link := range tagLinks {
		p, ok := byID[link.PlayerID]
		if !ok {
			continue
		}
		if t, ok := tags[link.TagID]; ok {
			p.AssignedTags = append(p.AssignedTags, t)
		}
	}
	for _, row := range configRows {
		if p, ok := byID[row.PlayerID]; ok {
			p.PlayerConfig = row.ToModel()
		}
	}

	for _, p := range players {
		sort.Slice(p.AssignedCategories, func(i, j int) bool {
			return p.AssignedCategories[i].ID < p.AssignedCategories[j].ID
		})
		sort.Slice(p.AssignedTags, func(i, j int) bool {
			return p.AssignedTags[i].ID < p.AssignedTags[j].ID
		})
	}
	return players, nil
}
