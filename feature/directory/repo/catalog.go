package repo

import (
	"context"
	"fmt"

	"player-directory/feature/directory/models"

	"gorm.io/gorm"
)

// CatalogRepository loads category and tag definitions.
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Categories returns every category definition ordered by rank.
func (r *CatalogRepository) Categories(ctx context.Context) ([]models.Category, error) {
	var rows []models.CategoryRow
	if err := r.db.WithContext(ctx).Order("rank").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	categories := make([]models.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, row.ToModel())
	}
	return categories, nil
}

// CategoryRanks returns the category id to rank mapping that drives the
// directory's sort order.
func (r *CatalogRepository) CategoryRanks(ctx context.Context) (map[int]int, error) {
	categories, err := r.Categories(ctx)
	if err != nil {
		return nil, err
	}
	ranks := make(map[int]int, len(categories))
	for _, c := range categories {
		ranks[c.ID] = c.Rank
	}
	return ranks, nil
}

// Tags returns every tag definition.
func (r *CatalogRepository) Tags(ctx context.Context) ([]models.Tag, error) {
	var rows []models.TagRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	tags := make([]models.Tag, 0, len(rows))
	for _, row := range rows {
		tags = append(tags, row.ToModel())
	}
	return tags, nil
}
