package repo

import "player-directory/feature/directory"

var (
	_ directory.PlayerStore      = (*PlayerRepository)(nil)
	_ directory.RelationStore    = (*RelationRepository)(nil)
	_ directory.CategoryProvider = (*CatalogRepository)(nil)
	_ directory.TagProvider      = (*CatalogRepository)(nil)
)
