// Package repo implements the directory's storage interfaces on top of GORM.
//
// Each repository wraps the shared *gorm.DB handle. Player relations are not
// loaded through GORM associations; AllPlayersWithRelations reads the link
// tables directly and joins them in memory, which keeps the full-directory
// load to a fixed number of queries.
package repo
