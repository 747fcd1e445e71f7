// Package database manages the connection to the relational store that holds
// player records and their relations (tags, categories, per-player config,
// name/world history, encounters, lodestone lookups).
//
// The package only opens and configures the connection; all queries live in
// the repository layer (feature/directory/repo).
package database
