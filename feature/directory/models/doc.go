// Package models holds the player directory data model: the Player record
// with its transient runtime flags and derived fields, category and tag
// definitions, the per-player configuration sub-record, and the database row
// types the repository layer maps them to.
package models
