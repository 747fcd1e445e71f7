package directory

import (
	"context"
	"fmt"
	"strings"

	"player-directory/feature/directory/models"
)

// ViewKind selects one of the directory's index views.
type ViewKind string

const (
	ViewAll      ViewKind = "all"
	ViewCurrent  ViewKind = "current"
	ViewRecent   ViewKind = "recent"
	ViewCategory ViewKind = "category"
	ViewTag      ViewKind = "tag"
)

// View identifies a queryable view. BucketID is only meaningful for the
// category and tag kinds; bucket 0 is the reserved "none" bucket.
type View struct {
	Kind     ViewKind
	BucketID int
}

// ParseViewKind validates a view selector string.
func ParseViewKind(s string) (ViewKind, error) {
	switch kind := ViewKind(strings.ToLower(s)); kind {
	case ViewAll, ViewCurrent, ViewRecent, ViewCategory, ViewTag:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidView, s)
	}
}

// MatchMode selects how a name filter is applied. Matching is always
// case-insensitive.
type MatchMode string

const (
	MatchContains   MatchMode = "contains"
	MatchStartsWith MatchMode = "starts_with"
	MatchExact      MatchMode = "exact"
)

// NameFilter builds a predicate for the given name and mode. An empty name
// matches everything.
func NameFilter(name string, mode MatchMode) (func(*models.Player) bool, error) {
	if name == "" {
		return func(*models.Player) bool { return true }, nil
	}

	needle := strings.ToLower(name)
	switch mode {
	case MatchContains:
		return func(p *models.Player) bool {
			return strings.Contains(strings.ToLower(p.Name), needle)
		}, nil
	case MatchStartsWith:
		return func(p *models.Player) bool {
			return strings.HasPrefix(strings.ToLower(p.Name), needle)
		}, nil
	case MatchExact:
		return func(p *models.Player) bool {
			return strings.EqualFold(p.Name, name)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMatchMode, mode)
	}
}

// EventType classifies directory change notifications.
type EventType string

const (
	EventPlayerAdded   EventType = "player_added"
	EventPlayerUpdated EventType = "player_updated"
	EventPlayersMerged EventType = "players_merged"
)

// Event is delivered synchronously, on the mutating goroutine, after a
// successful directory mutation. Listeners must not assume a particular
// thread.
type Event struct {
	Type   EventType
	Player *models.Player
}

// PlayerStore is the repository for the players table. Every call is
// synchronous and independently failable.
type PlayerStore interface {
	// CreatePlayer persists a new player and returns the assigned id.
	CreatePlayer(ctx context.Context, p *models.Player) (int, error)
	// UpdatePlayer persists the player's current field values.
	UpdatePlayer(ctx context.Context, p *models.Player) error
	// DeletePlayer removes the player row.
	DeletePlayer(ctx context.Context, id int) error
	// DeletePlayersWithRelations removes the given players and all their
	// dependent rows in one batch.
	DeletePlayersWithRelations(ctx context.Context, ids []int) error
	// AllPlayersWithRelations loads every player with assignments and config.
	AllPlayersWithRelations(ctx context.Context) ([]*models.Player, error)
}

// RelationStore covers the dependent relation tables that hang off a player:
// name/world history, customize history, encounters, per-player config,
// category/tag assignments and lodestone lookups.
type RelationStore interface {
	RecordNameWorldChange(ctx context.Context, playerID int, name string, worldID uint32) error
	RecordCustomizeChange(ctx context.Context, playerID int, customize []byte) error

	// Reparent* re-point dependent rows from one player id to another. Used
	// by the merge engine before the duplicate id is deleted.
	ReparentNameWorldHistory(ctx context.Context, fromID, toID int) error
	ReparentCustomizeHistory(ctx context.Context, fromID, toID int) error
	ReparentEncounters(ctx context.Context, fromID, toID int) error

	AssignCategory(ctx context.Context, playerID, categoryID int) error
	AssignTag(ctx context.Context, playerID, tagID int) error
	DeletePlayerTag(ctx context.Context, playerID, tagID int) error

	DeletePlayerConfig(ctx context.Context, playerID int) error
	DeletePlayerCategories(ctx context.Context, playerID int) error
	DeletePlayerTags(ctx context.Context, playerID int) error
	DeleteLodestoneLookups(ctx context.Context, playerID int) error
	DeleteNameWorldHistory(ctx context.Context, playerID int) error
	DeleteCustomizeHistory(ctx context.Context, playerID int) error
	DeleteEncounters(ctx context.Context, playerID int) error

	CreateLodestoneLookup(ctx context.Context, playerID int, name string, worldID uint32) error

	// PlayersWithEncounters returns the set of player ids that have at least
	// one encounter row. Used by the retention keep-rules.
	PlayersWithEncounters(ctx context.Context) (map[int]struct{}, error)
}

// CategoryProvider supplies live category definitions and the rank mapping.
// The directory never caches these; it always asks for the latest.
type CategoryProvider interface {
	CategoryRanks(ctx context.Context) (map[int]int, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// TagProvider supplies the live set of tag definitions.
type TagProvider interface {
	Tags(ctx context.Context) ([]models.Tag, error)
}

// ProcessTracker is the live game-session watcher. The directory informs it
// when a merged identity's live handle must be re-pointed to the canonical
// record.
type ProcessTracker interface {
	RemoveCurrent(objectID uint32)
	RegisterCurrent(p *models.Player)
}

// AlertPayload is one rendered name/world-change alert.
type AlertPayload struct {
	PlayerID int
	Message  string
}

// Alerter builds and delivers name/world-change alerts.
type Alerter interface {
	// NameWorldChangeAlert returns the payloads describing how newer differs
	// from older, or an empty slice when nothing changed.
	NameWorldChangeAlert(older, newer *models.Player) []AlertPayload
	Send(payloads []AlertPayload)
}
