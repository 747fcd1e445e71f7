package models

// VisibilityType controls whether a player is shown, hidden, or left to the
// default visibility rules.
type VisibilityType int

const (
	VisibilityDefault VisibilityType = iota
	VisibilityShow
	VisibilityHide
)

// PlayerConfig is the per-player configuration sub-record. A zero ID means no
// config row has been saved for the player.
type PlayerConfig struct {
	ID       int `json:"id"`
	PlayerID int `json:"player_id"`

	Visibility VisibilityType `json:"visibility"`
	// IsAlertEnabled overrides category-level alerting for this player.
	IsAlertEnabled bool `json:"is_alert_enabled"`

	// Overrides for derived visuals. Zero means inherit from the primary
	// category (or the defaults).
	ColorOverride     uint32 `json:"color_override"`
	IconOverride      int    `json:"icon_override"`
	NameplateColor    uint32 `json:"nameplate_color"`
	NameplateTitle    string `json:"nameplate_title"`
	UseNameplateTitle bool   `json:"use_nameplate_title"`
}

// HasSettings reports whether a config row exists for the player.
func (c PlayerConfig) HasSettings() bool { return c.ID != 0 }
