package models

// Category groups players. Rank drives sort order: a lower rank number sorts
// first, and the lowest-ranked assigned category is the player's primary one.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	// Icon is the list-view icon identifier.
	Icon int `json:"icon"`
	// ListColor is the list-view color, as a UI color id. Zero means unset.
	ListColor uint32 `json:"list_color"`
	// NameplateColor is the nameplate color id. Zero means unset.
	NameplateColor uint32 `json:"nameplate_color"`
	// IsAlertEnabled enables proximity/name-change alerts for members.
	IsAlertEnabled bool `json:"is_alert_enabled"`
	// IsDefault marks the category auto-assigned to new players.
	IsDefault bool `json:"is_default"`
	// Rank is the category's priority for sorting. Lower ranks first.
	Rank int `json:"rank"`
}

// Tag is a free-form label assigned to players.
type Tag struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color uint32 `json:"color"`
}

// BucketNone is the reserved bucket id for players with no assigned
// categories (or tags, for the tag views).
const BucketNone = 0
