package models

import "time"

// Database rows for the directory tables. Timestamps are stored as unix
// milliseconds to keep the schema driver-agnostic.

// PlayerRow represents the 'players' table.
type PlayerRow struct {
	ID                  int    `gorm:"column:id;primaryKey;autoIncrement"`
	Key                 string `gorm:"column:key"`
	ObjectID            uint32 `gorm:"column:object_id"`
	Name                string `gorm:"column:name"`
	WorldID             uint32 `gorm:"column:world_id"`
	FreeCompanyTag      string `gorm:"column:free_company_tag"`
	Customize           []byte `gorm:"column:customize"`
	LastSeen            int64  `gorm:"column:last_seen"`
	SeenCount           int    `gorm:"column:seen_count"`
	Notes               string `gorm:"column:notes"`
	LodestoneID         uint32 `gorm:"column:lodestone_id"`
	LodestoneStatus     int    `gorm:"column:lodestone_status"`
	LodestoneVerifiedOn int64  `gorm:"column:lodestone_verified_on"`
	Created             int64  `gorm:"column:created"`
	Updated             int64  `gorm:"column:updated"`
}

// TableName overrides the table name.
func (PlayerRow) TableName() string { return "players" }

// ToModel converts the row to a Player without relations.
func (r PlayerRow) ToModel() *Player {
	return &Player{
		ID:                  r.ID,
		Key:                 r.Key,
		ObjectID:            r.ObjectID,
		Name:                r.Name,
		WorldID:             r.WorldID,
		FreeCompanyTag:      r.FreeCompanyTag,
		Customize:           r.Customize,
		LastSeen:            time.UnixMilli(r.LastSeen),
		SeenCount:           r.SeenCount,
		Notes:               r.Notes,
		LodestoneID:         r.LodestoneID,
		LodestoneStatus:     LodestoneStatus(r.LodestoneStatus),
		LodestoneVerifiedOn: time.UnixMilli(r.LodestoneVerifiedOn),
		Created:             time.UnixMilli(r.Created),
		Updated:             time.UnixMilli(r.Updated),
	}
}

// NewPlayerRow converts a Player to its row form. Transient and derived
// fields are intentionally not represented in the schema.
func NewPlayerRow(p *Player) PlayerRow {
	return PlayerRow{
		ID:                  p.ID,
		Key:                 p.Key,
		ObjectID:            p.ObjectID,
		Name:                p.Name,
		WorldID:             p.WorldID,
		FreeCompanyTag:      p.FreeCompanyTag,
		Customize:           p.Customize,
		LastSeen:            p.LastSeen.UnixMilli(),
		SeenCount:           p.SeenCount,
		Notes:               p.Notes,
		LodestoneID:         p.LodestoneID,
		LodestoneStatus:     int(p.LodestoneStatus),
		LodestoneVerifiedOn: p.LodestoneVerifiedOn.UnixMilli(),
		Created:             p.Created.UnixMilli(),
		Updated:             p.Updated.UnixMilli(),
	}
}

// CategoryRow represents the 'categories' table.
type CategoryRow struct {
	ID             int    `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string `gorm:"column:name"`
	Icon           int    `gorm:"column:icon"`
	ListColor      uint32 `gorm:"column:list_color"`
	NameplateColor uint32 `gorm:"column:nameplate_color"`
	IsAlertEnabled bool   `gorm:"column:is_alert_enabled"`
	IsDefault      bool   `gorm:"column:is_default"`
	Rank           int    `gorm:"column:rank"`
}

// TableName overrides the table name.
func (CategoryRow) TableName() string { return "categories" }

// ToModel converts the row to a Category.
func (r CategoryRow) ToModel() Category {
	return Category{
		ID:             r.ID,
		Name:           r.Name,
		Icon:           r.Icon,
		ListColor:      r.ListColor,
		NameplateColor: r.NameplateColor,
		IsAlertEnabled: r.IsAlertEnabled,
		IsDefault:      r.IsDefault,
		Rank:           r.Rank,
	}
}

// TagRow represents the 'tags' table.
type TagRow struct {
	ID    int    `gorm:"column:id;primaryKey;autoIncrement"`
	Name  string `gorm:"column:name"`
	Color uint32 `gorm:"column:color"`
}

// TableName overrides the table name.
func (TagRow) TableName() string { return "tags" }

// ToModel converts the row to a Tag.
func (r TagRow) ToModel() Tag {
	return Tag{ID: r.ID, Name: r.Name, Color: r.Color}
}

// PlayerCategoryRow represents the 'player_categories' link table.
type PlayerCategoryRow struct {
	ID         int `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID   int `gorm:"column:player_id"`
	CategoryID int `gorm:"column:category_id"`
}

// TableName overrides the table name.
func (PlayerCategoryRow) TableName() string { return "player_categories" }

// PlayerTagRow represents the 'player_tags' link table.
type PlayerTagRow struct {
	ID       int `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID int `gorm:"column:player_id"`
	TagID    int `gorm:"column:tag_id"`
}

// TableName overrides the table name.
func (PlayerTagRow) TableName() string { return "player_tags" }

// PlayerConfigRow represents the 'player_config' table.
type PlayerConfigRow struct {
	ID                int    `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID          int    `gorm:"column:player_id"`
	Visibility        int    `gorm:"column:visibility"`
	IsAlertEnabled    bool   `gorm:"column:is_alert_enabled"`
	ColorOverride     uint32 `gorm:"column:color_override"`
	IconOverride      int    `gorm:"column:icon_override"`
	NameplateColor    uint32 `gorm:"column:nameplate_color"`
	NameplateTitle    string `gorm:"column:nameplate_title"`
	UseNameplateTitle bool   `gorm:"column:use_nameplate_title"`
}

// TableName overrides the table name.
func (PlayerConfigRow) TableName() string { return "player_config" }

// ToModel converts the row to a PlayerConfig.
func (r PlayerConfigRow) ToModel() PlayerConfig {
	return PlayerConfig{
		ID:                r.ID,
		PlayerID:          r.PlayerID,
		Visibility:        VisibilityType(r.Visibility),
		IsAlertEnabled:    r.IsAlertEnabled,
		ColorOverride:     r.ColorOverride,
		IconOverride:      r.IconOverride,
		NameplateColor:    r.NameplateColor,
		NameplateTitle:    r.NameplateTitle,
		UseNameplateTitle: r.UseNameplateTitle,
	}
}

// NewPlayerConfigRow converts a PlayerConfig to its row form.
func NewPlayerConfigRow(c PlayerConfig) PlayerConfigRow {
	return PlayerConfigRow{
		ID:                c.ID,
		PlayerID:          c.PlayerID,
		Visibility:        int(c.Visibility),
		IsAlertEnabled:    c.IsAlertEnabled,
		ColorOverride:     c.ColorOverride,
		IconOverride:      c.IconOverride,
		NameplateColor:    c.NameplateColor,
		NameplateTitle:    c.NameplateTitle,
		UseNameplateTitle: c.UseNameplateTitle,
	}
}

// NameWorldHistoryRow represents the 'player_name_world_histories' table,
// one row per observed name/world a player has held.
type NameWorldHistoryRow struct {
	ID       int    `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID int    `gorm:"column:player_id"`
	Name     string `gorm:"column:name"`
	WorldID  uint32 `gorm:"column:world_id"`
	Created  int64  `gorm:"column:created"`
}

// TableName overrides the table name.
func (NameWorldHistoryRow) TableName() string { return "player_name_world_histories" }

// CustomizeHistoryRow represents the 'player_customize_histories' table.
type CustomizeHistoryRow struct {
	ID        int    `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID  int    `gorm:"column:player_id"`
	Customize []byte `gorm:"column:customize"`
	Created   int64  `gorm:"column:created"`
}

// TableName overrides the table name.
func (CustomizeHistoryRow) TableName() string { return "player_customize_histories" }

// EncounterRow represents the 'player_encounters' table.
type EncounterRow struct {
	ID            int    `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID      int    `gorm:"column:player_id"`
	TerritoryType uint16 `gorm:"column:territory_type"`
	Created       int64  `gorm:"column:created"`
	Ended         int64  `gorm:"column:ended"`
}

// TableName overrides the table name.
func (EncounterRow) TableName() string { return "player_encounters" }

// LodestoneLookupRow represents the 'lodestone_lookups' table.
type LodestoneLookupRow struct {
	ID          int    `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID    int    `gorm:"column:player_id"`
	Name        string `gorm:"column:name"`
	WorldID     uint32 `gorm:"column:world_id"`
	LodestoneID uint32 `gorm:"column:lodestone_id"`
	Status      int    `gorm:"column:status"`
	Created     int64  `gorm:"column:created"`
	Updated     int64  `gorm:"column:updated"`
}

// TableName overrides the table name.
func (LodestoneLookupRow) TableName() string { return "lodestone_lookups" }
