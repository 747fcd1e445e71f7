package models

import (
	"fmt"
	"strings"
	"time"
)

// LodestoneStatus is the identity-verification state of a player.
type LodestoneStatus int

const (
	// LodestoneUnverified means no lookup has completed yet.
	LodestoneUnverified LodestoneStatus = iota
	// LodestoneVerifying means a lookup is in flight.
	LodestoneVerifying
	// LodestoneVerified means the player's lodestone id is confirmed.
	LodestoneVerified
	// LodestoneFailed means the lookup gave up.
	LodestoneFailed
)

// Player is a tracked player character. A Player referenced by a derived view
// is the same logical entity as in the canonical store; views hold the same
// pointer, never a copy.
type Player struct {
	// ID is the stable integer id assigned by storage on first creation.
	ID int `json:"id"`
	// Key is the identity key derived from name and home world, unique among
	// live players. Only the merge engine may reassign a key to another id.
	Key string `json:"key"`
	// ObjectID is the live in-game object handle, valid only while current.
	ObjectID uint32 `json:"object_id"`

	Name           string `json:"name"`
	WorldID        uint32 `json:"world_id"`
	FreeCompanyTag string `json:"free_company_tag"`
	Customize      []byte `json:"customize,omitempty"`

	LastSeen  time.Time `json:"last_seen"`
	SeenCount int       `json:"seen_count"`
	Notes     string    `json:"notes"`

	LodestoneID         uint32          `json:"lodestone_id"`
	LodestoneStatus     LodestoneStatus `json:"lodestone_status"`
	LodestoneVerifiedOn time.Time       `json:"lodestone_verified_on"`

	AssignedCategories []Category   `json:"assigned_categories"`
	AssignedTags       []Tag        `json:"assigned_tags"`
	PlayerConfig       PlayerConfig `json:"player_config"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`

	// Transient runtime flags. Never persisted; re-derived at load time and
	// maintained only in memory.
	IsCurrent bool `json:"is_current"`
	IsRecent  bool `json:"is_recent"`

	// Derived fields, recomputed on every mutation. PrimaryCategoryID is the
	// highest-ranked assigned category and is never an independent source of
	// truth.
	PrimaryCategoryID int    `json:"primary_category_id"`
	ListColor         uint32 `json:"list_color"`
	ListIcon          string `json:"list_icon"`
	Nameplate         string `json:"nameplate"`
}

// ItemKey implements sortedview.Item.
func (p *Player) ItemKey() string { return p.Key }

// HasCategory reports whether the category is assigned to the player.
func (p *Player) HasCategory(categoryID int) bool {
	for _, c := range p.AssignedCategories {
		if c.ID == categoryID {
			return true
		}
	}
	return false
}

// HasTag reports whether the tag is assigned to the player.
func (p *Player) HasTag(tagID int) bool {
	for _, t := range p.AssignedTags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// RemoveCategory removes the category assignment if present.
func (p *Player) RemoveCategory(categoryID int) {
	out := p.AssignedCategories[:0]
	for _, c := range p.AssignedCategories {
		if c.ID != categoryID {
			out = append(out, c)
		}
	}
	p.AssignedCategories = out
}

// RemoveTag removes the tag assignment if present.
func (p *Player) RemoveTag(tagID int) {
	out := p.AssignedTags[:0]
	for _, t := range p.AssignedTags {
		if t.ID != tagID {
			out = append(out, t)
		}
	}
	p.AssignedTags = out
}

// Absorb copies the duplicate's more-recent values onto p while preserving
// p's id and accumulated history. The duplicate's key becomes p's key, which
// is the only sanctioned path to re-keying a player.
func (p *Player) Absorb(dup *Player) {
	p.Key = dup.Key
	p.Name = dup.Name
	p.WorldID = dup.WorldID
	p.ObjectID = dup.ObjectID
	p.FreeCompanyTag = dup.FreeCompanyTag
	if len(dup.Customize) > 0 {
		p.Customize = dup.Customize
	}
	if dup.LastSeen.After(p.LastSeen) {
		p.LastSeen = dup.LastSeen
	}
	p.SeenCount += dup.SeenCount
	if p.LodestoneStatus != LodestoneVerified && dup.LodestoneStatus == LodestoneVerified {
		p.LodestoneID = dup.LodestoneID
		p.LodestoneStatus = dup.LodestoneStatus
		p.LodestoneVerifiedOn = dup.LodestoneVerifiedOn
	}
	if p.Notes == "" {
		p.Notes = dup.Notes
	}
}

// BuildPlayerKey derives the identity key from a character name and home
// world id. The name is whitespace-normalized and upper-cased so the key is
// case-insensitive and deterministic: "Aiden Gale", 73 -> "AIDEN_GALE_73".
func BuildPlayerKey(name string, worldID uint32) string {
	normalized := strings.Join(strings.Fields(strings.TrimSpace(name)), "_")
	return fmt.Sprintf("%s_%d", strings.ToUpper(normalized), worldID)
}
