package directory

import "time"

// Config holds configuration for the player directory cache.
type Config struct {
	// RecentThresholdMinutes is how long a player stays in the recent view
	// after last contact.
	RecentThresholdMinutes int `mapstructure:"recent_threshold_minutes" default:"15"`
	// SweepIntervalSeconds is the interval of the recent-player expiry sweep.
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds" default:"30"`
	// Retention holds the keep-rules for bulk player deletion.
	Retention RetentionOptions `mapstructure:"retention"`
	// SettingsRetention holds the keep-rules for bulk player-config deletion.
	SettingsRetention RetentionOptions `mapstructure:"settings_retention"`
}

// RetentionOptions are the independently togglable keep-rules evaluated by
// the bulk deletion pass. A player is a deletion candidate only when no
// enabled rule excludes it.
type RetentionOptions struct {
	// KeepWithNotes excludes players that have notes.
	KeepWithNotes bool `mapstructure:"keep_with_notes" default:"true"`
	// KeepWithCategories excludes players with at least one assigned category.
	KeepWithCategories bool `mapstructure:"keep_with_categories" default:"true"`
	// KeepWithSettings excludes players with a saved per-player config.
	KeepWithSettings bool `mapstructure:"keep_with_settings" default:"true"`
	// KeepWithEncounters excludes players with encounter history.
	KeepWithEncounters bool `mapstructure:"keep_with_encounters" default:"true"`
	// KeepSeenWithinDays excludes players seen within this many days.
	// Zero disables the rule.
	KeepSeenWithinDays int `mapstructure:"keep_seen_within_days" default:"90"`
	// KeepLodestoneVerified excludes players with a verified lodestone id.
	KeepLodestoneVerified bool `mapstructure:"keep_lodestone_verified" default:"true"`
}

// RecentThreshold returns the recency window as a duration.
func (c Config) RecentThreshold() time.Duration {
	return time.Duration(c.RecentThresholdMinutes) * time.Minute
}

// SweepInterval returns the expiry sweep interval as a duration.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}
