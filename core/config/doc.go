// Package config aggregates all partial configurations of the application.
//
// Configuration is loaded from environment variables, optionally seeded by a
// .env file. Defaults are declared as struct tags on the partial Config
// structs (server, database, storage, log, directory) and bound into Viper by
// reflection, so every key is overridable through the environment, e.g.
// DIRECTORY_RECENT_THRESHOLD_MINUTES=30.
package config
