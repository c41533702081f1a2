// Package config holds runtime settings for the Narratlas CLI.
package config

import "time"

// Config holds runtime settings for the Narratlas client.
//
// Fields:
//   - ServerURL: base URL of the story API, including the version prefix.
//   - DBPath: path of the local SQLite database file.
//   - SessionDir: directory holding the token and user identity files.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - CacheSweepInterval: how often the background worker evicts expired
//     cached responses.
type Config struct {
	ServerURL           string
	DBPath              string
	SessionDir          string
	OnlineCheckInterval time.Duration
	CacheSweepInterval  time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080/v1"
	c.DBPath = "narratlas.db"
	c.SessionDir = ""
	c.OnlineCheckInterval = 3 * time.Second
	c.CacheSweepInterval = 5 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
