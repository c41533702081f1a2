package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/narratlas/narratlas/internal/flagx"
	"github.com/narratlas/narratlas/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds.
type JsonConfig struct {
	ServerURL           string         `json:"server_url"`
	DBPath              string         `json:"db_path"`
	SessionDir          string         `json:"session_dir"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	CacheSweepInterval  timex.Duration `json:"cache_sweep_interval"`
}

// parseJson overlays cfg with values loaded from the JSON file named by the
// -c/-config flag. Without the flag nothing is loaded. Read or unmarshal
// errors panic; the call happens once at startup where a bad config file
// should stop the program.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.DBPath != "" {
		cfg.DBPath = jc.DBPath
	}
	if jc.SessionDir != "" {
		cfg.SessionDir = jc.SessionDir
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.CacheSweepInterval.Duration > 0 {
		cfg.CacheSweepInterval = time.Duration(jc.CacheSweepInterval.Duration)
	}
}
