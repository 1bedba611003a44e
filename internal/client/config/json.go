package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mealplanner/internal/flagx"
	"github.com/dmitrijs2005/mealplanner/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals
// are timex.Duration so the file may say "3s" or give nanoseconds. Absent
// fields leave the current value untouched.
type JsonConfig struct {
	DatabasePath        *string         `json:"database_path"`
	RemoteDSN           *string         `json:"remote_dsn"`
	HealthEndpoint      *string         `json:"health_endpoint"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	SyncInterval        *timex.Duration `json:"sync_interval"`
	MaxRetries          *int            `json:"max_retries"`
	BaseURL             *string         `json:"base_url"`
	ExportBucket        *string         `json:"export_bucket"`
	ExportRegion        *string         `json:"export_region"`
	ExportEndpoint      *string         `json:"export_endpoint"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson overlays cfg with the JSON file named by -c or -config. It
// panics on read or unmarshal errors.
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

	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.RemoteDSN, jc.RemoteDSN)
	setString(&cfg.HealthEndpoint, jc.HealthEndpoint)
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.SyncInterval != nil {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.MaxRetries != nil {
		cfg.MaxRetries = *jc.MaxRetries
	}
	setString(&cfg.BaseURL, jc.BaseURL)
	setString(&cfg.ExportBucket, jc.ExportBucket)
	setString(&cfg.ExportRegion, jc.ExportRegion)
	setString(&cfg.ExportEndpoint, jc.ExportEndpoint)
	setString(&cfg.LogLevel, jc.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
