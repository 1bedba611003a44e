package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/mealplanner/internal/flagx"
)

const envPrefix = "MEALPLANNER_"

// parseEnv overlays cfg with MEALPLANNER_* variables. Values from the
// dotenv file named by -e or -env (default .env, optional) are used when
// the process environment does not set them. It panics on malformed
// values.
func parseEnv(cfg *Config) {
	file := flagx.EnvFileFlags()
	explicit := file != ""
	if !explicit {
		file = ".env"
	}

	fileVars, err := godotenv.Read(file)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
		fileVars = map[string]string{}
	}

	applyEnv(cfg, func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	})
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(dst *string, name string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(dst *time.Duration, name string) {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return
		}
		d, err := parseSeconds(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", envPrefix, name, err))
		}
		*dst = d
	}

	str(&cfg.DatabasePath, "DB_PATH")
	str(&cfg.RemoteDSN, "REMOTE_DSN")
	str(&cfg.HealthEndpoint, "HEALTH_ENDPOINT")
	dur(&cfg.OnlineCheckInterval, "ONLINE_CHECK_INTERVAL")
	dur(&cfg.SyncInterval, "SYNC_INTERVAL")
	if v, ok := lookup(envPrefix + "MAX_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("%sMAX_RETRIES: %w", envPrefix, err))
		}
		cfg.MaxRetries = n
	}
	str(&cfg.BaseURL, "BASE_URL")
	str(&cfg.ExportBucket, "EXPORT_BUCKET")
	str(&cfg.ExportRegion, "EXPORT_REGION")
	str(&cfg.ExportEndpoint, "EXPORT_ENDPOINT")
	str(&cfg.ExportAccessKey, "EXPORT_ACCESS_KEY")
	str(&cfg.ExportSecretKey, "EXPORT_SECRET_KEY")
	str(&cfg.LogLevel, "LOG_LEVEL")
}

// parseSeconds accepts "30s"-style durations and plain seconds.
func parseSeconds(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}
