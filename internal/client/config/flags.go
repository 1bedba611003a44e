package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/mealplanner/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   local database file
//	-r string   remote Postgres DSN
//	-h string   gRPC health endpoint host:port
//	-i int      online check interval (in seconds)
//	-s int      sync interval (in seconds)
//
// os.Args is filtered with flagx.FilterArgs so flags owned by other loaders
// (-c, -e) do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-r", "-h", "-i", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database file")
	fs.StringVar(&cfg.RemoteDSN, "r", cfg.RemoteDSN, "remote database DSN")
	fs.StringVar(&cfg.HealthEndpoint, "h", cfg.HealthEndpoint, "gRPC health endpoint")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	syncInterval := fs.Int("s", int(cfg.SyncInterval.Seconds()), "sync interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// intervals from JSON or env may be sub-second; only flags given
	// explicitly replace them
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		case "s":
			cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
		}
	})
}
