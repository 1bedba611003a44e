package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/mealplanner/internal/buildinfo"
	"github.com/dmitrijs2005/mealplanner/internal/client/cache"
	"github.com/dmitrijs2005/mealplanner/internal/client/cli"
	"github.com/dmitrijs2005/mealplanner/internal/client/config"
	"github.com/dmitrijs2005/mealplanner/internal/client/connectivity"
	"github.com/dmitrijs2005/mealplanner/internal/client/export"
	"github.com/dmitrijs2005/mealplanner/internal/client/localstore"
	"github.com/dmitrijs2005/mealplanner/internal/client/remote"
	"github.com/dmitrijs2005/mealplanner/internal/client/remote/postgres"
	"github.com/dmitrijs2005/mealplanner/internal/client/services"
	"github.com/dmitrijs2005/mealplanner/internal/client/syncer"
	"github.com/dmitrijs2005/mealplanner/internal/filex"
	"github.com/dmitrijs2005/mealplanner/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	log := logging.NewTextLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	store := openStore(ctx, cfg.DatabasePath, log)
	if store != nil {
		defer store.Close()
	}
	c := cache.New(store, cache.WithLogger(log.With("component", "cache")))

	var (
		rs     remote.Service = remote.Unavailable{}
		probes []connectivity.Prober
	)
	if cfg.RemoteDSN != "" {
		pg, err := postgres.Open(cfg.RemoteDSN)
		if err != nil {
			return fmt.Errorf("open remote: %w", err)
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			log.Warn(ctx, "remote schema not migrated", "err", err)
		}
		rs = pg
		probes = append(probes, connectivity.SQLPing(pg))
	} else {
		log.Warn(ctx, "no remote configured, running offline")
		probes = append(probes, connectivity.SQLPing(remote.Unavailable{}))
	}
	if cfg.HealthEndpoint != "" {
		conn, err := connectivity.DialHealth(cfg.HealthEndpoint)
		if err != nil {
			return err
		}
		defer conn.Close()
		probes = append(probes, connectivity.GRPCHealth(conn, ""))
	}

	monitor := connectivity.NewMonitor(connectivity.All(probes...), cfg.OnlineCheckInterval, log.With("component", "connectivity"))
	monitor.Check(ctx)
	go monitor.Run(ctx)

	sy := syncer.New(c, rs, monitor,
		syncer.WithInterval(cfg.SyncInterval),
		syncer.WithMaxRetries(cfg.MaxRetries),
		syncer.WithLogger(log.With("component", "syncer")),
	)
	if err := sy.Init(ctx); err != nil {
		return err
	}
	defer sy.Close()

	deps := cli.Deps{
		Menus: services.NewMenuService(rs, c, monitor, log.With("component", "services")),
		Sync:  sy,
		Conn:  monitor,
		Cache: c,
		Log:   log,
	}
	if cfg.ExportBucket != "" {
		s3c, err := export.NewS3Client(ctx, export.S3Config{
			Region:    cfg.ExportRegion,
			Bucket:    cfg.ExportBucket,
			Endpoint:  cfg.ExportEndpoint,
			AccessKey: cfg.ExportAccessKey,
			SecretKey: cfg.ExportSecretKey,
		})
		if err != nil {
			log.Warn(ctx, "export disabled", "err", err)
		} else {
			deps.Exporter = export.New(c, s3c, cfg.ExportBucket, log.With("component", "export"))
		}
	}

	cli.NewApp(cfg, deps).Run(ctx)
	return nil
}

// openStore opens the local store. On failure the client keeps running
// without a cache and nil is returned.
func openStore(ctx context.Context, path string, log logging.Logger) *localstore.Store {
	dsn, err := filex.EnsureDBDir(path)
	if err == nil {
		var store *localstore.Store
		if store, err = localstore.Open(ctx, dsn); err == nil {
			log.Debug(ctx, "local store ready", "path", dsn, "schema_version", store.SchemaVersion())
			return store
		}
	}
	if !errors.Is(err, context.Canceled) {
		log.Warn(ctx, "local storage unavailable, running network-only", "path", path, "err", err)
	}
	return nil
}
