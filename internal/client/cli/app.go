package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/mealplanner/internal/client/config"
	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/client/services"
	"github.com/dmitrijs2005/mealplanner/internal/client/syncer"
	"github.com/dmitrijs2005/mealplanner/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// SyncController is the part of the synchronizer the CLI drives.
type SyncController interface {
	ForceSync(ctx context.Context) (syncer.Report, error)
	Status(ctx context.Context) (models.SyncStatus, error)
}

// Connectivity feeds the prompt's online/offline mode.
type Connectivity interface {
	IsOnline() bool
	Subscribe() <-chan bool
}

type Exporter interface {
	Export(ctx context.Context) (string, error)
}

// Clearer wipes the local cache.
type Clearer interface {
	ClearAll(ctx context.Context) error
}

// Deps are the collaborators of App. Exporter may be nil when no bucket is
// configured.
type Deps struct {
	Menus    services.MenuService
	Sync     SyncController
	Conn     Connectivity
	Exporter Exporter
	Cache    Clearer
	Log      logging.Logger
}

type App struct {
	config   *config.Config
	menus    services.MenuService
	sync     SyncController
	conn     Connectivity
	exporter Exporter
	cache    Clearer
	log      logging.Logger

	reader *bufio.Reader
	out    io.Writer

	mu      sync.Mutex
	Mode    Mode
	current *models.Menu
}

func NewApp(c *config.Config, d Deps) *App {
	log := d.Log
	if log == nil {
		log = logging.Discard()
	}
	a := &App{
		config:   c,
		menus:    d.Menus,
		sync:     d.Sync,
		conn:     d.Conn,
		exporter: d.Exporter,
		cache:    d.Cache,
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		Mode:     ModeOffline,
	}
	if d.Conn != nil && d.Conn.IsOnline() {
		a.Mode = ModeOnline
	}
	return a
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Mode != mode {
		a.Mode = mode
		a.log.Info(ctx, "switched mode", "mode", mode)
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

// Run starts the connectivity watcher and blocks in the REPL until the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.conn != nil {
		go a.WatchConnectivity(ctx, a.conn.Subscribe())
	}
	a.Root(ctx)
}

// WatchConnectivity mirrors connectivity changes into the prompt mode.
func (a *App) WatchConnectivity(ctx context.Context, updates <-chan bool) {
	for {
		select {
		case online := <-updates:
			if online {
				a.setMode(ctx, ModeOnline)
			} else {
				a.setMode(ctx, ModeOffline)
			}
		case <-ctx.Done():
			return
		}
	}
}
