// Package connectivity tracks whether the remote backend is reachable.
//
// A Monitor probes the backend on a ticker and publishes transitions to its
// subscribers. Probes are pluggable: a database ping, a gRPC health check, or
// any function.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/mealplanner/internal/logging"
)

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 3 * time.Second

// Prober checks reachability; a nil error means online.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }

type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger

	mu     sync.Mutex
	online bool
	subs   []chan bool
}

// DefaultInterval is used when NewMonitor gets a non-positive interval.
const DefaultInterval = 3 * time.Second

// NewMonitor returns a monitor that starts in the offline state.
func NewMonitor(p Prober, interval time.Duration, log logging.Logger) *Monitor {
	if log == nil {
		log = logging.Discard()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{prober: p, interval: interval, timeout: DefaultProbeTimeout, log: log}
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe returns a channel receiving the new state on every transition.
// A slow reader only ever sees the latest state.
func (m *Monitor) Subscribe() <-chan bool {
	ch := make(chan bool, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// Set records the state and notifies subscribers if it changed.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online == online {
		return
	}
	m.online = online
	mode := "offline"
	if online {
		mode = "online"
	}
	m.log.Info(context.Background(), "connectivity changed", "mode", mode)

	for _, ch := range m.subs {
		select {
		case ch <- online:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- online
		}
	}
}

// Check probes once and records the result.
func (m *Monitor) Check(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.prober.Probe(pctx)
	cancel()
	if err != nil {
		m.log.Debug(ctx, "probe failed", "err", err)
	}
	m.Set(err == nil)
	return err == nil
}

// Run checks immediately and then on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
