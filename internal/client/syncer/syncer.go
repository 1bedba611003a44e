package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/mealplanner/internal/client/cache"
	"github.com/dmitrijs2005/mealplanner/internal/client/models"
	"github.com/dmitrijs2005/mealplanner/internal/client/remote"
	"github.com/dmitrijs2005/mealplanner/internal/common"
	"github.com/dmitrijs2005/mealplanner/internal/logging"
)

// Connectivity is the online signal the synchronizer follows.
type Connectivity interface {
	IsOnline() bool
	Subscribe() <-chan bool
}

const (
	DefaultInterval   = 30 * time.Second
	defaultBackoff    = 5 * time.Second
	defaultBackoffCap = 5 * time.Minute
)

// Report summarizes one drain.
type Report struct {
	Processed int
	Resolved  int
	Retried   int
	Abandoned int
	// Deferred items waited for the creation of the menu they reference.
	Deferred    int
	Interrupted bool
}

type Synchronizer struct {
	cache  *cache.Cache
	remote remote.Service
	conn   Connectivity
	log    logging.Logger

	interval   time.Duration
	maxRetries int
	now        func() time.Time
	newBackoff func() retry.Backoff

	running atomic.Bool

	mu          sync.Mutex
	backoff     retry.Backoff
	nextAttempt time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Synchronizer)

func WithInterval(d time.Duration) Option {
	return func(s *Synchronizer) { s.interval = d }
}

func WithMaxRetries(n int) Option {
	return func(s *Synchronizer) { s.maxRetries = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Synchronizer) { s.log = l }
}

// WithBackoff sets the factory of the delay schedule applied between
// periodic drains that left failed items behind.
func WithBackoff(f func() retry.Backoff) Option {
	return func(s *Synchronizer) { s.newBackoff = f }
}

// DefaultBackoff doubles from 5s up to 5m with 10% jitter.
func DefaultBackoff() retry.Backoff {
	b := retry.NewExponential(defaultBackoff)
	b = retry.WithCappedDuration(defaultBackoffCap, b)
	return retry.WithJitterPercent(10, b)
}

func New(c *cache.Cache, r remote.Service, conn Connectivity, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		cache:      c,
		remote:     r,
		conn:       conn,
		log:        logging.Discard(),
		interval:   DefaultInterval,
		maxRetries: common.MaxSyncRetries,
		now:        time.Now,
		newBackoff: DefaultBackoff,
	}
	for _, o := range opts {
		o(s)
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.maxRetries < 1 {
		s.maxRetries = common.MaxSyncRetries
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	s.backoff = s.newBackoff()
	return s
}

// Init starts the background loop. It drains immediately when online.
func (s *Synchronizer) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("synchronizer already started")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	updates := s.conn.Subscribe()

	s.wg.Add(1)
	go s.loop(loopCtx, updates)
	return nil
}

// Close stops the background loop and waits for a running drain.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Synchronizer) loop(ctx context.Context, updates <-chan bool) {
	defer s.wg.Done()

	if s.conn.IsOnline() {
		s.trigger(ctx, "start")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case online := <-updates:
			if online {
				s.trigger(ctx, "online")
			}
		case <-ticker.C:
			if s.conn.IsOnline() && s.due() {
				s.trigger(ctx, "tick")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Synchronizer) due() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.now().Before(s.nextAttempt)
}

func (s *Synchronizer) trigger(ctx context.Context, reason string) {
	rep, ran := s.Drain(ctx)
	if !ran {
		s.log.Debug(ctx, "sync already running, trigger dropped", "reason", reason)
		return
	}
	s.log.Debug(ctx, "sync finished", "reason", reason,
		"processed", rep.Processed, "resolved", rep.Resolved, "retried", rep.Retried,
		"abandoned", rep.Abandoned, "interrupted", rep.Interrupted)
}

// ForceSync drains now. It fails with common.ErrOffline when offline and
// returns an empty report when a drain is already running.
func (s *Synchronizer) ForceSync(ctx context.Context) (Report, error) {
	if !s.conn.IsOnline() {
		return Report{}, common.ErrOffline
	}
	rep, _ := s.Drain(ctx)
	return rep, nil
}

// Status reports the queue length, the last sync time and the current
// state. Without local storage the counters are zero.
func (s *Synchronizer) Status(ctx context.Context) (models.SyncStatus, error) {
	st := models.SyncStatus{
		IsOnline:  s.conn.IsOnline(),
		IsSyncing: s.running.Load(),
	}

	var err error
	if st.QueueLength, err = s.cache.QueueLength(ctx); err != nil {
		return st, ignoreUnavailable(err)
	}
	if st.LastSyncTime, err = s.cache.LastSyncTime(ctx); err != nil {
		return st, ignoreUnavailable(err)
	}
	if st.Abandoned, err = s.cache.AbandonedCount(ctx); err != nil {
		return st, ignoreUnavailable(err)
	}
	return st, nil
}

func ignoreUnavailable(err error) error {
	if errors.Is(err, common.ErrStorageUnavailable) {
		return nil
	}
	return err
}

func (s *Synchronizer) afterDrain(rep Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rep.Retried == 0 && !rep.Interrupted {
		s.backoff = s.newBackoff()
		s.nextAttempt = time.Time{}
		return
	}
	if rep.Retried > 0 {
		d, stop := s.backoff.Next()
		if stop {
			s.backoff = s.newBackoff()
			d, _ = s.backoff.Next()
		}
		s.nextAttempt = s.now().Add(d)
	}
}
