// Package scheduler drives periodic reconciliation and store maintenance
// off the request path.
//
// Two duties run on fixed intervals: the sync pass (reference pull, outbox
// replay, metrics push, retention sweep) and the remote action poll. Every
// failure inside a tick is logged and swallowed; a single bad pass must
// never stop the loop. The scheduler is owned by the application lifecycle
// and shuts down with its context.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/microdiag/agent/internal/reconciler"
)

// Default cadences, matching the agent's historical behavior: a short
// settle delay before the first sync so the process can finish starting,
// then fixed periods for sync and command polling.
const (
	DefaultSettleDelay  = 5 * time.Second
	DefaultSyncInterval = 5 * time.Minute
	DefaultPollInterval = 30 * time.Second
)

// ActionHandler receives the remote actions discovered by a poll tick.
// The wider application executes them; the scheduler only delivers.
type ActionHandler func(ctx context.Context, actions []reconciler.RemoteAction)

// Options configures the scheduler's cadence and action delivery.
// Zero-value intervals fall back to the defaults.
type Options struct {
	SettleDelay  time.Duration
	SyncInterval time.Duration
	PollInterval time.Duration

	// OnActions, when set, enables the remote action poll loop.
	OnActions ActionHandler
}

// Scheduler runs the reconciler on fixed intervals.
type Scheduler struct {
	rec  *reconciler.Reconciler
	opts Options

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// New creates a scheduler for the given reconciler.
func New(rec *reconciler.Reconciler, opts Options) *Scheduler {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = DefaultSyncInterval
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Scheduler{rec: rec, opts: opts}
}

// Start registers the periodic entries and launches the loops. The first
// sync pass runs after the settle delay rather than waiting a full
// interval. Start returns immediately; Stop or context cancellation ends
// the loops.
func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.cron = cron.New()
	s.mu.Unlock()

	if _, err := s.cron.AddFunc("@every "+s.opts.SyncInterval.String(), func() {
		s.SyncPass(runCtx)
	}); err != nil {
		cancel()
		return err
	}

	if s.opts.OnActions != nil {
		if _, err := s.cron.AddFunc("@every "+s.opts.PollInterval.String(), func() {
			s.pollPass(runCtx)
		}); err != nil {
			cancel()
			return err
		}
	}

	s.cron.Start()
	slog.Info("scheduler started",
		"sync_interval", s.opts.SyncInterval,
		"poll_interval", s.opts.PollInterval,
		"polling", s.opts.OnActions != nil)

	// Initial sync shortly after startup to let the process settle.
	go func() {
		select {
		case <-runCtx.Done():
			return
		case <-time.After(s.opts.SettleDelay):
			s.SyncPass(runCtx)
		}
	}()

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the periodic entries. Running ticks finish; no new ticks
// fire. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
		slog.Info("scheduler stopped")
	}
}

// SyncPass runs one full reconciliation tick: reference pull, outbox
// replay, metrics push, then the retention sweep. The sweep runs
// regardless of whether the sync steps succeeded. Every failure is logged
// and swallowed; the loop continues ticking indefinitely.
func (s *Scheduler) SyncPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if _, err := s.rec.SyncScripts(ctx); err != nil {
		slog.Warn("scripts sync failed", "error", err)
	}
	if _, _, err := s.rec.ReplayOutbox(ctx); err != nil {
		slog.Warn("outbox replay failed", "error", err)
	}
	if _, err := s.rec.PushMetrics(ctx); err != nil {
		slog.Warn("metrics push failed", "error", err)
	}

	s.rec.Sweep(ctx)
}

// pollPass checks for authorized remote actions and hands them to the
// configured handler.
func (s *Scheduler) pollPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	actions, err := s.rec.CheckRemoteActions(ctx)
	if err != nil {
		slog.Warn("remote action poll failed", "error", err)
		return
	}
	if len(actions) == 0 {
		return
	}

	slog.Info("remote actions pending", "count", len(actions))
	s.opts.OnActions(ctx, actions)
}
