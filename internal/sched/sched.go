// Package sched implements the scheduler (C8): a single `hz`-driven cron
// tick plus a separate 100ms pre-sleep task, both grounded on the teacher's
// ActiveExpire ticker (internal/database/database.go) generalized from a
// fixed 100ms active-expiration sampler into the full tick sequence of
// §4.8: clock refresh, periodic diagnostics, child-process probing, and
// auto-save/auto-rewrite triggers.
package sched

import (
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/akashmaji946/rudis/internal/aof"
	"github.com/akashmaji946/rudis/internal/config"
	"github.com/akashmaji946/rudis/internal/logging"
	"github.com/akashmaji946/rudis/internal/rdb"
	"github.com/akashmaji946/rudis/internal/store"
)

// Scheduler drives the periodic background work described by §4.8. It owns
// no locks of its own: every collaborator (Keyspaces, AOF, RDB state) is
// already safe for concurrent access from the connection goroutines.
type Scheduler struct {
	Keyspaces []*store.Keyspace
	Clock     *store.Clock
	Config    *config.Config
	AOF       *aof.AOF
	RDB       *rdb.State

	logger *logging.Logger

	lastStatsTick time.Time
	stopCh        chan struct{}
}

// New returns a Scheduler over the given collaborators. logger may be nil,
// in which case diagnostics are discarded (tests construct it this way).
func New(keyspaces []*store.Keyspace, clock *store.Clock, cfg *config.Config, a *aof.AOF, r *rdb.State, logger *logging.Logger) *Scheduler {
	return &Scheduler{Keyspaces: keyspaces, Clock: clock, Config: cfg, AOF: a, RDB: r, logger: logger, stopCh: make(chan struct{})}
}

func (s *Scheduler) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(format, args...)
	}
}

// Run blocks, firing the hz-driven cron tick and the 100ms pre-sleep flush
// task until Stop is called (§4.8). Intended to be run in its own goroutine.
func (s *Scheduler) Run() {
	hz := s.Config.HZ()
	if hz == 0 {
		hz = 10
	}
	cronPeriod := time.Second / time.Duration(hz)

	cronTicker := time.NewTicker(cronPeriod)
	defer cronTicker.Stop()
	preSleepTicker := time.NewTicker(100 * time.Millisecond)
	defer preSleepTicker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-cronTicker.C:
			s.tick()
		case <-preSleepTicker.C:
			// Pre-sleep hook: flush even when cron's coarser period hasn't
			// elapsed, giving Everysec fsync a chance every 100ms (§4.8).
			if err := s.AOF.Flush(); err != nil {
				s.logf("aof flush (pre-sleep): %v", err)
			}
		}
	}
}

// Stop ends Run's loop. Safe to call once.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

// tick runs one server_cron iteration (§4.8's numbered steps).
func (s *Scheduler) tick() {
	// 1. Update server clock.
	s.Clock.Tick()

	// 2. Emit diagnostic keyspace stats every 1000ms.
	now := time.Now()
	if now.Sub(s.lastStatsTick) >= time.Second {
		s.lastStatsTick = now
		s.emitStats()
	}

	// 3 & 4. If a background job (AOF rewrite or RDB save) is active, probe
	// completion non-blockingly; otherwise, if a rewrite was deferred behind
	// a save, start it now.
	rewriteFinished, rewriteErr := s.AOF.PollRewrite()
	if rewriteFinished && rewriteErr != nil {
		s.logf("background AOF rewrite failed: %v", rewriteErr)
	}
	saveFinished, saveErr := s.RDB.PollSave(s.Clock.NowMillis())
	if saveFinished && saveErr != nil {
		s.logf("background save failed: %v", saveErr)
	}

	childActive := s.AOF.RewriteActive() || s.RDB.SaveActive()
	if !childActive && s.AOF.RewriteScheduled() {
		if err := s.AOF.BeginRewrite(s.Keyspaces, s.RDB.SaveActive()); err != nil {
			s.logf("begin scheduled AOF rewrite: %v", err)
		}
		childActive = true
	}

	// 5. Else, test auto-save and auto-rewrite triggers and fire at most one.
	if !childActive {
		if s.RDB.ShouldAutoSave(s.Config.SaveParams(), s.Clock.NowMillis()) {
			if err := s.RDB.BGSaveAll(s.Keyspaces); err != nil {
				s.logf("auto bgsave: %v", err)
			}
		} else if minSize, percent := s.Config.RewriteTrigger(); s.AOF.ShouldAutoRewrite(minSize, percent) {
			if err := s.AOF.BeginRewrite(s.Keyspaces, s.RDB.SaveActive()); err != nil {
				s.logf("auto aof rewrite: %v", err)
			}
		}
	}

	// 6. Flush the AOF pending buffer.
	if err := s.AOF.Flush(); err != nil {
		s.logf("aof flush: %v", err)
	}
}

func (s *Scheduler) emitStats() {
	total := 0
	for _, ks := range s.Keyspaces {
		if ks != nil {
			total += ks.Len()
		}
	}

	var hostMemTotal uint64
	if vm, err := mem.VirtualMemory(); err == nil {
		hostMemTotal = vm.Total
	}

	if s.logger != nil {
		s.logger.Debug("keys=%d host_mem_total=%d aof_size=%d rdb_dirty=%d",
			total, hostMemTotal, s.AOF.CurrentSize(), s.RDB.Dirty())
	}
}
