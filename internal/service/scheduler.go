// internal/service/scheduler.go
package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/unclebandit/campaign-engine/internal/model"
	"github.com/unclebandit/campaign-engine/internal/queue"
	"github.com/unclebandit/campaign-engine/internal/recurrence"
	"github.com/unclebandit/campaign-engine/internal/repository"
)

// Executor runs one fan-out round for a fired trigger.
type Executor interface {
	Execute(ctx context.Context, c *model.Campaign) *model.ExecutionResult
}

// Recorder folds a finished result into the performance statistics.
type Recorder interface {
	Record(result *model.ExecutionResult) error
}

// SchedulerCore is the single scheduling authority: a fixed-interval tick
// loop that evaluates every active campaign and hands fired triggers to the
// execution coordinator, at most one in-flight execution per campaign id.
//
// Executions run in their own goroutines so a slow campaign never delays the
// others. A campaign already in flight is skipped (and logged), never queued;
// its next_run has not advanced, so the next tick picks it up once the flag
// clears.
type SchedulerCore struct {
	Registry    repository.CampaignRegistryInterface
	Coordinator Executor
	Aggregator  Recorder
	Publisher   queue.Publisher // optional result fan-out to the analytics worker

	loc          *time.Location
	tickInterval time.Duration
	log          zerolog.Logger
	now          func() time.Time

	mu       sync.Mutex
	inflight map[string]bool
	stopCh   chan struct{}
	running  bool
	wg       sync.WaitGroup
}

func NewSchedulerCore(
	registry repository.CampaignRegistryInterface,
	coordinator Executor,
	aggregator Recorder,
	publisher queue.Publisher,
	loc *time.Location,
	tickInterval time.Duration,
	log zerolog.Logger,
) *SchedulerCore {
	if loc == nil {
		loc = time.UTC
	}
	if tickInterval <= 0 {
		tickInterval = time.Minute
	}
	return &SchedulerCore{
		Registry:     registry,
		Coordinator:  coordinator,
		Aggregator:   aggregator,
		Publisher:    publisher,
		loc:          loc,
		tickInterval: tickInterval,
		log:          log,
		now:          time.Now,
		inflight:     make(map[string]bool),
	}
}

// Start runs the recovery sweep and launches the tick loop.
func (s *SchedulerCore) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.recoverStalled()

	go func() {
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
	s.log.Info().Dur("interval", s.tickInterval).Str("tz", s.loc.String()).Msg("scheduler started")
}

// Stop halts the tick loop and waits for in-flight executions to finish.
func (s *SchedulerCore) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

// Wait blocks until every in-flight execution has completed. Exposed for
// tests and for drain-on-shutdown.
func (s *SchedulerCore) Wait() {
	s.wg.Wait()
}

// Tick evaluates all active campaigns once. Exported so tests can drive the
// scheduler without a real clock.
func (s *SchedulerCore) Tick(ctx context.Context) {
	now := s.now()
	campaigns, err := s.Registry.List(model.CampaignFilter{Status: model.StatusActive})
	if err != nil {
		s.log.Error().Err(err).Msg("tick: listing campaigns failed")
		return
	}

	for _, c := range campaigns {
		if c.NextRun == nil || c.NextRun.After(now) {
			continue
		}

		s.mu.Lock()
		if s.inflight[c.ID] {
			s.mu.Unlock()
			// invariant guard, not fatal: next_run has not advanced, the
			// next tick retries once the flag clears
			s.log.Warn().Str("campaign", c.ID).Msg("tick skipped — still running")
			continue
		}
		s.inflight[c.ID] = true
		s.mu.Unlock()

		inFlight := true
		if err := s.Registry.UpdateRunState(c.ID, model.RunStateUpdate{InFlight: &inFlight}); err != nil {
			s.log.Error().Str("campaign", c.ID).Err(err).Msg("failed to persist in-flight mark")
			s.clearInflight(c.ID)
			continue
		}

		s.wg.Add(1)
		go s.runOne(ctx, c)
	}
}

// runOne drives one execution end to end: execute, record, publish,
// reschedule, clear the in-flight mark — in that order, so a crash
// mid-execution leaves the persisted flag for the recovery sweep.
func (s *SchedulerCore) runOne(ctx context.Context, c *model.Campaign) {
	defer s.wg.Done()
	defer s.clearInflight(c.ID)

	result := s.Coordinator.Execute(ctx, c)

	// The campaign may have been paused or deleted while we were executing.
	// Delete wins every race: nothing is recorded for a deleted campaign.
	fresh, err := s.Registry.GetByID(c.ID)
	if err != nil || fresh.Status == model.StatusDeleted {
		s.log.Info().Str("campaign", c.ID).Msg("campaign deleted mid-execution, result dropped")
		return
	}

	if err := s.Aggregator.Record(result); err != nil {
		s.log.Warn().Str("campaign", c.ID).Err(err).Msg("recording execution result failed")
	}
	if s.Publisher != nil {
		if err := s.Publisher.Publish(queue.TopicResults, result); err != nil {
			s.log.Warn().Str("campaign", c.ID).Err(err).Msg("publishing execution result failed")
		}
	}

	inFlight := false
	cursor := c.SegmentCursor + 1
	upd := model.RunStateUpdate{
		LastRun:       &result.TriggeredAt,
		InFlight:      &inFlight,
		SegmentCursor: &cursor,
	}

	// A pause during execution freezes next_run; only an active campaign
	// gets a fresh trigger.
	if fresh.Status == model.StatusActive {
		next, err := recurrence.NextTrigger(c.Cadence, s.now(), s.loc)
		if err != nil {
			s.log.Error().Str("campaign", c.ID).Err(err).Msg("computing next trigger failed")
		} else {
			upd.NextRun = &next
		}
	}

	if err := s.Registry.UpdateRunState(c.ID, upd); err != nil {
		s.log.Error().Str("campaign", c.ID).Err(err).Msg("updating run state failed")
	}
}

func (s *SchedulerCore) clearInflight(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

// recoverStalled clears in-flight marks left behind by a crash. The affected
// campaigns are treated as failed-and-recoverable: the next tick re-evaluates
// their next_run normally.
func (s *SchedulerCore) recoverStalled() {
	campaigns, err := s.Registry.List(model.CampaignFilter{})
	if err != nil {
		s.log.Error().Err(err).Msg("recovery sweep: listing campaigns failed")
		return
	}
	for _, c := range campaigns {
		if !c.InFlight {
			continue
		}
		inFlight := false
		if err := s.Registry.UpdateRunState(c.ID, model.RunStateUpdate{InFlight: &inFlight}); err != nil {
			s.log.Error().Str("campaign", c.ID).Err(err).Msg("recovery sweep: clearing stale in-flight mark failed")
			continue
		}
		s.log.Warn().Str("campaign", c.ID).Msg("reclaimed stalled campaign from previous run")
	}
}
