package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/hcp-engage/internal/pkg/logger"
	"github.com/ignite/hcp-engage/internal/service/planner"
)

// DefaultSchedulerPollInterval is how often the scheduler checks for due plans.
const DefaultSchedulerPollInterval = 30 * time.Second

// PlanScheduler polls for scheduled plans whose start time has arrived and
// hands them to the planner for execution. Single-flight across instances
// comes from the planner's own per-plan lock: a plan another instance is
// already running surfaces as ErrPlanLocked and is skipped.
type PlanScheduler struct {
	planner      *planner.Service
	plans        planner.PlanRepository
	pollInterval time.Duration

	// Stats
	plansExecuted int64
	execErrors    int64

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewPlanScheduler creates a scheduler over the planner and plan repository.
func NewPlanScheduler(p *planner.Service, plans planner.PlanRepository) *PlanScheduler {
	return &PlanScheduler{
		planner:      p,
		plans:        plans,
		pollInterval: DefaultSchedulerPollInterval,
	}
}

// SetPollInterval overrides the default poll interval.
func (s *PlanScheduler) SetPollInterval(d time.Duration) { s.pollInterval = d }

// Start launches the polling loop.
func (s *PlanScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("plan scheduler already running")
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = true

	s.wg.Add(1)
	go s.loop()
	logger.Info("plan scheduler started", "poll_interval", s.pollInterval.String())
	return nil
}

// Stop halts the polling loop and waits for the current pass to finish.
func (s *PlanScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	logger.Info("plan scheduler stopped",
		"plans_executed", atomic.LoadInt64(&s.plansExecuted),
		"errors", atomic.LoadInt64(&s.execErrors))
}

func (s *PlanScheduler) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runDuePlans()
		}
	}
}

// runDuePlans executes every scheduled plan whose start time has elapsed.
func (s *PlanScheduler) runDuePlans() {
	due, err := s.plans.ListDue(s.ctx, time.Now())
	if err != nil {
		logger.Error("list due plans failed", "error", err.Error())
		return
	}

	for i := range due {
		plan := &due[i]
		if s.ctx.Err() != nil {
			return
		}

		_, err := s.planner.Execute(s.ctx, plan.ID)
		if err != nil {
			// Locked means another instance has it; an invalid transition
			// means it already left the scheduled state between the list
			// and the execute.
			if errors.Is(err, planner.ErrPlanLocked) || errors.Is(err, planner.ErrInvalidTransition) {
				continue
			}
			atomic.AddInt64(&s.execErrors, 1)
			logger.Error("scheduled execution failed", "plan_id", plan.ID, "error", err.Error())
			continue
		}
		atomic.AddInt64(&s.plansExecuted, 1)
	}
}

// Stats returns scheduler counters.
func (s *PlanScheduler) Stats() (executed, errs int64) {
	return atomic.LoadInt64(&s.plansExecuted), atomic.LoadInt64(&s.execErrors)
}
