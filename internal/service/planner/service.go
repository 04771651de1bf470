package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/pkg/distlock"
	"github.com/ignite/hcp-engage/internal/pkg/logger"
)

// LockFactory builds the distributed lock guarding one plan's execution.
// A nil factory disables plan-level locking (single-process deployments
// and tests).
type LockFactory func(planID string) distlock.DistLock

// Service drives the execution-plan state machine.
type Service struct {
	plans    PlanRepository
	allocs   AllocationRepository
	gate     ConstraintGate
	sim      OutcomeSimulator
	locks    LockFactory
	archiver ReportArchiver
	now      func() time.Time
}

// NewService creates a planner over the given repositories. The archiver and
// lock factory are optional.
func NewService(plans PlanRepository, allocs AllocationRepository, gate ConstraintGate, sim OutcomeSimulator) *Service {
	return &Service{
		plans:  plans,
		allocs: allocs,
		gate:   gate,
		sim:    sim,
		now:    time.Now,
	}
}

// WithLocks installs a per-plan execution lock factory.
func (s *Service) WithLocks(locks LockFactory) *Service {
	s.locks = locks
	return s
}

// WithArchiver installs a report archiver invoked when plans finish.
func (s *Service) WithArchiver(a ReportArchiver) *Service {
	s.archiver = a
	return s
}

// CreatePlan creates a draft plan wrapping the given allocation batch.
// Allocations are stored as planned; budget allocated is the sum of their
// estimated costs.
func (s *Service) CreatePlan(ctx context.Context, sourceResultID string, allocs []domain.Allocation, scheduledStart *time.Time) (*domain.ExecutionPlan, error) {
	if len(allocs) == 0 {
		return nil, ErrNoAllocations
	}

	now := s.now()
	plan := &domain.ExecutionPlan{
		ID:               uuid.NewString(),
		SourceResultID:   sourceResultID,
		Status:           domain.PlanDraft,
		TotalActions:     len(allocs),
		ScheduledStartAt: scheduledStart,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for i := range allocs {
		if allocs[i].ID == "" {
			allocs[i].ID = uuid.NewString()
		}
		allocs[i].PlanID = plan.ID
		allocs[i].Status = domain.AllocationPlanned
		allocs[i].CreatedAt = now
		allocs[i].UpdatedAt = now
		plan.BudgetAllocated += allocs[i].EstimatedCost
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	if err := s.allocs.CreateBatch(ctx, allocs); err != nil {
		return nil, fmt.Errorf("create allocations: %w", err)
	}
	logger.Info("plan created", "plan_id", plan.ID, "actions", plan.TotalActions)
	return plan, nil
}

// GetPlan returns the plan by id.
func (s *Service) GetPlan(ctx context.Context, id string) (*domain.ExecutionPlan, error) {
	return s.plans.Get(ctx, id)
}

// ListAllocations returns the plan's allocations.
func (s *Service) ListAllocations(ctx context.Context, planID string) ([]domain.Allocation, error) {
	if _, err := s.plans.Get(ctx, planID); err != nil {
		return nil, err
	}
	return s.allocs.ListByPlan(ctx, planID)
}

// BookingError records one allocation that booking skipped.
type BookingError struct {
	AllocationID string `json:"allocation_id"`
	Reason       string `json:"reason"`
}

// BookingResult summarizes one booking pass over a plan.
type BookingResult struct {
	PlanID  string         `json:"plan_id"`
	Booked  int            `json:"booked"`
	Skipped int            `json:"skipped"`
	Errors  []BookingError `json:"errors,omitempty"`
}

// Book runs every planned allocation through the constraint gate. Failures
// are recorded and skipped, never retried. The plan moves to scheduled iff at
// least one allocation booked; otherwise it stays draft and ErrNothingBooked
// is returned alongside the result.
func (s *Service) Book(ctx context.Context, planID string) (*BookingResult, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != domain.PlanDraft {
		return nil, fmt.Errorf("%w: book requires draft, plan is %s", ErrInvalidTransition, plan.Status)
	}

	allocs, err := s.allocs.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}

	result := &BookingResult{PlanID: planID}
	for i := range allocs {
		a := &allocs[i]
		if a.Status != domain.AllocationPlanned {
			continue
		}

		check, err := s.gate.Check(ctx, proposedAction(a))
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, BookingError{AllocationID: a.ID, Reason: err.Error()})
			continue
		}
		if !check.Passed {
			result.Skipped++
			result.Errors = append(result.Errors, BookingError{AllocationID: a.ID, Reason: violationSummary(check)})
			continue
		}

		if err := s.gate.ConsumeCapacity(ctx, a.Channel, a.RepID); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, BookingError{AllocationID: a.ID, Reason: err.Error()})
			continue
		}
		if err := s.gate.CommitBudget(ctx, a.CampaignID, a.Channel, a.EstimatedCost); err != nil {
			// Give the capacity slot back before skipping.
			s.gate.ReleaseCapacity(ctx, a.Channel, a.RepID)
			result.Skipped++
			result.Errors = append(result.Errors, BookingError{AllocationID: a.ID, Reason: err.Error()})
			continue
		}

		a.Status = domain.AllocationBooked
		a.UpdatedAt = s.now()
		if err := s.allocs.Update(ctx, a); err != nil {
			return nil, fmt.Errorf("update allocation %s: %w", a.ID, err)
		}
		result.Booked++
	}

	if result.Booked == 0 {
		return result, ErrNothingBooked
	}

	plan.Status = domain.PlanScheduled
	plan.UpdatedAt = s.now()
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	logger.Info("plan booked", "plan_id", planID, "booked", result.Booked, "skipped", result.Skipped)
	return result, nil
}

// Execute runs the plan's booked allocations in order of planned date, then
// descending priority. Per-allocation failures mark that allocation failed
// and continue; a cancelled context stops the loop between allocations and
// leaves the plan executing. The plan completes once every action settled.
func (s *Service) Execute(ctx context.Context, planID string) (*domain.ExecutionReport, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	switch plan.Status {
	case domain.PlanScheduled, domain.PlanPaused, domain.PlanExecuting:
	default:
		return nil, fmt.Errorf("%w: execute requires scheduled or paused, plan is %s", ErrInvalidTransition, plan.Status)
	}

	if s.locks != nil {
		lock := s.locks(planID)
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire plan lock: %w", err)
		}
		if !ok {
			return nil, ErrPlanLocked
		}
		defer lock.Release(ctx)
	}

	now := s.now()
	plan.Status = domain.PlanExecuting
	if plan.ActualStartAt == nil {
		plan.ActualStartAt = &now
	}
	plan.UpdatedAt = now
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}

	allocs, err := s.allocs.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	var booked []*domain.Allocation
	for i := range allocs {
		if allocs[i].Status == domain.AllocationBooked {
			booked = append(booked, &allocs[i])
		}
	}
	sort.SliceStable(booked, func(i, j int) bool {
		if !booked[i].PlannedDate.Equal(booked[j].PlannedDate) {
			return booked[i].PlannedDate.Before(booked[j].PlannedDate)
		}
		return booked[i].Priority > booked[j].Priority
	})

	for _, a := range booked {
		if ctx.Err() != nil {
			logger.Warn("execution interrupted", "plan_id", planID, "error", ctx.Err().Error())
			s.plans.Update(context.WithoutCancel(ctx), plan)
			return nil, ctx.Err()
		}

		a.Status = domain.AllocationExecuting
		a.UpdatedAt = s.now()
		if err := s.allocs.Update(ctx, a); err != nil {
			return nil, fmt.Errorf("update allocation %s: %w", a.ID, err)
		}

		outcome := s.sim.Simulate(*a)
		a.ActualOutcome = &outcome
		a.UpdatedAt = s.now()
		if outcome.Succeeded {
			a.Status = domain.AllocationCompleted
			plan.CompletedActions++
			plan.BudgetSpent += a.EstimatedCost
			if err := s.gate.RecordSpend(ctx, a.CampaignID, a.Channel, a.EstimatedCost); err != nil {
				logger.Warn("record spend failed", "allocation_id", a.ID, "error", err.Error())
			}
			if err := s.gate.RecordContact(ctx, a.HCPID, a.Channel, a.PlannedDate); err != nil {
				logger.Warn("record contact failed", "allocation_id", a.ID, "error", err.Error())
			}
		} else {
			a.Status = domain.AllocationFailed
			plan.FailedActions++
			// Money committed for a failed touch goes back to the pool.
			s.gate.ReleaseBudget(ctx, a.CampaignID, a.Channel, a.EstimatedCost)
		}
		if err := s.allocs.Update(ctx, a); err != nil {
			return nil, fmt.Errorf("update allocation %s: %w", a.ID, err)
		}
	}

	if plan.CompletedActions+plan.FailedActions >= plan.TotalActions {
		end := s.now()
		plan.Status = domain.PlanCompleted
		plan.ActualEndAt = &end
	}
	plan.UpdatedAt = s.now()
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}

	report := s.buildReport(plan, allocs)
	if plan.Status == domain.PlanCompleted {
		s.archive(ctx, report)
	}
	logger.Info("plan executed", "plan_id", planID,
		"completed", plan.CompletedActions, "failed", plan.FailedActions, "status", string(plan.Status))
	return report, nil
}

// Pause stops an executing plan. Only executing plans can pause.
func (s *Service) Pause(ctx context.Context, planID string) error {
	return s.transition(ctx, planID, domain.PlanPaused, domain.PlanExecuting)
}

// Resume returns a paused plan to executing. Only paused plans can resume.
func (s *Service) Resume(ctx context.Context, planID string) error {
	return s.transition(ctx, planID, domain.PlanExecuting, domain.PlanPaused)
}

func (s *Service) transition(ctx context.Context, planID string, to domain.PlanStatus, from ...domain.PlanStatus) error {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return err
	}
	allowed := false
	for _, f := range from {
		if plan.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s requires %v, plan is %s", ErrInvalidTransition, to, from, plan.Status)
	}
	plan.Status = to
	plan.UpdatedAt = s.now()
	return s.plans.Update(ctx, plan)
}

// Cancel terminates a non-terminal plan. Pending allocations are cancelled
// and their booked resources returned.
func (s *Service) Cancel(ctx context.Context, planID string) error {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return err
	}
	if plan.Status.IsTerminal() {
		return fmt.Errorf("%w: plan already %s", ErrInvalidTransition, plan.Status)
	}

	cancelled, err := s.cancelPending(ctx, planID)
	if err != nil {
		return err
	}

	end := s.now()
	plan.Status = domain.PlanCancelled
	plan.ActualEndAt = &end
	plan.UpdatedAt = end
	if err := s.plans.Update(ctx, plan); err != nil {
		return fmt.Errorf("update plan: %w", err)
	}

	allocs, err := s.allocs.ListByPlan(ctx, planID)
	if err == nil {
		s.archive(ctx, s.buildReport(plan, allocs))
	}
	logger.Info("plan cancelled", "plan_id", planID, "cancelled_allocations", cancelled)
	return nil
}

// cancelPending cancels planned and booked allocations, releasing capacity
// and budget held by booked ones. Returns the number cancelled.
func (s *Service) cancelPending(ctx context.Context, planID string) (int, error) {
	allocs, err := s.allocs.ListByPlan(ctx, planID)
	if err != nil {
		return 0, fmt.Errorf("list allocations: %w", err)
	}
	count := 0
	for i := range allocs {
		a := &allocs[i]
		switch a.Status {
		case domain.AllocationBooked:
			s.gate.ReleaseCapacity(ctx, a.Channel, a.RepID)
			s.gate.ReleaseBudget(ctx, a.CampaignID, a.Channel, a.EstimatedCost)
		case domain.AllocationPlanned:
		default:
			continue
		}
		a.Status = domain.AllocationCancelled
		a.UpdatedAt = s.now()
		if err := s.allocs.Update(ctx, a); err != nil {
			return count, fmt.Errorf("update allocation %s: %w", a.ID, err)
		}
		count++
	}
	return count, nil
}

// Release unwinds booking: booked and executing allocations revert to
// planned with their capacity and budget restored, and the plan returns to
// draft for re-planning.
func (s *Service) Release(ctx context.Context, planID string) error {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return err
	}
	switch plan.Status {
	case domain.PlanScheduled, domain.PlanExecuting, domain.PlanPaused:
	default:
		return fmt.Errorf("%w: release requires scheduled, executing or paused, plan is %s", ErrInvalidTransition, plan.Status)
	}

	allocs, err := s.allocs.ListByPlan(ctx, planID)
	if err != nil {
		return fmt.Errorf("list allocations: %w", err)
	}
	for i := range allocs {
		a := &allocs[i]
		if a.Status != domain.AllocationBooked && a.Status != domain.AllocationExecuting {
			continue
		}
		s.gate.ReleaseCapacity(ctx, a.Channel, a.RepID)
		s.gate.ReleaseBudget(ctx, a.CampaignID, a.Channel, a.EstimatedCost)
		a.Status = domain.AllocationPlanned
		a.UpdatedAt = s.now()
		if err := s.allocs.Update(ctx, a); err != nil {
			return fmt.Errorf("update allocation %s: %w", a.ID, err)
		}
	}

	plan.Status = domain.PlanDraft
	plan.ActualStartAt = nil
	plan.UpdatedAt = s.now()
	if err := s.plans.Update(ctx, plan); err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	logger.Info("plan released", "plan_id", planID)
	return nil
}

// Delete removes a plan. Only draft plans may be deleted.
func (s *Service) Delete(ctx context.Context, planID string) error {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return err
	}
	if plan.Status != domain.PlanDraft {
		return fmt.Errorf("%w: delete requires draft, plan is %s", ErrInvalidTransition, plan.Status)
	}
	return s.plans.Delete(ctx, planID)
}

// Report builds the execution report for a plan in any state.
func (s *Service) Report(ctx context.Context, planID string) (*domain.ExecutionReport, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	allocs, err := s.allocs.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return s.buildReport(plan, allocs), nil
}

func (s *Service) buildReport(plan *domain.ExecutionPlan, allocs []domain.Allocation) *domain.ExecutionReport {
	perf := map[domain.Channel]*domain.ChannelPerformance{}
	for i := range allocs {
		a := &allocs[i]
		p, ok := perf[a.Channel]
		if !ok {
			p = &domain.ChannelPerformance{Channel: a.Channel}
			perf[a.Channel] = p
		}
		switch a.Status {
		case domain.AllocationCompleted:
			p.Executed++
			p.Completed++
			p.PredictedLift += a.PredictedLift
			p.Spend += a.EstimatedCost
			if a.ActualOutcome != nil {
				p.ActualLift += a.ActualOutcome.ActualLift
			}
		case domain.AllocationFailed:
			p.Executed++
			p.Failed++
			p.PredictedLift += a.PredictedLift
		}
	}

	channels := make([]domain.ChannelPerformance, 0, len(perf))
	for _, c := range domain.AllChannels() {
		if p, ok := perf[c]; ok {
			channels = append(channels, *p)
		}
	}

	return &domain.ExecutionReport{
		PlanID:      plan.ID,
		Status:      plan.Status,
		Completed:   plan.CompletedActions,
		Failed:      plan.FailedActions,
		BudgetSpent: plan.BudgetSpent,
		Channels:    channels,
		StartedAt:   plan.ActualStartAt,
		EndedAt:     plan.ActualEndAt,
		GeneratedAt: s.now(),
	}
}

func (s *Service) archive(ctx context.Context, report *domain.ExecutionReport) {
	if s.archiver == nil {
		return
	}
	key, err := s.archiver.ArchiveReport(ctx, report)
	if err != nil {
		logger.Warn("archive report failed", "plan_id", report.PlanID, "error", err.Error())
		return
	}
	logger.Info("report archived", "plan_id", report.PlanID, "key", key)
}

func proposedAction(a *domain.Allocation) domain.ProposedAction {
	return domain.ProposedAction{
		HCPID:         a.HCPID,
		Channel:       a.Channel,
		ActionType:    a.ActionType,
		PlannedDate:   a.PlannedDate,
		EstimatedCost: a.EstimatedCost,
		CampaignID:    a.CampaignID,
		RepID:         a.RepID,
	}
}

func violationSummary(r *domain.ConstraintResult) string {
	for _, v := range r.Violations {
		if v.Severity == domain.SeverityError {
			return fmt.Sprintf("%s: %s", v.Type, v.Reason)
		}
	}
	return "constraint check failed"
}
