package planner

import (
	"context"
	"fmt"
	"math"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/pkg/logger"
)

// Rebalance thresholds. A suggestion fires when observed lift falls below
// liftRatioFloor of prediction, or when more than deviationSharePct of
// completed allocations individually miss prediction by deviationPct.
const (
	rebalanceMinCompleted = 10
	liftRatioFloor        = 0.8
	deviationPct          = 20.0
	deviationSharePct     = 30.0
	estimatedImprovement  = 15.0
)

// SuggestRebalance evaluates a running plan's drift from prediction. Plans
// that are not executing or paused, or have fewer than ten completed
// allocations, never trigger a suggestion.
func (s *Service) SuggestRebalance(ctx context.Context, planID string) (*domain.RebalanceSuggestion, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	suggestion := &domain.RebalanceSuggestion{PlanID: planID}

	if plan.Status != domain.PlanExecuting && plan.Status != domain.PlanPaused {
		suggestion.Reason = fmt.Sprintf("plan is %s; rebalance applies to running plans only", plan.Status)
		return suggestion, nil
	}

	allocs, err := s.allocs.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}

	var (
		completed     int
		pending       int
		predictedLift float64
		actualLift    float64
		deviating     int
	)
	for i := range allocs {
		a := &allocs[i]
		switch a.Status {
		case domain.AllocationCompleted:
			completed++
			predictedLift += a.PredictedLift
			if a.ActualOutcome != nil {
				actualLift += a.ActualOutcome.ActualLift
				if a.PredictedLift > 0 {
					dev := math.Abs(a.ActualOutcome.ActualLift-a.PredictedLift) / a.PredictedLift * 100
					if dev > deviationPct {
						deviating++
					}
				}
			}
		case domain.AllocationPlanned, domain.AllocationBooked:
			pending++
		}
	}

	if completed < rebalanceMinCompleted {
		suggestion.Reason = fmt.Sprintf("only %d completed allocations; need %d for a signal", completed, rebalanceMinCompleted)
		return suggestion, nil
	}

	liftRatio := 1.0
	if predictedLift > 0 {
		liftRatio = actualLift / predictedLift
	}
	deviatingShare := float64(deviating) / float64(completed) * 100

	switch {
	case liftRatio < liftRatioFloor:
		suggestion.ShouldRebalance = true
		suggestion.Reason = fmt.Sprintf("actual lift is %.0f%% of predicted, below the %.0f%% floor",
			liftRatio*100, liftRatioFloor*100)
	case deviatingShare > deviationSharePct:
		suggestion.ShouldRebalance = true
		suggestion.Reason = fmt.Sprintf("%.0f%% of completed allocations deviate more than %.0f%% from prediction",
			deviatingShare, deviationPct)
	default:
		suggestion.Reason = "performance is tracking prediction"
		return suggestion, nil
	}

	suggestion.EstimatedImprovement = estimatedImprovement
	suggestion.ActionsToModify = int(float64(pending) * 0.30)
	suggestion.ActionsToAdd = int(float64(pending) * 0.10)
	suggestion.ActionsToRemove = int(float64(pending) * 0.10)
	return suggestion, nil
}

// PerformRebalance cancels the plan's remaining planned and booked
// allocations and bumps the rebalance counter. It does not derive
// replacement allocations; a caller re-plans and books a fresh batch.
func (s *Service) PerformRebalance(ctx context.Context, planID string) (*domain.ExecutionPlan, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != domain.PlanExecuting && plan.Status != domain.PlanPaused {
		return nil, fmt.Errorf("%w: rebalance requires executing or paused, plan is %s", ErrInvalidTransition, plan.Status)
	}

	cancelled, err := s.cancelPending(ctx, planID)
	if err != nil {
		return nil, err
	}

	plan.RebalanceCount++
	plan.UpdatedAt = s.now()
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	logger.Info("plan rebalanced", "plan_id", planID,
		"cancelled_allocations", cancelled, "rebalance_count", plan.RebalanceCount)
	return plan, nil
}
