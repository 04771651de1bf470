// Package monitor scores running and finished plans and raises plain-text
// insights for dashboards. It is a read-only consumer of planner data.
package monitor

import (
	"context"
	"fmt"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/service/planner"
)

// PlanScore is the monitor's assessment of one plan.
type PlanScore struct {
	PlanID           string   `json:"plan_id"`
	Score            float64  `json:"score"`
	CompletionRate   float64  `json:"completion_rate"`
	FailureRate      float64  `json:"failure_rate"`
	LiftAttainment   float64  `json:"lift_attainment"`
	BudgetEfficiency float64  `json:"budget_efficiency"`
	Insights         []string `json:"insights"`
}

const (
	completionWeight = 0.4
	liftWeight       = 0.3
	budgetWeight     = 0.3
)

// Service scores plans through the planner.
type Service struct {
	planner *planner.Service
}

// NewService creates a monitor over the planner.
func NewService(p *planner.Service) *Service {
	return &Service{planner: p}
}

// Score evaluates the plan and attaches a rebalance insight when the planner
// suggests one.
func (s *Service) Score(ctx context.Context, planID string) (*PlanScore, error) {
	plan, err := s.planner.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	allocs, err := s.planner.ListAllocations(ctx, planID)
	if err != nil {
		return nil, err
	}

	score := ScorePlan(plan, allocs)

	sug, err := s.planner.SuggestRebalance(ctx, planID)
	if err == nil && sug.ShouldRebalance {
		score.Insights = append(score.Insights, fmt.Sprintf("rebalance suggested: %s", sug.Reason))
	}
	return score, nil
}

// ScorePlan computes the performance score from completion rate, lift
// attainment against prediction, and lift yield per dollar relative to the
// allocated budget.
func ScorePlan(plan *domain.ExecutionPlan, allocs []domain.Allocation) *PlanScore {
	score := &PlanScore{PlanID: plan.ID}

	settled := plan.CompletedActions + plan.FailedActions
	if plan.TotalActions > 0 {
		score.CompletionRate = float64(plan.CompletedActions) / float64(plan.TotalActions) * 100
	}
	if settled > 0 {
		score.FailureRate = float64(plan.FailedActions) / float64(settled) * 100
	}

	var predicted, actual float64
	for i := range allocs {
		a := &allocs[i]
		if a.Status != domain.AllocationCompleted {
			continue
		}
		predicted += a.PredictedLift
		if a.ActualOutcome != nil {
			actual += a.ActualOutcome.ActualLift
		}
	}
	score.LiftAttainment = 100
	if predicted > 0 {
		score.LiftAttainment = clampPct(actual / predicted * 100)
	}

	// Lift per dollar actually spent, relative to the planned lift per
	// dollar allocated.
	score.BudgetEfficiency = 100
	if plan.BudgetSpent > 0 && plan.BudgetAllocated > 0 && predicted > 0 {
		plannedYield := predicted / plan.BudgetAllocated
		actualYield := actual / plan.BudgetSpent
		score.BudgetEfficiency = clampPct(actualYield / plannedYield * 100)
	}

	score.Score = clampPct(score.CompletionRate*completionWeight +
		score.LiftAttainment*liftWeight +
		score.BudgetEfficiency*budgetWeight)

	score.Insights = insights(plan, score)
	return score
}

func insights(plan *domain.ExecutionPlan, s *PlanScore) []string {
	var out []string
	if s.CompletionRate < 50 && plan.Status == domain.PlanExecuting {
		out = append(out, fmt.Sprintf("fewer than half of planned actions completed (%.0f%%)", s.CompletionRate))
	}
	if s.FailureRate > 20 {
		out = append(out, fmt.Sprintf("failure rate is %.0f%%, above the 20%% watermark", s.FailureRate))
	}
	if s.LiftAttainment < 80 {
		out = append(out, fmt.Sprintf("actual lift at %.0f%% of prediction", s.LiftAttainment))
	}
	if plan.BudgetAllocated > 0 && plan.BudgetSpent > plan.BudgetAllocated {
		out = append(out, fmt.Sprintf("spend %.2f exceeds allocated budget %.2f", plan.BudgetSpent, plan.BudgetAllocated))
	}
	return out
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
