package domain

import "time"

// PlanStatus enumerates the lifecycle states of an execution plan.
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanScheduled PlanStatus = "scheduled"
	PlanExecuting PlanStatus = "executing"
	PlanPaused    PlanStatus = "paused"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

// IsTerminal returns true if the plan is in a final state.
func (s PlanStatus) IsTerminal() bool {
	return s == PlanCompleted || s == PlanCancelled
}

// ExecutionPlan tracks one batch of allocations through booking, execution
// and completion.
type ExecutionPlan struct {
	ID               string     `json:"id" db:"id"`
	SourceResultID   string     `json:"source_result_id" db:"source_result_id"`
	Status           PlanStatus `json:"status" db:"status"`
	TotalActions     int        `json:"total_actions" db:"total_actions"`
	CompletedActions int        `json:"completed_actions" db:"completed_actions"`
	FailedActions    int        `json:"failed_actions" db:"failed_actions"`
	BudgetAllocated  float64    `json:"budget_allocated" db:"budget_allocated"`
	BudgetSpent      float64    `json:"budget_spent" db:"budget_spent"`
	RebalanceCount   int        `json:"rebalance_count" db:"rebalance_count"`
	ScheduledStartAt *time.Time `json:"scheduled_start_at" db:"scheduled_start_at"`
	ActualStartAt    *time.Time `json:"actual_start_at" db:"actual_start_at"`
	ActualEndAt      *time.Time `json:"actual_end_at" db:"actual_end_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// AllocationStatus enumerates the per-allocation lifecycle.
type AllocationStatus string

const (
	AllocationPlanned   AllocationStatus = "planned"
	AllocationBooked    AllocationStatus = "booked"
	AllocationExecuting AllocationStatus = "executing"
	AllocationCompleted AllocationStatus = "completed"
	AllocationFailed    AllocationStatus = "failed"
	AllocationCancelled AllocationStatus = "cancelled"
)

// AllocationOutcome records what actually happened when an allocation ran.
type AllocationOutcome struct {
	ActualLift float64   `json:"actual_lift"`
	Succeeded  bool      `json:"succeeded"`
	ObservedAt time.Time `json:"observed_at"`
}

// Allocation is one planned touch (HCP x channel x date) within a plan.
type Allocation struct {
	ID            string             `json:"id" db:"id"`
	PlanID        string             `json:"plan_id" db:"plan_id"`
	ResultID      string             `json:"result_id" db:"result_id"`
	HCPID         string             `json:"hcp_id" db:"hcp_id"`
	Channel       Channel            `json:"channel" db:"channel"`
	ActionType    ActionType         `json:"action_type" db:"action_type"`
	PlannedDate   time.Time          `json:"planned_date" db:"planned_date"`
	Window        string             `json:"window" db:"window"`
	EstimatedCost float64            `json:"estimated_cost" db:"estimated_cost"`
	PredictedLift float64            `json:"predicted_lift" db:"predicted_lift"`
	Confidence    float64            `json:"confidence" db:"confidence"`
	Priority      int                `json:"priority" db:"priority"`
	RepID         string             `json:"rep_id,omitempty" db:"rep_id"`
	CampaignID    string             `json:"campaign_id,omitempty" db:"campaign_id"`
	Status        AllocationStatus   `json:"status" db:"status"`
	ActualOutcome *AllocationOutcome `json:"actual_outcome,omitempty"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
}

// ChannelPerformance accumulates execution results for one channel.
type ChannelPerformance struct {
	Channel       Channel `json:"channel"`
	Executed      int     `json:"executed"`
	Completed     int     `json:"completed"`
	Failed        int     `json:"failed"`
	PredictedLift float64 `json:"predicted_lift"`
	ActualLift    float64 `json:"actual_lift"`
	Spend         float64 `json:"spend"`
}

// RebalanceSuggestion is the planner's deviation-triggered advice for a
// running plan.
type RebalanceSuggestion struct {
	PlanID               string  `json:"plan_id"`
	ShouldRebalance      bool    `json:"should_rebalance"`
	Reason               string  `json:"reason,omitempty"`
	EstimatedImprovement float64 `json:"estimated_improvement"`
	ActionsToModify      int     `json:"actions_to_modify"`
	ActionsToAdd         int     `json:"actions_to_add"`
	ActionsToRemove      int     `json:"actions_to_remove"`
}

// ExecutionReport is the archived record of one plan run.
type ExecutionReport struct {
	PlanID      string               `json:"plan_id"`
	Status      PlanStatus           `json:"status"`
	Completed   int                  `json:"completed"`
	Failed      int                  `json:"failed"`
	BudgetSpent float64              `json:"budget_spent"`
	Channels    []ChannelPerformance `json:"channels"`
	StartedAt   *time.Time           `json:"started_at"`
	EndedAt     *time.Time           `json:"ended_at"`
	GeneratedAt time.Time            `json:"generated_at"`
}
