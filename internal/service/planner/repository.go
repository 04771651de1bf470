package planner

import (
	"context"
	"time"

	"github.com/ignite/hcp-engage/internal/domain"
)

// PlanRepository persists execution plans. Implementations return ErrNotFound
// for missing ids.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.ExecutionPlan) error
	Get(ctx context.Context, id string) (*domain.ExecutionPlan, error)
	Update(ctx context.Context, plan *domain.ExecutionPlan) error
	Delete(ctx context.Context, id string) error

	// ListDue returns scheduled plans whose scheduled start is at or before t.
	ListDue(ctx context.Context, t time.Time) ([]domain.ExecutionPlan, error)
}

// AllocationRepository persists the allocations belonging to plans.
type AllocationRepository interface {
	CreateBatch(ctx context.Context, allocs []domain.Allocation) error
	ListByPlan(ctx context.Context, planID string) ([]domain.Allocation, error)
	Update(ctx context.Context, alloc *domain.Allocation) error
}

// ConstraintGate is the slice of the constraint manager the planner books
// and settles resources through.
type ConstraintGate interface {
	Check(ctx context.Context, action domain.ProposedAction) (*domain.ConstraintResult, error)
	ConsumeCapacity(ctx context.Context, channel domain.Channel, repID string) error
	ReleaseCapacity(ctx context.Context, channel domain.Channel, repID string) error
	CommitBudget(ctx context.Context, campaignID string, channel domain.Channel, amount float64) error
	ReleaseBudget(ctx context.Context, campaignID string, channel domain.Channel, amount float64) error
	RecordSpend(ctx context.Context, campaignID string, channel domain.Channel, amount float64) error
	RecordContact(ctx context.Context, hcpID string, channel domain.Channel, at time.Time) error
}

// ReportArchiver stores a finished plan's execution report. Implementations
// live in internal/storage; a nil archiver disables archiving.
type ReportArchiver interface {
	ArchiveReport(ctx context.Context, report *domain.ExecutionReport) (string, error)
}
