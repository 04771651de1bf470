package planner_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/pkg/distlock"
	"github.com/ignite/hcp-engage/internal/service/planner"
)

// ---------------------------------------------------------------------------
// In-memory repositories and a fake constraint gate
// ---------------------------------------------------------------------------

type memPlans struct {
	mu    sync.Mutex
	plans map[string]*domain.ExecutionPlan
}

func newMemPlans() *memPlans { return &memPlans{plans: map[string]*domain.ExecutionPlan{}} }

func (m *memPlans) Create(_ context.Context, p *domain.ExecutionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

func (m *memPlans) Get(_ context.Context, id string) (*domain.ExecutionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, planner.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlans) Update(_ context.Context, p *domain.ExecutionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[p.ID]; !ok {
		return planner.ErrNotFound
	}
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

func (m *memPlans) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return planner.ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

func (m *memPlans) ListDue(_ context.Context, t time.Time) ([]domain.ExecutionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ExecutionPlan
	for _, p := range m.plans {
		if p.Status == domain.PlanScheduled && p.ScheduledStartAt != nil && !p.ScheduledStartAt.After(t) {
			out = append(out, *p)
		}
	}
	return out, nil
}

type memAllocs struct {
	mu     sync.Mutex
	allocs map[string]*domain.Allocation
	order  []string
}

func newMemAllocs() *memAllocs { return &memAllocs{allocs: map[string]*domain.Allocation{}} }

func (m *memAllocs) CreateBatch(_ context.Context, batch []domain.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range batch {
		cp := batch[i]
		m.allocs[cp.ID] = &cp
		m.order = append(m.order, cp.ID)
	}
	return nil
}

func (m *memAllocs) ListByPlan(_ context.Context, planID string) ([]domain.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Allocation
	for _, id := range m.order {
		if a := m.allocs[id]; a.PlanID == planID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAllocs) Update(_ context.Context, a *domain.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.allocs[a.ID]; !ok {
		return planner.ErrNotFound
	}
	cp := *a
	m.allocs[a.ID] = &cp
	return nil
}

// fakeGate tracks capacity and budget balances so round-trip tests can assert
// restoration. HCP ids in failHCPs fail the constraint check.
type fakeGate struct {
	mu        sync.Mutex
	failHCPs  map[string]bool
	capacity  map[domain.Channel]int
	committed map[string]float64
	spent     map[string]float64
	contacts  int
}

func newFakeGate() *fakeGate {
	return &fakeGate{
		failHCPs:  map[string]bool{},
		capacity:  map[domain.Channel]int{},
		committed: map[string]float64{},
		spent:     map[string]float64{},
	}
}

func (g *fakeGate) Check(_ context.Context, a domain.ProposedAction) (*domain.ConstraintResult, error) {
	if g.failHCPs[a.HCPID] {
		return &domain.ConstraintResult{
			Passed: false,
			Violations: []domain.Violation{{
				Type: domain.ViolationContactLimit, Reason: "do not contact", Severity: domain.SeverityError,
			}},
		}, nil
	}
	return &domain.ConstraintResult{Passed: true}, nil
}

func (g *fakeGate) ConsumeCapacity(_ context.Context, c domain.Channel, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.capacity[c]++
	return nil
}

func (g *fakeGate) ReleaseCapacity(_ context.Context, c domain.Channel, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.capacity[c] > 0 {
		g.capacity[c]--
	}
	return nil
}

func (g *fakeGate) CommitBudget(_ context.Context, campaign string, _ domain.Channel, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.committed[campaign] += amount
	return nil
}

func (g *fakeGate) ReleaseBudget(_ context.Context, campaign string, _ domain.Channel, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.committed[campaign] -= amount
	if g.committed[campaign] < 0 {
		g.committed[campaign] = 0
	}
	return nil
}

func (g *fakeGate) RecordSpend(_ context.Context, campaign string, _ domain.Channel, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.committed[campaign] -= amount
	g.spent[campaign] += amount
	return nil
}

func (g *fakeGate) RecordContact(_ context.Context, _ string, _ domain.Channel, _ time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.contacts++
	return nil
}

// ---------------------------------------------------------------------------

type fixture struct {
	plans  *memPlans
	allocs *memAllocs
	gate   *fakeGate
	sim    *planner.RecordedOutcomes
	svc    *planner.Service
}

func newFixture() *fixture {
	f := &fixture{
		plans:  newMemPlans(),
		allocs: newMemAllocs(),
		gate:   newFakeGate(),
		sim:    &planner.RecordedOutcomes{Outcomes: map[string]domain.AllocationOutcome{}},
	}
	f.svc = planner.NewService(f.plans, f.allocs, f.gate, f.sim)
	return f
}

func makeAllocs(n int) []domain.Allocation {
	out := make([]domain.Allocation, n)
	for i := range out {
		out[i] = domain.Allocation{
			ID:            fmt.Sprintf("alloc-%d", i),
			HCPID:         fmt.Sprintf("hcp-%d", i),
			Channel:       domain.ChannelEmail,
			ActionType:    domain.ActionReachOut,
			PlannedDate:   time.Date(2026, 4, 1+i, 9, 0, 0, 0, time.UTC),
			EstimatedCost: 10,
			PredictedLift: 5,
			Confidence:    80,
			Priority:      i,
		}
	}
	return out
}

func mustCreate(t *testing.T, f *fixture, n int) *domain.ExecutionPlan {
	t.Helper()
	plan, err := f.svc.CreatePlan(context.Background(), "result-1", makeAllocs(n), nil)
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return plan
}

func mustBook(t *testing.T, f *fixture, planID string) *planner.BookingResult {
	t.Helper()
	res, err := f.svc.Book(context.Background(), planID)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return res
}

func TestCreatePlan(t *testing.T) {
	f := newFixture()
	plan := mustCreate(t, f, 3)

	if plan.Status != domain.PlanDraft {
		t.Fatalf("expected draft, got %s", plan.Status)
	}
	if plan.TotalActions != 3 || plan.BudgetAllocated != 30 {
		t.Fatalf("unexpected totals: %+v", plan)
	}
	allocs, _ := f.allocs.ListByPlan(context.Background(), plan.ID)
	for _, a := range allocs {
		if a.Status != domain.AllocationPlanned || a.PlanID != plan.ID {
			t.Fatalf("unexpected allocation: %+v", a)
		}
	}
}

func TestCreatePlanRejectsEmptyBatch(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.CreatePlan(context.Background(), "result-1", nil, nil); !errors.Is(err, planner.ErrNoAllocations) {
		t.Fatalf("expected ErrNoAllocations, got %v", err)
	}
}

func TestBookSkipsConstraintFailures(t *testing.T) {
	f := newFixture()
	f.gate.failHCPs["hcp-1"] = true
	plan := mustCreate(t, f, 3)

	res := mustBook(t, f, plan.ID)
	if res.Booked != 2 || res.Skipped != 1 {
		t.Fatalf("expected 2 booked 1 skipped, got %+v", res)
	}
	if len(res.Errors) != 1 || res.Errors[0].AllocationID != "alloc-1" {
		t.Fatalf("expected error for alloc-1, got %+v", res.Errors)
	}

	got, _ := f.plans.Get(context.Background(), plan.ID)
	if got.Status != domain.PlanScheduled {
		t.Fatalf("expected scheduled, got %s", got.Status)
	}
	if f.gate.capacity[domain.ChannelEmail] != 2 || f.gate.committed[""] != 20 {
		t.Fatalf("expected resources held for booked only: %+v %+v", f.gate.capacity, f.gate.committed)
	}
}

func TestBookNothingBookableStaysDraft(t *testing.T) {
	f := newFixture()
	f.gate.failHCPs["hcp-0"] = true
	f.gate.failHCPs["hcp-1"] = true
	plan := mustCreate(t, f, 2)

	res, err := f.svc.Book(context.Background(), plan.ID)
	if !errors.Is(err, planner.ErrNothingBooked) {
		t.Fatalf("expected ErrNothingBooked, got %v", err)
	}
	if res.Booked != 0 || res.Skipped != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	got, _ := f.plans.Get(context.Background(), plan.ID)
	if got.Status != domain.PlanDraft {
		t.Fatalf("plan must stay draft, got %s", got.Status)
	}
}

func TestBookRequiresDraft(t *testing.T) {
	f := newFixture()
	plan := mustCreate(t, f, 2)
	mustBook(t, f, plan.ID)

	if _, err := f.svc.Book(context.Background(), plan.ID); !errors.Is(err, planner.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestExecuteCompletesPlan(t *testing.T) {
	f := newFixture()
	plan := mustCreate(t, f, 3)
	mustBook(t, f, plan.ID)

	report, err := f.svc.Execute(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if report.Completed != 3 || report.Failed != 0 {
		t.Fatalf("expected 3 completed, got %+v", report)
	}
	if report.Status != domain.PlanCompleted {
		t.Fatalf("expected completed, got %s", report.Status)
	}
	if report.BudgetSpent != 30 {
		t.Fatalf("expected spend 30, got %.2f", report.BudgetSpent)
	}
	if f.gate.spent[""] != 30 || f.gate.committed[""] != 0 {
		t.Fatalf("committed must convert to spend: %+v %+v", f.gate.committed, f.gate.spent)
	}
	if f.gate.contacts != 3 {
		t.Fatalf("expected 3 contacts recorded, got %d", f.gate.contacts)
	}

	got, _ := f.plans.Get(context.Background(), plan.ID)
	if got.ActualStartAt == nil || got.ActualEndAt == nil {
		t.Fatal("expected start and end timestamps")
	}
}

func TestExecuteFailedOutcomeReleasesBudget(t *testing.T) {
	f := newFixture()
	plan := mustCreate(t, f, 2)
	f.sim.Outcomes["alloc-1"] = domain.AllocationOutcome{Succeeded: false}
	mustBook(t, f, plan.ID)

	report, err := f.svc.Execute(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if report.Completed != 1 || report.Failed != 1 {
		t.Fatalf("expected 1/1, got %+v", report)
	}
	// Failed touch returns its committed money; nothing left held.
	if f.gate.committed[""] != 0 || f.gate.spent[""] != 10 {
		t.Fatalf("budget settlement wrong: committed=%+v spent=%+v", f.gate.committed, f.gate.spent)
	}
	if report.Status != domain.PlanCompleted {
		t.Fatalf("plan completes once all actions settle, got %s", report.Status)
	}

	allocs, _ := f.allocs.ListByPlan(context.Background(), plan.ID)
	for _, a := range allocs {
		if a.ID == "alloc-1" && a.Status != domain.AllocationFailed {
			t.Fatalf("expected alloc-1 failed, got %s", a.Status)
		}
	}
}

func TestExecuteRequiresScheduledOrPaused(t *testing.T) {
	f := newFixture()
	plan := mustCreate(t, f, 1)
	if _, err := f.svc.Execute(context.Background(), plan.ID); !errors.Is(err, planner.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for draft, got %v", err)
	}
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	f := newFixture()
	plan := mustCreate(t, f, 3)
	mustBook(t, f, plan.ID)

	// Cancel after the first allocation settles.
	ctx, cancel := context.WithCancel(context.Background())
	cancelSim := &cancellingSim{inner: f.sim, cancel: cancel, after: 1}
	svc := planner.NewService(f.plans, f.allocs, f.gate, cancelSim)

	_, err := svc.Execute(ctx, plan.ID)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	got, _ := f.plans.Get(context.Background(), plan.ID)
	if got.Status != domain.PlanExecuting {
		t.Fatalf("interrupted plan stays executing, got %s", got.Status)
	}
	allocs, _ := f.allocs.ListByPlan(context.Background(), plan.ID)
	settled := 0
	for _, a := range allocs {
		if a.Status == domain.AllocationCompleted || a.Status == domain.AllocationFailed {
			settled++
		}
	}
	if settled != 1 {
		t.Fatalf("expected exactly one settled allocation, got %d", settled)
	}
}

// cancellingSim cancels the context after a fixed number of simulations.
type cancellingSim struct {
	inner  planner.OutcomeSimulator
	cancel context.CancelFunc
	after  int
	count  int
}

func (c *cancellingSim) Simulate(a domain.Allocation) domain.AllocationOutcome {
	out := c.inner.Simulate(a)
	c.count++
	if c.count >= c.after {
		c.cancel()
	}
	return out
}

func TestExecuteRespectsPlanLock(t *testing.T) {
	f := newFixture()
	plan := mustCreate(t, f, 1)
	mustBook(t, f, plan.ID)

	f.svc.WithLocks(func(string) distlock.DistLock { return &heldLock{} })
	if _, err := f.svc.Execute(context.Background(), plan.ID); !errors.Is(err, planner.ErrPlanLocked) {
		t.Fatalf("expected ErrPlanLocked, got %v", err)
	}
}

type heldLock struct{}

func (heldLock) Acquire(context.Context) (bool, error) { return false, nil }
func (heldLock) Release(context.Context) error         { return nil }

func TestPauseResumeGuards(t *testing.T) {
	f := newFixture()
	plan := mustCreate(t, f, 1)
	ctx := context.Background()

	if err := f.svc.Pause(ctx, plan.ID); !errors.Is(err, planner.ErrInvalidTransition) {
		t.Fatalf("pause of draft must fail, got %v", err)
	}
	if err := f.svc.Resume(ctx, plan.ID); !errors.Is(err, planner.ErrInvalidTransition) {
		t.Fatalf("resume of draft must fail, got %v", err)
	}

	// Force plan into executing and exercise the valid flips.
	got, _ := f.plans.Get(ctx, plan.ID)
	got.Status = domain.PlanExecuting
	f.plans.Update(ctx, got)

	if err := f.svc.Pause(ctx, plan.ID); err != nil {
		t.Fatalf("pause executing: %v", err)
	}
	if err := f.svc.Pause(ctx, plan.ID); !errors.Is(err, planner.ErrInvalidTransition) {
		t.Fatalf("double pause must fail, got %v", err)
	}
	if err := f.svc.Resume(ctx, plan.ID); err != nil {
		t.Fatalf("resume paused: %v", err)
	}
}

func TestCancelReleasesPendingResources(t *testing.T) {
	f := newFixture()
	plan := mustCreate(t, f, 3)
	mustBook(t, f, plan.ID)
	ctx := context.Background()

	if err := f.svc.Cancel(ctx, plan.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, _ := f.plans.Get(ctx, plan.ID)
	if got.Status != domain.PlanCancelled || got.ActualEndAt == nil {
		t.Fatalf("expected cancelled with end timestamp, got %+v", got)
	}
	if f.gate.capacity[domain.ChannelEmail] != 0 || f.gate.committed[""] != 0 {
		t.Fatalf("booked resources must be returned: %+v %+v", f.gate.capacity, f.gate.committed)
	}
	allocs, _ := f.allocs.ListByPlan(ctx, plan.ID)
	for _, a := range allocs {
		if a.Status != domain.AllocationCancelled {
			t.Fatalf("expected all allocations cancelled, got %s", a.Status)
		}
	}

	if err := f.svc.Cancel(ctx, plan.ID); !errors.Is(err, planner.ErrInvalidTransition) {
		t.Fatalf("cancel of terminal plan must fail, got %v", err)
	}
}

func TestBookThenReleaseRoundTrip(t *testing.T) {
	f := newFixture()
	plan := mustCreate(t, f, 3)
	ctx := context.Background()

	mustBook(t, f, plan.ID)
	if err := f.svc.Release(ctx, plan.ID); err != nil {
		t.Fatalf("release: %v", err)
	}

	got, _ := f.plans.Get(ctx, plan.ID)
	if got.Status != domain.PlanDraft {
		t.Fatalf("expected draft after release, got %s", got.Status)
	}
	allocs, _ := f.allocs.ListByPlan(ctx, plan.ID)
	for _, a := range allocs {
		if a.Status != domain.AllocationPlanned {
			t.Fatalf("expected planned after release, got %s", a.Status)
		}
	}
	if f.gate.capacity[domain.ChannelEmail] != 0 || f.gate.committed[""] != 0 {
		t.Fatalf("capacity and budget must return to pre-booking values: %+v %+v", f.gate.capacity, f.gate.committed)
	}
}

func TestDeleteDraftOnly(t *testing.T) {
	f := newFixture()
	plan := mustCreate(t, f, 1)
	ctx := context.Background()

	mustBook(t, f, plan.ID)
	if err := f.svc.Delete(ctx, plan.ID); !errors.Is(err, planner.ErrInvalidTransition) {
		t.Fatalf("delete of scheduled plan must fail, got %v", err)
	}

	if err := f.svc.Release(ctx, plan.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := f.svc.Delete(ctx, plan.ID); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
	if _, err := f.plans.Get(ctx, plan.ID); !errors.Is(err, planner.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestSimulatedOutcomesBoundedByConfidence(t *testing.T) {
	sim := planner.NewSimulatedOutcomes(42)
	a := domain.Allocation{ID: "a", PredictedLift: 10, Confidence: 90}
	for i := 0; i < 200; i++ {
		out := sim.Simulate(a)
		if out.Succeeded && (out.ActualLift < 9 || out.ActualLift > 11) {
			t.Fatalf("high confidence lift out of band: %.2f", out.ActualLift)
		}
		if out.ActualLift < 0 {
			t.Fatalf("negative lift: %.2f", out.ActualLift)
		}
	}
}
