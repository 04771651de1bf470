package constraints_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ignite/hcp-engage/internal/domain"
	"github.com/ignite/hcp-engage/internal/service/constraints"
)

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

type memCapacity struct {
	mu   sync.Mutex
	rows map[string]*domain.ChannelCapacity // keyed channel|rep
}

func capKey(c domain.Channel, rep string) string { return string(c) + "|" + rep }

func (m *memCapacity) Get(_ context.Context, c domain.Channel, rep string) (*domain.ChannelCapacity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[capKey(c, rep)]
	if !ok {
		return nil, constraints.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memCapacity) Consume(_ context.Context, c domain.Channel, rep string, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[capKey(c, rep)]
	if !ok {
		return nil
	}
	over := func(used, limit int) bool { return limit > 0 && used+n > limit }
	if over(row.DailyUsed, row.DailyLimit) || over(row.WeeklyUsed, row.WeeklyLimit) || over(row.MonthlyUsed, row.MonthlyLimit) {
		return constraints.ErrCapacityExhausted
	}
	row.DailyUsed += n
	row.WeeklyUsed += n
	row.MonthlyUsed += n
	return nil
}

func (m *memCapacity) Release(_ context.Context, c domain.Channel, rep string, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[capKey(c, rep)]
	if !ok {
		return nil
	}
	floor := func(v int) int {
		if v < 0 {
			return 0
		}
		return v
	}
	row.DailyUsed = floor(row.DailyUsed - n)
	row.WeeklyUsed = floor(row.WeeklyUsed - n)
	row.MonthlyUsed = floor(row.MonthlyUsed - n)
	return nil
}

type memContacts struct {
	mu   sync.Mutex
	rows map[string]*domain.ContactLimits
}

func (m *memContacts) Get(_ context.Context, hcpID string) (*domain.ContactLimits, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[hcpID]
	if !ok {
		return nil, constraints.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memContacts) RecordContact(_ context.Context, hcpID string, c domain.Channel, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[hcpID]
	if !ok {
		return nil
	}
	row.TouchesThisWeek++
	row.TouchesThisMonth++
	row.LastContactAt = &at
	row.LastChannel = c
	if row.LastByChannel == nil {
		row.LastByChannel = map[domain.Channel]time.Time{}
	}
	row.LastByChannel[c] = at
	return nil
}

type memWindows struct{ windows []domain.ComplianceWindow }

func (m *memWindows) ActiveWindows(_ context.Context, t time.Time) ([]domain.ComplianceWindow, error) {
	var out []domain.ComplianceWindow
	for _, w := range m.windows {
		if w.IsActive && w.Covers(t) {
			out = append(out, w)
		}
	}
	return out, nil
}

type memBudgets struct {
	mu   sync.Mutex
	rows map[string]*domain.BudgetAllocation // keyed campaign|channel
}

func budKey(campaign string, c domain.Channel) string { return campaign + "|" + string(c) }

func (m *memBudgets) Get(_ context.Context, campaign string, c domain.Channel) (*domain.BudgetAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[budKey(campaign, c)]
	if !ok {
		return nil, constraints.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memBudgets) Commit(_ context.Context, campaign string, c domain.Channel, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[budKey(campaign, c)]
	if !ok {
		return constraints.ErrNotFound
	}
	if amount > row.Available() {
		return constraints.ErrInsufficientBudget
	}
	row.Committed += amount
	return nil
}

func (m *memBudgets) ReleaseCommitment(_ context.Context, campaign string, c domain.Channel, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[budKey(campaign, c)]
	if !ok {
		return nil
	}
	row.Committed -= amount
	if row.Committed < 0 {
		row.Committed = 0
	}
	return nil
}

func (m *memBudgets) RecordSpend(_ context.Context, campaign string, c domain.Channel, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[budKey(campaign, c)]
	if !ok {
		return nil
	}
	row.Committed -= amount
	if row.Committed < 0 {
		row.Committed = 0
	}
	row.Spent += amount
	return nil
}

type memTerritory struct{ assignments map[string]bool } // keyed rep|hcp

func (m *memTerritory) HasActiveAssignment(_ context.Context, rep, hcp string) (bool, error) {
	return m.assignments[rep+"|"+hcp], nil
}

type memProfiles struct{ profiles map[string]*domain.HCPProfile }

func (m *memProfiles) Get(_ context.Context, id string) (*domain.HCPProfile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, constraints.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ---------------------------------------------------------------------------

type fixture struct {
	capacity  *memCapacity
	contacts  *memContacts
	windows   *memWindows
	budgets   *memBudgets
	territory *memTerritory
	profiles  *memProfiles
	mgr       *constraints.Manager
}

func newFixture() *fixture {
	f := &fixture{
		capacity:  &memCapacity{rows: map[string]*domain.ChannelCapacity{}},
		contacts:  &memContacts{rows: map[string]*domain.ContactLimits{}},
		windows:   &memWindows{},
		budgets:   &memBudgets{rows: map[string]*domain.BudgetAllocation{}},
		territory: &memTerritory{assignments: map[string]bool{}},
		profiles:  &memProfiles{profiles: map[string]*domain.HCPProfile{}},
	}
	f.profiles.profiles["hcp-1"] = &domain.HCPProfile{ID: "hcp-1", Specialty: "cardiology", TerritoryID: "t-ne"}
	f.mgr = constraints.NewManager(f.capacity, f.contacts, f.windows, f.budgets, f.territory, f.profiles)
	return f
}

func emailAction() domain.ProposedAction {
	return domain.ProposedAction{
		HCPID:       "hcp-1",
		Channel:     domain.ChannelEmail,
		ActionType:  domain.ActionReachOut,
		PlannedDate: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestCheckPassesWithNoStandingRows(t *testing.T) {
	f := newFixture()
	res, err := f.mgr.Check(context.Background(), emailAction())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Passed || len(res.Violations) != 0 {
		t.Fatalf("expected clean pass, got %+v", res)
	}
}

func TestCheckInvalidChannel(t *testing.T) {
	f := newFixture()
	a := emailAction()
	a.Channel = "carrier_pigeon"
	if _, err := f.mgr.Check(context.Background(), a); err == nil {
		t.Fatal("expected invalid channel error")
	}
}

func TestCheckCapacityExhausted(t *testing.T) {
	f := newFixture()
	f.capacity.rows[capKey(domain.ChannelEmail, "")] = &domain.ChannelCapacity{
		Channel: domain.ChannelEmail,
		DailyUsed: 10, DailyLimit: 10,
		WeeklyUsed: 10, WeeklyLimit: 50,
		MonthlyUsed: 10, MonthlyLimit: 200,
	}

	res, err := f.mgr.Check(context.Background(), emailAction())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Passed {
		t.Fatal("expected failure on exhausted capacity")
	}
	if res.Violations[0].Type != domain.ViolationCapacity || res.Violations[0].Severity != domain.SeverityError {
		t.Fatalf("unexpected violation: %+v", res.Violations[0])
	}
}

func TestCheckCapacityWarningAbove80(t *testing.T) {
	f := newFixture()
	f.capacity.rows[capKey(domain.ChannelEmail, "")] = &domain.ChannelCapacity{
		Channel: domain.ChannelEmail,
		DailyUsed: 9, DailyLimit: 10,
		WeeklyUsed: 9, WeeklyLimit: 50,
		MonthlyUsed: 9, MonthlyLimit: 200,
	}

	res, err := f.mgr.Check(context.Background(), emailAction())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Passed {
		t.Fatalf("warnings alone must not fail the check: %+v", res.Violations)
	}
	if len(res.Violations) != 1 || res.Violations[0].Severity != domain.SeverityWarning {
		t.Fatalf("expected one warning violation, got %+v", res.Violations)
	}
	if res.CapacityStatus == nil || res.CapacityStatus.UtilizationPct != 90 {
		t.Fatalf("expected 90%% utilization status, got %+v", res.CapacityStatus)
	}
}

func TestCheckDoNotContact(t *testing.T) {
	f := newFixture()
	f.contacts.rows["hcp-1"] = &domain.ContactLimits{HCPID: "hcp-1", DoNotContact: true}

	res, _ := f.mgr.Check(context.Background(), emailAction())
	if res.Passed {
		t.Fatal("do-not-contact must fail the check")
	}
	if res.Violations[0].Type != domain.ViolationContactLimit {
		t.Fatalf("unexpected violation type: %s", res.Violations[0].Type)
	}
}

func TestCheckMonthlyTouchLimit(t *testing.T) {
	f := newFixture()
	f.contacts.rows["hcp-1"] = &domain.ContactLimits{
		HCPID: "hcp-1", TouchesThisMonth: 8, MaxPerMonth: 8, MaxPerWeek: 10,
	}

	res, _ := f.mgr.Check(context.Background(), emailAction())
	if res.Passed {
		t.Fatal("monthly limit must fail the check")
	}
}

func TestCheckChannelCooldown(t *testing.T) {
	f := newFixture()
	a := emailAction()
	lastContact := a.PlannedDate.Add(-3 * 24 * time.Hour)
	f.contacts.rows["hcp-1"] = &domain.ContactLimits{
		HCPID:       "hcp-1",
		MaxPerMonth: 20, MaxPerWeek: 10,
		Cooldowns:     []domain.ChannelCooldown{{Channel: domain.ChannelEmail, CooldownDays: 7}},
		LastByChannel: map[domain.Channel]time.Time{domain.ChannelEmail: lastContact},
	}

	res, _ := f.mgr.Check(context.Background(), a)
	if res.Passed {
		t.Fatal("unelapsed cooldown must fail the check")
	}

	// 10 days later the cooldown has elapsed.
	a.PlannedDate = lastContact.Add(10 * 24 * time.Hour)
	res, _ = f.mgr.Check(context.Background(), a)
	if !res.Passed {
		t.Fatalf("elapsed cooldown must pass, got %+v", res.Violations)
	}
}

func TestCheckComplianceWindowScopes(t *testing.T) {
	f := newFixture()
	a := emailAction()
	email := domain.ChannelEmail

	base := domain.ComplianceWindow{
		ID: "w1", WindowType: "quiet_period", IsActive: true,
		StartDate: a.PlannedDate.Add(-24 * time.Hour),
		EndDate:   a.PlannedDate.Add(24 * time.Hour),
	}

	// Unscoped window blocks everyone.
	f.windows.windows = []domain.ComplianceWindow{base}
	res, _ := f.mgr.Check(context.Background(), a)
	if res.Passed {
		t.Fatal("unscoped active window must block")
	}

	// Channel-scoped window for another channel does not block email.
	phone := domain.ChannelPhone
	scoped := base
	scoped.Channel = &phone
	f.windows.windows = []domain.ComplianceWindow{scoped}
	res, _ = f.mgr.Check(context.Background(), a)
	if !res.Passed {
		t.Fatal("phone-scoped window must not block email")
	}

	// Specialty-scoped window matches the HCP's specialty.
	scoped = base
	scoped.Channel = &email
	scoped.Specialties = []string{"cardiology"}
	f.windows.windows = []domain.ComplianceWindow{scoped}
	res, _ = f.mgr.Check(context.Background(), a)
	if res.Passed {
		t.Fatal("specialty-scoped window must block a cardiologist")
	}

	// Explicit HCP list that doesn't include this HCP does not block.
	scoped = base
	scoped.HCPIDs = []string{"someone-else"}
	f.windows.windows = []domain.ComplianceWindow{scoped}
	res, _ = f.mgr.Check(context.Background(), a)
	if !res.Passed {
		t.Fatal("window scoped to other HCPs must not block")
	}

	// Window outside the planned date does not block.
	past := base
	past.StartDate = a.PlannedDate.Add(-72 * time.Hour)
	past.EndDate = a.PlannedDate.Add(-48 * time.Hour)
	f.windows.windows = []domain.ComplianceWindow{past}
	res, _ = f.mgr.Check(context.Background(), a)
	if !res.Passed {
		t.Fatal("expired window must not block")
	}
}

func TestCheckBudget(t *testing.T) {
	f := newFixture()
	f.budgets.rows[budKey("camp-1", domain.ChannelEmail)] = &domain.BudgetAllocation{
		CampaignID: "camp-1", Channel: domain.ChannelEmail,
		Allocated: 1000, Spent: 400, Committed: 520,
	}

	a := emailAction()
	a.CampaignID = "camp-1"
	a.EstimatedCost = 150 // available is 80

	res, _ := f.mgr.Check(context.Background(), a)
	if res.Passed {
		t.Fatal("cost above available budget must fail")
	}
	if res.BudgetStatus == nil || res.BudgetStatus.Available != 80 {
		t.Fatalf("expected available 80, got %+v", res.BudgetStatus)
	}

	a.EstimatedCost = 50
	res, _ = f.mgr.Check(context.Background(), a)
	if !res.Passed {
		t.Fatalf("affordable cost must pass, got %+v", res.Violations)
	}
	// 92% utilized already: expect a warning.
	if len(res.Warnings) == 0 {
		t.Fatal("expected budget utilization warning")
	}
}

func TestCheckTerritoryWarningOnly(t *testing.T) {
	f := newFixture()
	a := emailAction()
	a.RepID = "rep-9" // no assignment

	res, _ := f.mgr.Check(context.Background(), a)
	if !res.Passed {
		t.Fatal("territory mismatch must be a warning, not a failure")
	}
	if len(res.Violations) != 1 || res.Violations[0].Severity != domain.SeverityWarning {
		t.Fatalf("expected one warning, got %+v", res.Violations)
	}

	f.territory.assignments["rep-9|hcp-1"] = true
	res, _ = f.mgr.Check(context.Background(), a)
	if len(res.Violations) != 0 {
		t.Fatalf("assigned rep must not warn, got %+v", res.Violations)
	}
}

func TestCommitBudgetNeverOvercommits(t *testing.T) {
	f := newFixture()
	f.budgets.rows[budKey("camp-1", domain.ChannelEmail)] = &domain.BudgetAllocation{
		CampaignID: "camp-1", Channel: domain.ChannelEmail, Allocated: 100,
	}
	ctx := context.Background()

	if err := f.mgr.CommitBudget(ctx, "camp-1", domain.ChannelEmail, 80); err != nil {
		t.Fatalf("commit: %v", err)
	}
	err := f.mgr.CommitBudget(ctx, "camp-1", domain.ChannelEmail, 30)
	if err != constraints.ErrInsufficientBudget {
		t.Fatalf("expected ErrInsufficientBudget, got %v", err)
	}

	row, _ := f.budgets.Get(ctx, "camp-1", domain.ChannelEmail)
	if row.Available() != 20 {
		t.Fatalf("available = allocated - spent - committed violated: %.2f", row.Available())
	}
}

func TestReleaseBudgetFloorsAtZero(t *testing.T) {
	f := newFixture()
	f.budgets.rows[budKey("camp-1", domain.ChannelEmail)] = &domain.BudgetAllocation{
		CampaignID: "camp-1", Channel: domain.ChannelEmail, Allocated: 100, Committed: 10,
	}
	ctx := context.Background()

	f.mgr.ReleaseBudget(ctx, "camp-1", domain.ChannelEmail, 25)
	f.mgr.ReleaseBudget(ctx, "camp-1", domain.ChannelEmail, 25)

	row, _ := f.budgets.Get(ctx, "camp-1", domain.ChannelEmail)
	if row.Committed != 0 {
		t.Fatalf("double release must floor at zero, got %.2f", row.Committed)
	}
	if row.Available() != 100 {
		t.Fatalf("expected full budget back, got %.2f", row.Available())
	}
}

func TestConsumeAndReleaseCapacityRoundTrip(t *testing.T) {
	f := newFixture()
	f.capacity.rows[capKey(domain.ChannelEmail, "")] = &domain.ChannelCapacity{
		Channel: domain.ChannelEmail,
		DailyLimit: 10, WeeklyLimit: 50, MonthlyLimit: 200,
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := f.mgr.ConsumeCapacity(ctx, domain.ChannelEmail, ""); err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
	}
	row, _ := f.capacity.Get(ctx, domain.ChannelEmail, "")
	if row.DailyUsed != 3 {
		t.Fatalf("expected 3 used, got %d", row.DailyUsed)
	}

	for i := 0; i < 5; i++ { // over-release on purpose
		f.mgr.ReleaseCapacity(ctx, domain.ChannelEmail, "")
	}
	row, _ = f.capacity.Get(ctx, domain.ChannelEmail, "")
	if row.DailyUsed != 0 || row.WeeklyUsed != 0 || row.MonthlyUsed != 0 {
		t.Fatalf("expected counters floored at zero, got %+v", row)
	}
}

// stubGuard is an in-memory CapacityGuard for testing the fast-path wiring.
type stubGuard struct {
	mu      sync.Mutex
	deny    bool
	failing bool
	held    int
	refunds int
}

func (g *stubGuard) CheckAndConsume(_ context.Context, _ domain.Channel, _ string, count, _, _, _ int) (bool, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failing {
		return false, "", errors.New("guard down")
	}
	if g.deny {
		return false, "daily", nil
	}
	g.held += count
	return true, "", nil
}

func (g *stubGuard) Refund(_ context.Context, _ domain.Channel, _ string, count int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.held -= count
	g.refunds++
	return nil
}

func TestConsumeCapacityGuardDenies(t *testing.T) {
	f := newFixture()
	f.capacity.rows[capKey(domain.ChannelEmail, "")] = &domain.ChannelCapacity{
		Channel: domain.ChannelEmail,
		DailyLimit: 10, WeeklyLimit: 50, MonthlyLimit: 200,
	}
	guard := &stubGuard{deny: true}
	f.mgr.SetCapacityGuard(guard)
	ctx := context.Background()

	err := f.mgr.ConsumeCapacity(ctx, domain.ChannelEmail, "")
	if !errors.Is(err, constraints.ErrCapacityExhausted) {
		t.Fatalf("expected ErrCapacityExhausted, got %v", err)
	}
	row, _ := f.capacity.Get(ctx, domain.ChannelEmail, "")
	if row.DailyUsed != 0 {
		t.Fatalf("denied consume must not touch SQL counters, got %d used", row.DailyUsed)
	}
}

func TestConsumeCapacityGuardRefundedWhenSQLLoses(t *testing.T) {
	f := newFixture()
	f.capacity.rows[capKey(domain.ChannelEmail, "")] = &domain.ChannelCapacity{
		Channel: domain.ChannelEmail,
		DailyUsed: 10, DailyLimit: 10, WeeklyLimit: 50, MonthlyLimit: 200,
	}
	guard := &stubGuard{}
	f.mgr.SetCapacityGuard(guard)
	ctx := context.Background()

	err := f.mgr.ConsumeCapacity(ctx, domain.ChannelEmail, "")
	if !errors.Is(err, constraints.ErrCapacityExhausted) {
		t.Fatalf("expected ErrCapacityExhausted, got %v", err)
	}
	if guard.held != 0 || guard.refunds != 1 {
		t.Fatalf("guard unit not refunded: held=%d refunds=%d", guard.held, guard.refunds)
	}
}

func TestConsumeCapacityGuardOutageFallsBackToSQL(t *testing.T) {
	f := newFixture()
	f.capacity.rows[capKey(domain.ChannelEmail, "")] = &domain.ChannelCapacity{
		Channel: domain.ChannelEmail,
		DailyLimit: 10, WeeklyLimit: 50, MonthlyLimit: 200,
	}
	f.mgr.SetCapacityGuard(&stubGuard{failing: true})
	ctx := context.Background()

	if err := f.mgr.ConsumeCapacity(ctx, domain.ChannelEmail, ""); err != nil {
		t.Fatalf("guard outage must not block booking: %v", err)
	}
	row, _ := f.capacity.Get(ctx, domain.ChannelEmail, "")
	if row.DailyUsed != 1 {
		t.Fatalf("expected SQL consume to proceed, got %d used", row.DailyUsed)
	}
}

func TestConsumeCapacityGuardSkipsUnconstrainedChannel(t *testing.T) {
	f := newFixture()
	guard := &stubGuard{}
	f.mgr.SetCapacityGuard(guard)

	if err := f.mgr.ConsumeCapacity(context.Background(), domain.ChannelWebinar, ""); err != nil {
		t.Fatalf("unconstrained channel: %v", err)
	}
	if guard.held != 0 {
		t.Fatalf("guard must not be consulted without a capacity row, held=%d", guard.held)
	}
}

func TestReleaseCapacityRefundsGuard(t *testing.T) {
	f := newFixture()
	f.capacity.rows[capKey(domain.ChannelEmail, "")] = &domain.ChannelCapacity{
		Channel: domain.ChannelEmail,
		DailyLimit: 10, WeeklyLimit: 50, MonthlyLimit: 200,
	}
	guard := &stubGuard{}
	f.mgr.SetCapacityGuard(guard)
	ctx := context.Background()

	if err := f.mgr.ConsumeCapacity(ctx, domain.ChannelEmail, ""); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := f.mgr.ReleaseCapacity(ctx, domain.ChannelEmail, ""); err != nil {
		t.Fatalf("release: %v", err)
	}
	if guard.held != 0 {
		t.Fatalf("release must refund the guard, held=%d", guard.held)
	}
	row, _ := f.capacity.Get(ctx, domain.ChannelEmail, "")
	if row.DailyUsed != 0 {
		t.Fatalf("expected SQL counter released, got %d", row.DailyUsed)
	}
}

func TestCheckCapacityZeroLimitIsUnbounded(t *testing.T) {
	f := newFixture()
	f.capacity.rows[capKey(domain.ChannelEmail, "")] = &domain.ChannelCapacity{
		Channel:   domain.ChannelEmail,
		DailyUsed: 40, DailyLimit: 0, WeeklyLimit: 0, MonthlyLimit: 0,
	}
	ctx := context.Background()

	res, err := f.mgr.Check(ctx, emailAction())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.Passed {
		t.Fatalf("zero-limit windows must not count as exhausted: %+v", res.Violations)
	}
	if err := f.mgr.ConsumeCapacity(ctx, domain.ChannelEmail, ""); err != nil {
		t.Fatalf("consume against zero-limit window: %v", err)
	}
}

func TestRecordContact(t *testing.T) {
	f := newFixture()
	f.contacts.rows["hcp-1"] = &domain.ContactLimits{HCPID: "hcp-1", MaxPerWeek: 5, MaxPerMonth: 10}
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	if err := f.mgr.RecordContact(ctx, "hcp-1", domain.ChannelPhone, at); err != nil {
		t.Fatalf("record contact: %v", err)
	}
	row, _ := f.contacts.Get(ctx, "hcp-1")
	if row.TouchesThisMonth != 1 || row.LastChannel != domain.ChannelPhone {
		t.Fatalf("contact not recorded: %+v", row)
	}
}
