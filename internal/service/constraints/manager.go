package constraints

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/hcp-engage/internal/domain"
)

// Utilization levels above which checks emit warnings.
const (
	capacityWarnPct = 80.0
	budgetWarnPct   = 90.0
)

// Manager validates proposed actions and owns the standing-resource
// mutations. Safe for concurrent use if the repositories are.
type Manager struct {
	capacity  CapacityRepository
	contacts  ContactRepository
	windows   ComplianceRepository
	budgets   BudgetRepository
	territory TerritoryRepository
	profiles  ProfileReader
	guard     CapacityGuard // optional
}

// SetCapacityGuard installs an atomic booking guard consulted before the
// SQL capacity consume.
func (m *Manager) SetCapacityGuard(g CapacityGuard) {
	m.guard = g
}

// NewManager creates a constraint manager over the given repositories.
func NewManager(
	capacity CapacityRepository,
	contacts ContactRepository,
	windows ComplianceRepository,
	budgets BudgetRepository,
	territory TerritoryRepository,
	profiles ProfileReader,
) *Manager {
	return &Manager{
		capacity:  capacity,
		contacts:  contacts,
		windows:   windows,
		budgets:   budgets,
		territory: territory,
		profiles:  profiles,
	}
}

// Check validates one proposed action across all five dimensions. The checks
// are independent; ordering only affects which violation surfaces first.
func (m *Manager) Check(ctx context.Context, action domain.ProposedAction) (*domain.ConstraintResult, error) {
	if !action.Channel.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChannel, action.Channel)
	}

	result := &domain.ConstraintResult{}

	if err := m.checkCapacity(ctx, action, result); err != nil {
		return nil, err
	}
	if err := m.checkContactLimits(ctx, action, result); err != nil {
		return nil, err
	}
	if err := m.checkCompliance(ctx, action, result); err != nil {
		return nil, err
	}
	if err := m.checkBudget(ctx, action, result); err != nil {
		return nil, err
	}
	if err := m.checkTerritory(ctx, action, result); err != nil {
		return nil, err
	}

	result.Passed = !result.HasError()
	return result, nil
}

func (m *Manager) checkCapacity(ctx context.Context, action domain.ProposedAction, result *domain.ConstraintResult) error {
	cap, err := m.capacity.Get(ctx, action.Channel, action.RepID)
	if errors.Is(err, ErrNotFound) {
		// No capacity row means the channel is unconstrained.
		return nil
	}
	if err != nil {
		return fmt.Errorf("load capacity: %w", err)
	}

	util := cap.Utilization()
	result.CapacityStatus = &domain.CapacityStatus{
		Channel:        cap.Channel,
		RepID:          cap.RepID,
		DailyUsed:      cap.DailyUsed,
		DailyLimit:     cap.DailyLimit,
		WeeklyUsed:     cap.WeeklyUsed,
		WeeklyLimit:    cap.WeeklyLimit,
		MonthlyUsed:    cap.MonthlyUsed,
		MonthlyLimit:   cap.MonthlyLimit,
		UtilizationPct: util,
	}

	if cap.Exhausted() {
		result.Violations = append(result.Violations, domain.Violation{
			Type:     domain.ViolationCapacity,
			Reason:   fmt.Sprintf("%s capacity exhausted (%.0f%% utilized)", action.Channel, util),
			Severity: domain.SeverityError,
		})
		return nil
	}
	if util > capacityWarnPct {
		result.Violations = append(result.Violations, domain.Violation{
			Type:     domain.ViolationCapacity,
			Reason:   fmt.Sprintf("%s capacity at %.0f%% utilization", action.Channel, util),
			Severity: domain.SeverityWarning,
		})
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s capacity above %.0f%% utilization", action.Channel, capacityWarnPct))
	}
	return nil
}

func (m *Manager) checkContactLimits(ctx context.Context, action domain.ProposedAction, result *domain.ConstraintResult) error {
	limits, err := m.contacts.Get(ctx, action.HCPID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load contact limits: %w", err)
	}

	if limits.DoNotContact {
		result.Violations = append(result.Violations, domain.Violation{
			Type:     domain.ViolationContactLimit,
			Reason:   "HCP is flagged do-not-contact",
			Severity: domain.SeverityError,
		})
		return nil
	}

	if limits.MaxPerMonth > 0 && limits.TouchesThisMonth >= limits.MaxPerMonth {
		result.Violations = append(result.Violations, domain.Violation{
			Type:     domain.ViolationContactLimit,
			Reason:   fmt.Sprintf("monthly touch limit reached (%d/%d)", limits.TouchesThisMonth, limits.MaxPerMonth),
			Severity: domain.SeverityError,
		})
	}
	if limits.MaxPerWeek > 0 && limits.TouchesThisWeek >= limits.MaxPerWeek {
		result.Violations = append(result.Violations, domain.Violation{
			Type:     domain.ViolationContactLimit,
			Reason:   fmt.Sprintf("weekly touch limit reached (%d/%d)", limits.TouchesThisWeek, limits.MaxPerWeek),
			Severity: domain.SeverityError,
		})
	}

	for _, cd := range limits.Cooldowns {
		if cd.Channel != action.Channel || cd.CooldownDays <= 0 {
			continue
		}
		last, ok := limits.LastByChannel[action.Channel]
		if !ok {
			continue
		}
		elapsed := int(action.PlannedDate.Sub(last).Hours() / 24)
		if elapsed < cd.CooldownDays {
			result.Violations = append(result.Violations, domain.Violation{
				Type:     domain.ViolationContactLimit,
				Reason:   fmt.Sprintf("%s cooldown not elapsed (%d of %d days)", action.Channel, elapsed, cd.CooldownDays),
				Severity: domain.SeverityError,
			})
		}
	}
	return nil
}

func (m *Manager) checkCompliance(ctx context.Context, action domain.ProposedAction, result *domain.ConstraintResult) error {
	windows, err := m.windows.ActiveWindows(ctx, action.PlannedDate)
	if err != nil {
		return fmt.Errorf("load compliance windows: %w", err)
	}
	if len(windows) == 0 {
		return nil
	}

	// Specialty/territory scoping needs the profile; load it once, lazily.
	var profile *domain.HCPProfile
	loadProfile := func() (*domain.HCPProfile, error) {
		if profile != nil {
			return profile, nil
		}
		p, err := m.profiles.Get(ctx, action.HCPID)
		if err != nil {
			return nil, fmt.Errorf("load hcp profile: %w", err)
		}
		profile = p
		return p, nil
	}

	for _, w := range windows {
		if !w.IsActive || !w.Covers(action.PlannedDate) {
			continue
		}
		if w.Channel != nil && *w.Channel != action.Channel {
			continue
		}

		matched, err := windowMatchesHCP(&w, action.HCPID, loadProfile)
		if err != nil {
			return err
		}
		if !matched {
			continue
		}

		result.Violations = append(result.Violations, domain.Violation{
			Type: domain.ViolationCompliance,
			Reason: fmt.Sprintf("blackout window %q active %s to %s",
				w.WindowType, w.StartDate.Format("2006-01-02"), w.EndDate.Format("2006-01-02")),
			Severity: domain.SeverityError,
		})
	}
	return nil
}

// windowMatchesHCP applies the window's scope: an explicit HCP id list, a
// specialty list, a territory list, or no scope at all (matches everyone).
func windowMatchesHCP(w *domain.ComplianceWindow, hcpID string, loadProfile func() (*domain.HCPProfile, error)) (bool, error) {
	if len(w.HCPIDs) == 0 && len(w.Specialties) == 0 && len(w.Territories) == 0 {
		return true, nil
	}
	for _, id := range w.HCPIDs {
		if id == hcpID {
			return true, nil
		}
	}
	if len(w.Specialties) > 0 || len(w.Territories) > 0 {
		p, err := loadProfile()
		if err != nil {
			return false, err
		}
		for _, s := range w.Specialties {
			if s == p.Specialty {
				return true, nil
			}
		}
		for _, t := range w.Territories {
			if t == p.TerritoryID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *Manager) checkBudget(ctx context.Context, action domain.ProposedAction, result *domain.ConstraintResult) error {
	if action.EstimatedCost <= 0 || action.CampaignID == "" {
		return nil
	}

	budget, err := m.budgets.Get(ctx, action.CampaignID, action.Channel)
	if errors.Is(err, ErrNotFound) {
		// No pool configured for this campaign/channel: unconstrained.
		return nil
	}
	if err != nil {
		return fmt.Errorf("load budget: %w", err)
	}

	available := budget.Available()
	util := 0.0
	if budget.Allocated > 0 {
		util = (budget.Spent + budget.Committed) / budget.Allocated * 100
	}
	result.BudgetStatus = &domain.BudgetStatus{
		CampaignID:     budget.CampaignID,
		Channel:        budget.Channel,
		Allocated:      budget.Allocated,
		Spent:          budget.Spent,
		Committed:      budget.Committed,
		Available:      available,
		UtilizationPct: util,
	}

	if action.EstimatedCost > available {
		result.Violations = append(result.Violations, domain.Violation{
			Type:     domain.ViolationBudget,
			Reason:   fmt.Sprintf("cost %.2f exceeds available budget %.2f", action.EstimatedCost, available),
			Severity: domain.SeverityError,
		})
		return nil
	}
	if util > budgetWarnPct {
		result.Violations = append(result.Violations, domain.Violation{
			Type:     domain.ViolationBudget,
			Reason:   fmt.Sprintf("budget at %.0f%% utilization", util),
			Severity: domain.SeverityWarning,
		})
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("budget for campaign %s above %.0f%% utilization", action.CampaignID, budgetWarnPct))
	}
	return nil
}

func (m *Manager) checkTerritory(ctx context.Context, action domain.ProposedAction, result *domain.ConstraintResult) error {
	if action.RepID == "" {
		return nil
	}
	ok, err := m.territory.HasActiveAssignment(ctx, action.RepID, action.HCPID)
	if err != nil {
		return fmt.Errorf("check territory: %w", err)
	}
	if !ok {
		// Misaligned territory is a caution, not a hard block.
		result.Violations = append(result.Violations, domain.Violation{
			Type:     domain.ViolationTerritory,
			Reason:   fmt.Sprintf("rep %s has no active assignment to HCP %s", action.RepID, action.HCPID),
			Severity: domain.SeverityWarning,
		})
		result.Warnings = append(result.Warnings, "rep is outside the HCP's territory")
	}
	return nil
}
