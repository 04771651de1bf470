package planner

import (
	"math/rand"
	"sync"
	"time"

	"github.com/ignite/hcp-engage/internal/domain"
)

// OutcomeSimulator produces the observed result for one executed allocation.
// The planner treats outcomes as external facts; swapping the simulator is
// how integrations feed real engagement data back in.
type OutcomeSimulator interface {
	Simulate(alloc domain.Allocation) domain.AllocationOutcome
}

// SimulatedOutcomes draws outcomes from a seeded random source. The noise on
// actual lift scales inversely with the allocation's confidence: a 90-percent
// confidence touch lands close to its prediction, a 40-percent one swings wide.
type SimulatedOutcomes struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewSimulatedOutcomes creates a simulator with a fixed seed so runs are
// reproducible in tests.
func NewSimulatedOutcomes(seed int64) *SimulatedOutcomes {
	return &SimulatedOutcomes{
		rnd: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Simulate returns a randomized outcome for the allocation.
func (s *SimulatedOutcomes) Simulate(alloc domain.Allocation) domain.AllocationOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	confidence := alloc.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	// Noise amplitude shrinks as confidence grows.
	spread := 1.0 - confidence/100
	factor := 1.0 + (s.rnd.Float64()*2-1)*spread
	if factor < 0 {
		factor = 0
	}

	// Success probability runs from 50 percent at zero confidence up to
	// near-certain at full confidence.
	succeeded := s.rnd.Float64()*100 < 50+confidence/2

	lift := alloc.PredictedLift * factor
	if !succeeded {
		lift = 0
	}
	return domain.AllocationOutcome{
		ActualLift: lift,
		Succeeded:  succeeded,
		ObservedAt: s.now(),
	}
}

// RecordedOutcomes replays a static set of outcomes keyed by allocation id.
// Allocations without a recorded outcome succeed at exactly their prediction.
type RecordedOutcomes struct {
	Outcomes map[string]domain.AllocationOutcome
}

// Simulate looks up the recorded outcome for the allocation.
func (r *RecordedOutcomes) Simulate(alloc domain.Allocation) domain.AllocationOutcome {
	if out, ok := r.Outcomes[alloc.ID]; ok {
		return out
	}
	return domain.AllocationOutcome{
		ActualLift: alloc.PredictedLift,
		Succeeded:  true,
		ObservedAt: time.Now(),
	}
}
