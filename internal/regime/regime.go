// Package regime holds the fixed market-regime parameter table and the
// Markov transition sampler that drives regime changes over time.
package regime

import "fmt"

// Tag identifies one of the five market regimes.
type Tag int

const (
	Calm Tag = iota
	Volatile
	Crash
	Rally
	Recovery
)

// All lists every regime tag in the fixed order used by the transition
// matrix rows/columns and by the Markov roll in TryTransition.
var All = [5]Tag{Calm, Volatile, Crash, Rally, Recovery}

func (t Tag) String() string {
	switch t {
	case Calm:
		return "CALM"
	case Volatile:
		return "VOLATILE"
	case Crash:
		return "CRASH"
	case Rally:
		return "RALLY"
	case Recovery:
		return "RECOVERY"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// Parse maps a lowercase regime name to its tag. ok is false for any
// unrecognized name.
func Parse(s string) (Tag, bool) {
	switch s {
	case "calm":
		return Calm, true
	case "volatile":
		return Volatile, true
	case "crash":
		return Crash, true
	case "rally":
		return Rally, true
	case "recovery":
		return Recovery, true
	default:
		return 0, false
	}
}

// Params holds the static parameter record for one regime.
type Params struct {
	Sigma        float64 // annualized volatility
	Mu           float64 // per-second drift
	LimitRate    float64 // Poisson rate, limit orders/s
	MarketRate   float64 // Poisson rate, market orders/s
	CancelRate   float64 // Poisson rate, regime-driven cancels/s
	BuyProb      float64
	HalfSpread   float64
	OffsetLambda float64 // exponential offset rate
	SizeMult     float64
	MinDuration  float64
	MaxDuration  float64
}

// Table is the fixed per-regime parameter lookup, indexed by Tag. Values
// are a compatibility contract (spec.md §4.2) and must reproduce exactly.
var Table = [5]Params{
	Calm: {
		Sigma: 0.15, Mu: 0.0, LimitRate: 50, MarketRate: 5, CancelRate: 20,
		BuyProb: 0.50, HalfSpread: 0.03, OffsetLambda: 5.0, SizeMult: 1.0,
		MinDuration: 5, MaxDuration: 30,
	},
	Volatile: {
		Sigma: 0.80, Mu: 0.0, LimitRate: 80, MarketRate: 15, CancelRate: 40,
		BuyProb: 0.50, HalfSpread: 0.08, OffsetLambda: 2.5, SizeMult: 1.5,
		MinDuration: 3, MaxDuration: 15,
	},
	Crash: {
		Sigma: 2.00, Mu: -0.045, LimitRate: 15, MarketRate: 45, CancelRate: 80,
		BuyProb: 0.12, HalfSpread: 0.25, OffsetLambda: 1.2, SizeMult: 3.0,
		MinDuration: 2, MaxDuration: 10,
	},
	Rally: {
		Sigma: 1.50, Mu: 0.035, LimitRate: 25, MarketRate: 35, CancelRate: 50,
		BuyProb: 0.88, HalfSpread: 0.15, OffsetLambda: 1.8, SizeMult: 2.5,
		MinDuration: 2, MaxDuration: 12,
	},
	Recovery: {
		Sigma: 0.50, Mu: 0.005, LimitRate: 60, MarketRate: 8, CancelRate: 25,
		BuyProb: 0.55, HalfSpread: 0.05, OffsetLambda: 4.0, SizeMult: 1.0,
		MinDuration: 3, MaxDuration: 15,
	},
}

// TransitionMatrix holds the per-tick Markov transition probabilities.
// Rows are indexed by current regime, columns by candidate next regime,
// both in the fixed order of All. Row sums are intentionally < 1: the
// remainder is "stay" (see TryTransition).
var TransitionMatrix = [5][5]float64{
	Calm:     {0.000, 0.008, 0.003, 0.003, 0.000},
	Volatile: {0.005, 0.000, 0.008, 0.006, 0.004},
	Crash:    {0.000, 0.004, 0.000, 0.002, 0.020},
	Rally:    {0.000, 0.006, 0.002, 0.000, 0.015},
	Recovery: {0.015, 0.004, 0.001, 0.002, 0.000},
}

// Sampler is the subset of engine.RNG that regime sampling needs. It lets
// this package stay independent of the engine package.
type Sampler interface {
	Float64() float64
	UniformRange(min, max float64) float64
}

// State is the engine's live regime state: current tag, time elapsed in
// it, the sampled duration for this stay, and the previous tag.
type State struct {
	Current       Tag
	TimeInRegime  float64
	RegimeDuration float64
	Previous      Tag
}

// NewState creates a regime state starting at the given tag, sampling its
// duration from the regime's [min,max] window.
func NewState(tag Tag, rng Sampler) State {
	return State{
		Current:        tag,
		TimeInRegime:   0,
		RegimeDuration: randomDuration(tag, rng),
		Previous:       tag,
	}
}

// TransitionTo moves the state to next, resetting time-in-regime and
// resampling the duration. Used for shock-triggered, control-triggered,
// and scenario-forced transitions as well as successful Markov rolls.
func (s *State) TransitionTo(next Tag, rng Sampler) {
	s.Previous = s.Current
	s.Current = next
	s.TimeInRegime = 0
	s.RegimeDuration = randomDuration(next, rng)
}

func randomDuration(tag Tag, rng Sampler) float64 {
	p := Table[tag]
	return rng.UniformRange(p.MinDuration, p.MaxDuration)
}

// TryTransition evaluates one Markov roll for the current state. It
// returns the tag the state should move to (which may be the same tag,
// meaning no transition happens this tick).
//
// If transitions aren't permitted by the scenario, or time-in-regime
// hasn't yet reached the sampled duration, the current tag is returned
// unchanged. Once the duration has elapsed, every subsequent tick rolls
// again until a transition succeeds — a declined roll does not re-arm the
// duration (see spec §4.1 step 13 / §9).
func TryTransition(s State, allowTransitions bool, rng Sampler) Tag {
	if !allowTransitions {
		return s.Current
	}
	if s.TimeInRegime < s.RegimeDuration {
		return s.Current
	}

	row := TransitionMatrix[s.Current]
	roll := rng.Float64()
	cumulative := 0.0
	for to, prob := range row {
		cumulative += prob
		if roll < cumulative {
			return All[to]
		}
	}
	return s.Current
}
