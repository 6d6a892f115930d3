// Package scenario holds the named startup profiles that pick a
// starting regime, an optional forced regime change, and whether free
// Markov transitions are permitted at all.
package scenario

import (
	"fmt"

	"github.com/ndrandal/orderflow-sim/internal/regime"
)

// Profile is a scenario's static configuration, resolved once at
// startup and consulted by the engine every tick for the forced-event
// check (step 3 of the tick loop).
type Profile struct {
	Name             string
	StartingRegime   regime.Tag
	ForcedEventTime  float64 // simulated seconds; negative means none
	ForcedRegime     regime.Tag
	AllowTransitions bool
	// OverrideDuration overrides the sampled regime duration on the
	// forced transition when true, drawing uniformly from [3, 7]s
	// instead of the target regime's own [min_dur, max_dur] window.
	OverrideDuration bool
}

// HasForcedEvent reports whether this profile ever fires a forced
// regime change.
func (p Profile) HasForcedEvent() bool {
	return p.ForcedEventTime >= 0
}

const flashCrashMinDuration = 3.0
const flashCrashMaxDuration = 7.0

// FlashCrashDurationRange returns the override window used when
// OverrideDuration is set.
func FlashCrashDurationRange() (float64, float64) {
	return flashCrashMinDuration, flashCrashMaxDuration
}

// Table is the fixed set of named scenarios (spec.md §4.3), keyed by
// the name used on the CLI and in config files.
var Table = map[string]Profile{
	"normal": {
		Name:             "normal",
		StartingRegime:   regime.Calm,
		ForcedEventTime:  -1,
		AllowTransitions: true,
	},
	"crash": {
		Name:             "crash",
		StartingRegime:   regime.Calm,
		ForcedEventTime:  10,
		ForcedRegime:     regime.Crash,
		AllowTransitions: true,
	},
	"volatile": {
		Name:             "volatile",
		StartingRegime:   regime.Volatile,
		ForcedEventTime:  -1,
		AllowTransitions: false,
	},
	"flash-crash": {
		Name:             "flash-crash",
		StartingRegime:   regime.Calm,
		ForcedEventTime:  8,
		ForcedRegime:     regime.Crash,
		AllowTransitions: true,
		OverrideDuration: true,
	},
	"rally": {
		Name:             "rally",
		StartingRegime:   regime.Calm,
		ForcedEventTime:  10,
		ForcedRegime:     regime.Rally,
		AllowTransitions: true,
	},
}

// Parse looks up a scenario profile by name. It returns an error for
// any name not in Table.
func Parse(name string) (Profile, error) {
	p, ok := Table[name]
	if !ok {
		return Profile{}, fmt.Errorf("scenario: unknown scenario %q", name)
	}
	return p, nil
}
