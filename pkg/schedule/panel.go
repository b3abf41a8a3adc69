package schedule

import (
	"math/rand"

	"olfactometer-go/pkg/errors"
	"olfactometer-go/pkg/log"
)

// PanelConfig is the input to the single-odor-panel scheduler.
type PanelConfig struct {
	// Odors is the panel, in declaration order. Every entry needs a name.
	Odors []Vial

	// AvailablePins is the pool of free valve pins odors may be wired to.
	AvailablePins []int

	// PinsToBalances maps each odor pin to the balance pin of its manifold.
	// Empty if the hardware has no balance valves.
	PinsToBalances map[int]int

	// Randomize corresponds to randomize_presentation_order. Nil means
	// unspecified: with more than one odor this defaults to true (with an
	// advisory); with exactly one odor there is nothing to randomize.
	Randomize *bool

	// NRepeats is the number of consecutive presentations of each odor.
	// Nil means unspecified (1).
	NRepeats *int

	// CO2Pin is the dedicated pin carrying the CO2 gas line. Required only
	// when an odor named "CO2" is in the panel.
	CO2Pin *int
}

// GeneratePanel assigns each odor of a panel to a distinct valve pin drawn
// randomly from the available pool, orders the per-odor trial groups
// (optionally shuffled), expands each into its repeats and applies CO2
// compensation rewiring when a CO2 odor is present.
//
// The randomness source is injected so callers (and tests) control
// reproducibility; GeneratePanel never mutates its inputs.
func GeneratePanel(cfg PanelConfig, rng *rand.Rand, logger *log.Logger) (*Result, error) {
	if len(cfg.Odors) == 0 {
		return nil, errors.ConfigMissingError("odors")
	}
	for _, o := range cfg.Odors {
		if o.Name == "" {
			return nil, errors.ConfigValueError("odors", "every odor must have a name")
		}
	}

	nOdors := len(cfg.Odors)
	if len(cfg.AvailablePins) < nOdors {
		return nil, errors.InsufficientPinsError(nOdors, len(cfg.AvailablePins))
	}

	nRepeats := 1
	if cfg.NRepeats != nil {
		if *cfg.NRepeats < 1 {
			return nil, errors.ConfigValueError("n_repeats", "must be a positive integer")
		}
		nRepeats = *cfg.NRepeats
	}

	// Random odor vial <-> pin (valve) mapping: sample nOdors pins from the
	// pool without replacement.
	odorPins := samplePins(cfg.AvailablePins, nOdors, rng)

	pins2odors := make(PinsToOdors, nOdors)
	for i, p := range odorPins {
		pins2odors[p] = cfg.Odors[i]
	}

	randomize := resolveRandomize(cfg.Randomize, nOdors, logger)
	if cfg.NRepeats != nil && randomize {
		logger.Warn("randomization only reorders odors; the %d repeats of each odor stay consecutive",
			nRepeats)
	}

	trialPins := odorPins
	if randomize {
		trialPins = shuffledPins(odorPins, rng)
	}

	trials := make([]Trial, 0, nOdors*nRepeats)
	for _, p := range trialPins {
		for r := 0; r < nRepeats; r++ {
			trials = append(trials, Trial{p})
		}
	}

	trials = AddBalancePins(trials, cfg.PinsToBalances)

	if err := rewireCO2(cfg.Odors, pins2odors, trials, cfg.CO2Pin); err != nil {
		return nil, err
	}

	return &Result{PinsToOdors: pins2odors, Trials: trials}, nil
}

// resolveRandomize applies the defaulting policy for
// randomize_presentation_order. Unspecified with a multi-odor panel defaults
// to randomized, surfaced as an advisory; a single odor has no order to
// randomize.
func resolveRandomize(randomize *bool, nOdors int, logger *log.Logger) bool {
	if randomize != nil {
		return *randomize
	}
	if nOdors > 1 {
		logger.Warn("defaulting to randomize_presentation_order=true, since not specified in config")
		return true
	}
	return false
}

// samplePins draws n pins uniformly without replacement, leaving the pool
// untouched.
func samplePins(pool []int, n int, rng *rand.Rand) []int {
	perm := rng.Perm(len(pool))
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}

// shuffledPins returns a shuffled copy of pins.
func shuffledPins(pins []int, rng *rand.Rand) []int {
	out := make([]int, len(pins))
	copy(out, pins)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// rewireCO2 applies the panel CO2 compensation rewiring in place: the pin
// randomly assigned to the CO2 odor becomes the clean-air compensation
// valve, the external co2Pin carries the gas, and every trial containing the
// compensation pin also opens the co2Pin.
func rewireCO2(odors []Vial, pins2odors PinsToOdors, trials []Trial, co2Pin *int) error {
	var co2 *Vial
	nCO2 := 0
	for i := range odors {
		if odors[i].Name == CO2Name {
			co2 = &odors[i]
			nCO2++
		}
	}
	if nCO2 == 0 {
		return nil
	}
	// Only one co2_pin exists on the hardware.
	if nCO2 > 1 {
		return errors.DuplicateCO2Error(nCO2)
	}
	if co2Pin == nil {
		return errors.MissingCO2PinError()
	}

	compensationPin := -1
	for p, v := range pins2odors {
		if v.Name == CO2Name {
			compensationPin = p
			break
		}
	}

	zero := 0.0
	pins2odors[compensationPin] = Vial{Name: panelCompensationName, Log10Conc: &zero}
	pins2odors[*co2Pin] = *co2

	for _, tr := range trials {
		if containsPin(tr, *co2Pin) {
			return errors.CO2PinInUseError(*co2Pin)
		}
	}
	for i, tr := range trials {
		if containsPin(tr, compensationPin) {
			trials[i] = append(tr, *co2Pin)
		}
	}
	return nil
}

func containsPin(tr Trial, pin int) bool {
	for _, p := range tr {
		if p == pin {
			return true
		}
	}
	return false
}
