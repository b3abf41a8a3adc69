package schedule

import (
	"olfactometer-go/pkg/errors"
	"olfactometer-go/pkg/log"
)

// PairsConfig is the input to the concentration-ramp pair scheduler.
type PairsConfig struct {
	// Pairs lists the odor pairs; each produces an independent Result.
	Pairs []OdorPair

	// Group1Pins and Group2Pins are the free valve pools of the two
	// manifolds. Stream 1 of every pair is wired on manifold 1, stream 2 on
	// manifold 2.
	Group1Pins []int
	Group2Pins []int

	// Group1Balance and Group2Balance are the normally-open balance valves
	// of the two manifolds. The firmware supports a single balance pin in
	// settings but not two, so both are opened explicitly in every trial.
	Group1Balance *int
	Group2Balance *int

	// Single reports single-manifold hardware, which this scheduler cannot
	// drive.
	Single bool

	// NRepeats is the number of consecutive presentations of each
	// concentration combination. Nil means unspecified (1).
	NRepeats *int

	// CO2Pin is the dedicated pin carrying the CO2 gas line. Required only
	// when a stream is named "CO2".
	CO2Pin *int
}

// GeneratePairs builds one schedule per odor pair: each stream's ramp is
// wired to the first free pins of its manifold (deliberately deterministic,
// unlike the panel scheduler's random sampling, so wiring notes stay
// predictable across regenerations), and trials run the full ascending
// cross-product of the two ramps, lowest concentrations first.
func GeneratePairs(cfg PairsConfig, logger *log.Logger) ([]*Result, error) {
	if cfg.Single {
		return nil, errors.UnsupportedManifoldError(
			"pair schedules require two-manifold hardware")
	}
	if cfg.Group1Balance == nil || cfg.Group2Balance == nil {
		return nil, errors.UnsupportedManifoldError(
			"pair schedules require a balance pin on each manifold")
	}
	if *cfg.Group1Balance == *cfg.Group2Balance {
		return nil, errors.UnsupportedManifoldError(
			"pair schedules require two distinct balance pins")
	}
	if len(cfg.Pairs) == 0 {
		return nil, errors.ConfigMissingError("odor_pairs")
	}

	nRepeats := 1
	if cfg.NRepeats != nil {
		if *cfg.NRepeats < 1 {
			return nil, errors.ConfigValueError("n_repeats", "must be a positive integer")
		}
		nRepeats = *cfg.NRepeats
	}

	results := make([]*Result, 0, len(cfg.Pairs))
	for i, pair := range cfg.Pairs {
		res, err := generatePair(pair, cfg, nRepeats)
		if err != nil {
			return nil, err
		}
		logger.WithFields(log.Fields{
			"pair":   i,
			"vials":  len(res.PinsToOdors),
			"trials": len(res.Trials),
		}).Debug("pair schedule generated")
		results = append(results, res)
	}
	return results, nil
}

func generatePair(pair OdorPair, cfg PairsConfig, nRepeats int) (*Result, error) {
	if len(pair.Pair) != 2 {
		return nil, errors.ConfigValueError("odor_pairs",
			"each pair must name exactly two odors")
	}
	ramp1, ramp2 := pair.Pair[0], pair.Pair[1]
	if ramp1.Name == "" || ramp2.Name == "" {
		return nil, errors.ConfigValueError("odor_pairs", "every odor must have a name")
	}
	if ramp1.Name == ramp2.Name {
		return nil, errors.DuplicateOdorError(ramp1.Name)
	}

	pins2odors := PinsToOdors{}

	// Wire each non-CO2 stream: one vial per ramp concentration, taken from
	// the first free pins of that stream's manifold pool. The extra pin the
	// size check reserves hosts the stream's solvent vial.
	streams := []pairStream{
		{ramp1, cfg.Group1Pins},
		{ramp2, cfg.Group2Pins},
	}
	for _, s := range streams {
		if s.ramp.Name == CO2Name {
			continue
		}
		nConcs := len(s.ramp.Log10Concentrations)
		if len(s.pool) < nConcs+1 {
			return nil, errors.InsufficientPinsError(nConcs+1, len(s.pool))
		}
		for i, c := range s.ramp.Log10Concentrations {
			pins2odors[s.pool[i]] = Vial{Name: s.ramp.Name, Log10Conc: c}
		}
	}

	co2CompPin, err := wirePairCO2(streams, pins2odors, cfg.CO2Pin)
	if err != nil {
		return nil, err
	}

	vials2pins := make(map[vialKey]int, len(pins2odors))
	for p, v := range pins2odors {
		vials2pins[keyForVial(v, cfg.Single)] = p
	}

	// Full cross-product, both ramps ascending, stream 1 in the outer loop:
	// every combination of the lower concentrations runs before any higher
	// concentration of either odor.
	concs1 := sortedConcs(ramp1.Log10Concentrations)
	concs2 := sortedConcs(ramp2.Log10Concentrations)

	trials := make([]Trial, 0, len(concs1)*len(concs2)*nRepeats)
	for _, c1 := range concs1 {
		for _, c2 := range concs2 {
			p1, ok := vials2pins[keyFor(ramp1.Name, c1, cfg.Single)]
			if !ok {
				return nil, errors.VialLookupError(ramp1.Name, concString(c1))
			}
			p2, ok := vials2pins[keyFor(ramp2.Name, c2, cfg.Single)]
			if !ok {
				return nil, errors.VialLookupError(ramp2.Name, concString(c2))
			}

			// p1 == p2 only in the degenerate single-manifold case where
			// both streams share one solvent vial; then the single valve
			// carries all flow.
			pins := Trial{p1}
			if p2 != p1 {
				pins = append(pins, p2)
			}
			if p2 < p1 {
				pins[0], pins[1] = pins[1], pins[0]
			}
			if !cfg.Single {
				if len(pins) != 2 {
					return nil, errors.PinConflictError(p1,
						"both streams resolved to one vial; two-manifold schedules need distinct vials")
				}
				// One valve opens on each manifold, so each manifold's
				// normally-open balance valve must close with it.
				pins = append(pins, *cfg.Group1Balance, *cfg.Group2Balance)
			}
			if co2CompPin != nil {
				pins = append(pins, *co2CompPin)
			}

			for r := 0; r < nRepeats; r++ {
				tr := make(Trial, len(pins))
				copy(tr, pins)
				trials = append(trials, tr)
			}
		}
	}

	return &Result{PinsToOdors: pins2odors, Trials: trials}, nil
}

// pairStream is one half of a pair: a ramp bound to its manifold's pool.
type pairStream struct {
	ramp Ramp
	pool []int
}

// wirePairCO2 handles a CO2 stream: the external co2_pin carries the gas at
// the stream's single concentration, and the last pin of that stream's
// otherwise-unused manifold pool becomes the clean-air compensation valve.
// Returns the compensation pin, or nil when neither stream is CO2.
func wirePairCO2(streams []pairStream, pins2odors PinsToOdors, co2Pin *int) (*int, error) {
	for _, s := range streams {
		if s.ramp.Name != CO2Name {
			continue
		}
		if n := len(s.ramp.Log10Concentrations); n != 1 {
			return nil, errors.Newf(errors.ErrDuplicateCO2,
				"%d CO2 concentrations declared but only one is supported", n)
		}
		if co2Pin == nil {
			return nil, errors.MissingCO2PinError()
		}
		if len(s.pool) == 0 {
			return nil, errors.InsufficientPinsError(1, 0)
		}

		pins2odors[*co2Pin] = Vial{Name: CO2Name, Log10Conc: s.ramp.Log10Concentrations[0]}

		zero := 0.0
		comp := s.pool[len(s.pool)-1]
		pins2odors[comp] = Vial{Name: pairCompensationName, Log10Conc: &zero}
		return &comp, nil
	}
	return nil, nil
}
