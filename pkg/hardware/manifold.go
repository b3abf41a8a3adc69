// Package hardware resolves the valve-pin topology of an olfactometer from
// raw config data: which pins are free for odor vials, which pin balances
// which manifold, and whether the rig is a single- or two-manifold setup.
package hardware

import (
	"olfactometer-go/pkg/errors"
)

// RawPins holds the pin-related keys of an experiment config, before
// resolution. Exactly one of the two key families (single-manifold or
// two-manifold) must be populated.
type RawPins struct {
	// Single manifold
	AvailableValvePins []int
	BalancePin         *int

	// Two manifolds
	AvailableGroup1ValvePins []int
	AvailableGroup2ValvePins []int
	Group1BalancePin         *int
	Group2BalancePin         *int

	// Dedicated CO2 line, either topology
	CO2Pin *int

	// Auxiliary output pins, excluded from the valve pools
	TimingOutputPin       *int
	RecordingIndicatorPin *int
}

// Manifolds is the resolved topology consumed by the schedulers.
type Manifolds struct {
	// AvailablePins is the flat pool the panel scheduler samples from: the
	// single manifold's pool, or both group pools back to back.
	AvailablePins []int

	// Group1Pins / Group2Pins are the per-manifold pools used by the pair
	// scheduler. Nil on single-manifold hardware.
	Group1Pins []int
	Group2Pins []int

	// BalancePin is the single manifold's balance valve, if any.
	BalancePin *int

	// Group1Balance / Group2Balance are the per-manifold balance valves on
	// two-manifold hardware.
	Group1Balance *int
	Group2Balance *int

	// PinsToBalances maps every odor pin to the balance pin of its
	// manifold. Empty when no balance valves are configured.
	PinsToBalances map[int]int

	// Single reports a one-manifold topology.
	Single bool

	// CO2Pin is the dedicated CO2 line, if wired.
	CO2Pin *int
}

// Resolve validates the raw pin keys and builds the manifold topology.
func Resolve(raw RawPins) (*Manifolds, error) {
	singleKeys := len(raw.AvailableValvePins) > 0 || raw.BalancePin != nil
	dualKeys := len(raw.AvailableGroup1ValvePins) > 0 || len(raw.AvailableGroup2ValvePins) > 0 ||
		raw.Group1BalancePin != nil || raw.Group2BalancePin != nil

	if singleKeys && dualKeys {
		return nil, errors.UnsupportedManifoldError(
			"single- and two-manifold pin keys are mutually exclusive")
	}
	if !singleKeys && !dualKeys {
		return nil, errors.ConfigMissingError("available_valve_pins")
	}

	m := &Manifolds{CO2Pin: raw.CO2Pin}
	if singleKeys {
		if len(raw.AvailableValvePins) == 0 {
			return nil, errors.ConfigMissingError("available_valve_pins")
		}
		m.Single = true
		m.AvailablePins = append([]int(nil), raw.AvailableValvePins...)
		m.BalancePin = raw.BalancePin
		m.PinsToBalances = balanceMap(m.AvailablePins, raw.BalancePin, nil)
	} else {
		if len(raw.AvailableGroup1ValvePins) == 0 {
			return nil, errors.ConfigMissingError("available_group1_valve_pins")
		}
		if len(raw.AvailableGroup2ValvePins) == 0 {
			return nil, errors.ConfigMissingError("available_group2_valve_pins")
		}
		if raw.Group1BalancePin == nil {
			return nil, errors.ConfigMissingError("group1_balance_pin")
		}
		if raw.Group2BalancePin == nil {
			return nil, errors.ConfigMissingError("group2_balance_pin")
		}
		m.Group1Pins = append([]int(nil), raw.AvailableGroup1ValvePins...)
		m.Group2Pins = append([]int(nil), raw.AvailableGroup2ValvePins...)
		m.Group1Balance = raw.Group1BalancePin
		m.Group2Balance = raw.Group2BalancePin
		m.AvailablePins = append(append([]int(nil), m.Group1Pins...), m.Group2Pins...)
		m.PinsToBalances = balanceMap(m.Group1Pins, raw.Group1BalancePin, nil)
		m.PinsToBalances = balanceMap(m.Group2Pins, raw.Group2BalancePin, m.PinsToBalances)
	}

	if err := checkPinRoles(m, raw); err != nil {
		return nil, err
	}
	return m, nil
}

// balanceMap maps each pool pin to its manifold's balance pin, extending
// into (if non-nil).
func balanceMap(pool []int, balance *int, into map[int]int) map[int]int {
	if into == nil {
		into = make(map[int]int, len(pool))
	}
	if balance == nil {
		return into
	}
	for _, p := range pool {
		into[p] = *balance
	}
	return into
}

// checkPinRoles rejects negative pin numbers and any pin wired to more than
// one role (vial pool, balance valve, CO2 line, auxiliary outputs).
func checkPinRoles(m *Manifolds, raw RawPins) error {
	seen := make(map[int]bool)
	claim := func(p int) error {
		if p < 0 {
			return errors.ConfigValueError("pins", "valve pins must be non-negative integers")
		}
		if seen[p] {
			return errors.PinConflictError(p, "wired to more than one role")
		}
		seen[p] = true
		return nil
	}

	for _, p := range m.AvailablePins {
		if err := claim(p); err != nil {
			return err
		}
	}
	for _, p := range []*int{m.BalancePin, m.Group1Balance, m.Group2Balance,
		m.CO2Pin, raw.TimingOutputPin, raw.RecordingIndicatorPin} {
		if p == nil {
			continue
		}
		if err := claim(*p); err != nil {
			return err
		}
	}
	return nil
}
