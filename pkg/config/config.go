// Package config loads and validates the declarative YAML description of an
// odor-delivery experiment: the odor panel (or odor pairs), the hardware pin
// keys, and the pulse timing.
//
// Hardware keys are often kept in a separate per-rig YAML file; Merge fills
// the request's unset hardware keys from such a file, so experiment configs
// stay portable across rigs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"olfactometer-go/pkg/errors"
	"olfactometer-go/pkg/hardware"
	"olfactometer-go/pkg/schedule"
	"olfactometer-go/pkg/timing"
)

// Request is a parsed experiment config.
type Request struct {
	// Odor panel (exclusive with OdorPairs)
	Odors                      []schedule.Vial `yaml:"odors"`
	RandomizePresentationOrder *bool           `yaml:"randomize_presentation_order"`

	// Concentration-ramp pairs (exclusive with Odors)
	OdorPairs []schedule.OdorPair `yaml:"odor_pairs"`

	NRepeats *int `yaml:"n_repeats"`

	// Hardware, single manifold
	AvailableValvePins []int `yaml:"available_valve_pins"`
	BalancePin         *int  `yaml:"balance_pin"`

	// Hardware, two manifolds
	AvailableGroup1ValvePins []int `yaml:"available_group1_valve_pins"`
	AvailableGroup2ValvePins []int `yaml:"available_group2_valve_pins"`
	Group1BalancePin         *int  `yaml:"group1_balance_pin"`
	Group2BalancePin         *int  `yaml:"group2_balance_pin"`

	CO2Pin *int `yaml:"co2_pin"`

	// Timing
	PrePulseS             *float64 `yaml:"pre_pulse_s"`
	PulseS                *float64 `yaml:"pulse_s"`
	PostPulseS            *float64 `yaml:"post_pulse_s"`
	TimingOutputPin       *int     `yaml:"timing_output_pin"`
	RecordingIndicatorPin *int     `yaml:"recording_indicator_pin"`
}

// Load reads an experiment config file.
func Load(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: unable to open %s: %w", path, err)
	}
	req, err := LoadString(string(data))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return req, nil
}

// LoadString parses an experiment config from a YAML string.
func LoadString(data string) (*Request, error) {
	var req Request
	if err := yaml.Unmarshal([]byte(data), &req); err != nil {
		return nil, errors.ConfigTypeError("yaml", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// Validate checks the declarative part of the request. Pin and timing keys
// get their detailed validation in ResolvePins and Settings; this catches
// the structural problems early.
func (r *Request) Validate() error {
	if len(r.Odors) == 0 && len(r.OdorPairs) == 0 {
		return errors.ConfigMissingError("odors")
	}
	if len(r.Odors) > 0 && len(r.OdorPairs) > 0 {
		return errors.ConfigValueError("odors",
			"odors and odor_pairs are mutually exclusive")
	}
	for _, o := range r.Odors {
		if o.Name == "" {
			return errors.ConfigValueError("odors", "every odor must have a name")
		}
	}
	for _, p := range r.OdorPairs {
		if len(p.Pair) != 2 {
			return errors.ConfigValueError("odor_pairs",
				"each pair must name exactly two odors")
		}
		for _, ramp := range p.Pair {
			if ramp.Name == "" {
				return errors.ConfigValueError("odor_pairs", "every odor must have a name")
			}
			if len(ramp.Log10Concentrations) == 0 {
				return errors.ConfigValueError("odor_pairs",
					fmt.Sprintf("odor '%s' declares no concentrations", ramp.Name))
			}
		}
	}
	if r.NRepeats != nil && *r.NRepeats < 1 {
		return errors.ConfigValueError("n_repeats", "must be a positive integer")
	}
	if r.RandomizePresentationOrder != nil && len(r.OdorPairs) > 0 {
		return errors.ConfigValueError("randomize_presentation_order",
			"only applies to odor panels")
	}
	return nil
}

// IsPair reports whether the request describes a pair experiment.
func (r *Request) IsPair() bool {
	return len(r.OdorPairs) > 0
}

// Merge fills the request's unset hardware keys from a per-rig hardware
// config. Keys already present in the request win.
func (r *Request) Merge(hw *Request) {
	if len(r.AvailableValvePins) == 0 {
		r.AvailableValvePins = hw.AvailableValvePins
	}
	if r.BalancePin == nil {
		r.BalancePin = hw.BalancePin
	}
	if len(r.AvailableGroup1ValvePins) == 0 {
		r.AvailableGroup1ValvePins = hw.AvailableGroup1ValvePins
	}
	if len(r.AvailableGroup2ValvePins) == 0 {
		r.AvailableGroup2ValvePins = hw.AvailableGroup2ValvePins
	}
	if r.Group1BalancePin == nil {
		r.Group1BalancePin = hw.Group1BalancePin
	}
	if r.Group2BalancePin == nil {
		r.Group2BalancePin = hw.Group2BalancePin
	}
	if r.CO2Pin == nil {
		r.CO2Pin = hw.CO2Pin
	}
	if r.TimingOutputPin == nil {
		r.TimingOutputPin = hw.TimingOutputPin
	}
	if r.RecordingIndicatorPin == nil {
		r.RecordingIndicatorPin = hw.RecordingIndicatorPin
	}
}

// LoadHardware reads a per-rig hardware config (pin keys only; odor and
// timing keys are ignored if present).
func LoadHardware(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: unable to open %s: %w", path, err)
	}
	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, errors.ConfigTypeError("yaml", err)
	}
	return &req, nil
}

// ResolvePins runs the hardware pin-pool resolver over the request's pin
// keys.
func (r *Request) ResolvePins() (*hardware.Manifolds, error) {
	return hardware.Resolve(hardware.RawPins{
		AvailableValvePins:       r.AvailableValvePins,
		BalancePin:               r.BalancePin,
		AvailableGroup1ValvePins: r.AvailableGroup1ValvePins,
		AvailableGroup2ValvePins: r.AvailableGroup2ValvePins,
		Group1BalancePin:         r.Group1BalancePin,
		Group2BalancePin:         r.Group2BalancePin,
		CO2Pin:                   r.CO2Pin,
		TimingOutputPin:          r.TimingOutputPin,
		RecordingIndicatorPin:    r.RecordingIndicatorPin,
	})
}

// Settings normalizes the request's timing keys.
func (r *Request) Settings() (timing.Settings, error) {
	return timing.Normalize(timing.Raw{
		PrePulseS:             r.PrePulseS,
		PulseS:                r.PulseS,
		PostPulseS:            r.PostPulseS,
		TimingOutputPin:       r.TimingOutputPin,
		RecordingIndicatorPin: r.RecordingIndicatorPin,
	})
}
