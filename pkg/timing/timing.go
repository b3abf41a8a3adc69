// Package timing normalizes the human-facing pulse timing keys of an
// experiment config (seconds, as floats) into the microsecond settings the
// valve controller consumes.
package timing

import (
	"math"

	"olfactometer-go/pkg/errors"
)

// Raw holds the timing-related keys of an experiment config.
type Raw struct {
	PrePulseS  *float64
	PulseS     *float64
	PostPulseS *float64

	TimingOutputPin       *int
	RecordingIndicatorPin *int
}

// Timing is the normalized pulse timing, in microseconds.
type Timing struct {
	PrePulseUs  int64 `yaml:"pre_pulse_us"`
	PulseUs     int64 `yaml:"pulse_us"`
	PostPulseUs int64 `yaml:"post_pulse_us"`
}

// Settings is the settings block of a generated config.
type Settings struct {
	Timing                Timing `yaml:"timing"`
	TimingOutputPin       *int   `yaml:"timing_output_pin,omitempty"`
	RecordingIndicatorPin *int   `yaml:"recording_indicator_pin,omitempty"`
}

// TrialDuration returns the total length of one trial.
func (t Timing) TrialDuration() int64 {
	return t.PrePulseUs + t.PulseUs + t.PostPulseUs
}

// Normalize validates the raw timing keys and converts them to microseconds.
// All three pulse phases are required and must be positive.
func Normalize(raw Raw) (Settings, error) {
	var s Settings

	us, err := secondsToUs("pre_pulse_s", raw.PrePulseS)
	if err != nil {
		return s, err
	}
	s.Timing.PrePulseUs = us

	us, err = secondsToUs("pulse_s", raw.PulseS)
	if err != nil {
		return s, err
	}
	s.Timing.PulseUs = us

	us, err = secondsToUs("post_pulse_s", raw.PostPulseS)
	if err != nil {
		return s, err
	}
	s.Timing.PostPulseUs = us

	s.TimingOutputPin = raw.TimingOutputPin
	s.RecordingIndicatorPin = raw.RecordingIndicatorPin
	return s, nil
}

func secondsToUs(key string, v *float64) (int64, error) {
	if v == nil {
		return 0, errors.ConfigMissingError(key)
	}
	if *v <= 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, errors.ConfigValueError(key, "must be a positive duration in seconds")
	}
	return int64(math.Round(*v * 1e6)), nil
}
