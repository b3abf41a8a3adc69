// Package output folds a scheduling result and the normalized settings into
// the persisted generated-config structure and serializes it as YAML.
//
// The pin_sequence/settings blocks are what the instrument loader consumes;
// pins2odors is carried alongside purely for analysis-time bookkeeping.
package output

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"olfactometer-go/pkg/schedule"
	"olfactometer-go/pkg/timing"
)

// PinGroup is the set of pins opened together for one trial.
type PinGroup struct {
	Pins []int `yaml:"pins,flow"`
}

// PinSequence is the ordered trial list of a generated config.
type PinSequence struct {
	PinGroups []PinGroup `yaml:"pin_groups"`
}

// GeneratedConfig is the persisted output of one scheduling run.
type GeneratedConfig struct {
	Settings    timing.Settings      `yaml:"settings"`
	PinSequence PinSequence          `yaml:"pin_sequence"`
	PinsToOdors schedule.PinsToOdors `yaml:"pins2odors"`
}

// Build folds one scheduler result into a GeneratedConfig.
func Build(res *schedule.Result, settings timing.Settings) *GeneratedConfig {
	groups := make([]PinGroup, len(res.Trials))
	for i, tr := range res.Trials {
		groups[i] = PinGroup{Pins: append([]int(nil), tr...)}
	}
	return &GeneratedConfig{
		Settings:    settings,
		PinSequence: PinSequence{PinGroups: groups},
		PinsToOdors: res.PinsToOdors,
	}
}

// BuildAll folds the per-pair results of the pair scheduler, one document
// per pair, all sharing the same settings.
func BuildAll(results []*schedule.Result, settings timing.Settings) []*GeneratedConfig {
	configs := make([]*GeneratedConfig, len(results))
	for i, res := range results {
		configs[i] = Build(res, settings)
	}
	return configs
}

// Encode writes the configs to w as a YAML document stream (one document per
// config; pair runs produce one document per pair).
func Encode(w io.Writer, configs ...*GeneratedConfig) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, c := range configs {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("output: encoding generated config: %w", err)
		}
	}
	return enc.Close()
}

// WriteFile serializes the configs to path.
func WriteFile(path string, configs ...*GeneratedConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := Encode(f, configs...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
