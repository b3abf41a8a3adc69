// Package schedule generates ordered valve-pin trial schedules for an
// odor-delivery instrument from a declarative experiment description.
//
// Two schedulers are provided: GeneratePanel assigns a flat panel of odors to
// randomly sampled valve pins, and GeneratePairs builds concentration-ramp
// cross-product schedules for odor pairs on dual-manifold hardware. Both
// share the CO2 compensation handling: when a CO2 channel is declared, the
// pin that would have carried it is repurposed as a clean-air compensation
// valve and the dedicated co2_pin carries the gas itself.
package schedule

import (
	"fmt"
	"math"
	"sort"
)

// CO2Name is the sentinel odor name that triggers compensation wiring.
const CO2Name = "CO2"

// Names of the vial entries synthesized during CO2 rewiring. These appear in
// pins2odors output so analysis code can identify the compensation valves.
const (
	panelCompensationName = "air for co2-mixture compensation"
	pairCompensationName  = "air for co2 compensation"
	solventName           = "solvent"
)

// Vial describes one wired odor vial: a chemical name plus an optional log10
// dilution. A nil Log10Conc denotes a blank/solvent presentation.
type Vial struct {
	Name      string   `yaml:"name"`
	Log10Conc *float64 `yaml:"log10_conc"`
}

// Ramp is one stream of an odor pair: an odor name plus the ordered series
// of log10 concentrations to present on that stream's manifold.
type Ramp struct {
	Name                string     `yaml:"name"`
	Log10Concentrations []*float64 `yaml:"log10_concentrations"`
}

// OdorPair binds two odor streams. The first entry runs on manifold 1, the
// second on manifold 2.
type OdorPair struct {
	Pair []Ramp `yaml:"pair"`
}

// PinsToOdors records which odor/vial each valve pin drives. It is written
// to the generated config for analysis-time bookkeeping; the firmware itself
// never reads it.
type PinsToOdors map[int]Vial

// Trial is the ordered set of valve pins opened together for one
// presentation.
type Trial []int

// Result is the output of one scheduling run: the pin wiring record plus the
// ordered trial list.
type Result struct {
	PinsToOdors PinsToOdors
	Trials      []Trial
}

// vialKey is the order-independent identity used for reverse (vial -> pin)
// lookup. Using a comparable struct rather than a serialized form of the
// descriptor keeps lookups independent of field ordering.
type vialKey struct {
	name    string
	hasConc bool
	conc    float64
}

// keyFor builds the canonical identity for an odor at a concentration. On a
// single manifold a blank presentation always means the one shared solvent
// vial, whichever stream asked for it.
func keyFor(name string, conc *float64, singleManifold bool) vialKey {
	if conc == nil {
		if singleManifold {
			return vialKey{name: solventName}
		}
		return vialKey{name: name}
	}
	return vialKey{name: name, hasConc: true, conc: *conc}
}

// keyForVial is keyFor applied to an already-synthesized vial entry.
func keyForVial(v Vial, singleManifold bool) vialKey {
	return keyFor(v.Name, v.Log10Conc, singleManifold)
}

// sortedConcs returns a new slice with the ramp's concentrations in
// ascending order. A nil concentration (blank/solvent) sorts below any
// number. The input is never modified.
func sortedConcs(concs []*float64) []*float64 {
	out := make([]*float64, len(concs))
	copy(out, concs)
	sort.SliceStable(out, func(i, j int) bool {
		return concSortValue(out[i]) < concSortValue(out[j])
	})
	return out
}

func concSortValue(c *float64) float64 {
	if c == nil {
		return math.Inf(-1)
	}
	return *c
}

// concString renders a concentration for error messages.
func concString(c *float64) string {
	if c == nil {
		return "blank (solvent)"
	}
	return fmt.Sprintf("log10 conc %g", *c)
}
