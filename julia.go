// Package julia holds the escape-time kernel of the Julia-set renderer:
// run parameters, the pixel to plane mapping, the escape-time loop and the
// iteration count to grey level conversion.
package julia

import (
	"fmt"
	"sort"
)

// Interval is one axis of the sampled plane rectangle.
type Interval struct {
	Min, Max float64
}

func (i Interval) Width() float64 {
	return i.Max - i.Min
}

// Region of the complex plane covered by the grid.
// X spans the real axis, Y the imaginary one.
type Region struct {
	X Interval
	Y Interval
}

func (r Region) String() string {
	return fmt.Sprintf("x=[%g, %g] y=[%g, %g]", r.X.Min, r.X.Max, r.Y.Min, r.Y.Max)
}

// DefaultRegion is the plane window rendered when nothing else is configured.
var DefaultRegion = Region{
	X: Interval{Min: -1.5, Max: 1.5},
	Y: Interval{Min: -1.0, Max: 1.0},
}

// Preset is a named Julia parameter with the cap and radius it was tuned for.
// A zero Region keeps the region already configured.
type Preset struct {
	C       complex128
	MaxIter int
	Radius  float64
	Region  Region
}

// Classic Julia parameters.
// Select one with the -preset flag or the preset key of the config file.
var Presets = map[string]Preset{
	// Default render: wispy two-armed spirals
	"spirals": {C: complex(-0.8, 0.156), MaxIter: 80, Radius: 2},

	// Early array based render, looser escape bound
	"array": {C: complex(0.343, 0.12), MaxIter: 100, Radius: 4},

	// Wide window, short cap; reads best with -mode mask
	"wide": {
		C:       complex(0.32, 0.411),
		MaxIter: 30,
		Radius:  2,
		Region:  Region{X: Interval{Min: -2, Max: 0.5}, Y: Interval{Min: -1.25, Max: 1.25}},
	},

	// Douady rabbit – three-lobed basins around a period 3 cycle
	"rabbit": {C: complex(-0.123, 0.745), MaxIter: 120, Radius: 2},

	// Dendrite – c = i, the set has no interior
	"dendrite": {C: complex(0, 1), MaxIter: 120, Radius: 2},

	// San Marco – c = -3/4, the basilica's fat cousin
	"sanmarco": {C: complex(-0.75, 0), MaxIter: 150, Radius: 2},

	// Siegel disk – quasi periodic rotation domain
	"siegel": {C: complex(-0.391, -0.587), MaxIter: 200, Radius: 2},
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for n := range Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
