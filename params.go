package julia

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrInvalidParams is wrapped by every error returned from Params.Validate.
var ErrInvalidParams = errors.New("invalid render parameters")

// Sampling decides how grid indices are spread over a Region axis.
type Sampling int

const (
	// SampleHalfOpen divides by gridsize: samples cover [Min, Max).
	SampleHalfOpen Sampling = iota
	// SampleInclusive divides by gridsize-1: the last index lands on Max.
	SampleInclusive
)

var samplingNames = []string{"halfopen", "inclusive"}

func (s Sampling) String() string {
	if s < 0 || int(s) >= len(samplingNames) {
		return fmt.Sprintf("Sampling(%d)", int(s))
	}
	return samplingNames[s]
}

func ParseSampling(name string) (Sampling, error) {
	for i, n := range samplingNames {
		if n == name {
			return Sampling(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sampling %q", name)
}

// Overflow decides what happens when count*brightening does not fit a byte.
type Overflow int

const (
	// OverflowSaturate clamps to 255.
	OverflowSaturate Overflow = iota
	// OverflowWrap keeps the low 8 bits, like a narrowing integer cast.
	OverflowWrap
)

var overflowNames = []string{"saturate", "wrap"}

func (o Overflow) String() string {
	if o < 0 || int(o) >= len(overflowNames) {
		return fmt.Sprintf("Overflow(%d)", int(o))
	}
	return overflowNames[o]
}

func ParseOverflow(name string) (Overflow, error) {
	for i, n := range overflowNames {
		if n == name {
			return Overflow(i), nil
		}
	}
	return 0, fmt.Errorf("unknown overflow policy %q", name)
}

// Mode selects how an iteration count becomes a grey level.
type Mode int

const (
	// ModeEscape scales the iteration count by the brightening factor.
	ModeEscape Mode = iota
	// ModeMask paints points that never escaped white and everything else black.
	// A point is captive when its escape time reaches MaxIter, so an orbit
	// leaving the radius exactly on the last step is still painted white.
	ModeMask
)

var modeNames = []string{"escape", "mask"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

func ParseMode(name string) (Mode, error) {
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", name)
}

// Params is everything a render needs. It is passed by value and never
// mutated while rendering.
type Params struct {
	C           complex128 // Julia parameter
	Region      Region
	GridSize    int // side of the square output, in pixels
	MaxIter     int
	Radius      float64 // escape radius
	Brightening float64
	Sampling    Sampling
	Overflow    Overflow
	Mode        Mode
}

// DefaultParams returns a 2048×2048 render of the "spirals" preset.
func DefaultParams() Params {
	return Params{
		C:           complex(-0.8, 0.156),
		Region:      DefaultRegion,
		GridSize:    2048,
		MaxIter:     80,
		Radius:      2,
		Brightening: 1.5,
		Sampling:    SampleHalfOpen,
		Overflow:    OverflowSaturate,
		Mode:        ModeEscape,
	}
}

// ApplyPreset copies the Julia parameter, cap and radius of pr into p,
// and its region when pr has one.
func (p *Params) ApplyPreset(pr Preset) {
	p.C = pr.C
	p.MaxIter = pr.MaxIter
	p.Radius = pr.Radius
	if pr.Region != (Region{}) {
		p.Region = pr.Region
	}
}

// Validate reports the first problem found in p.
func (p Params) Validate() error {
	switch {
	case p.GridSize <= 0:
		return fmt.Errorf("%w: gridsize must be positive, got %d", ErrInvalidParams, p.GridSize)
	case p.MaxIter <= 0:
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidParams, p.MaxIter)
	case !finite(p.Radius) || p.Radius <= 0:
		return fmt.Errorf("%w: escape radius must be a positive number, got %g", ErrInvalidParams, p.Radius)
	case !finite(p.Brightening) || p.Brightening < 0:
		return fmt.Errorf("%w: brightening factor must be a non-negative number, got %g", ErrInvalidParams, p.Brightening)
	case cmplx.IsNaN(p.C) || cmplx.IsInf(p.C):
		return fmt.Errorf("%w: julia parameter must be finite, got %v", ErrInvalidParams, p.C)
	}
	if err := validInterval("x", p.Region.X); err != nil {
		return err
	}
	if err := validInterval("y", p.Region.Y); err != nil {
		return err
	}
	if p.Sampling != SampleHalfOpen && p.Sampling != SampleInclusive {
		return fmt.Errorf("%w: %v", ErrInvalidParams, p.Sampling)
	}
	if p.Overflow != OverflowSaturate && p.Overflow != OverflowWrap {
		return fmt.Errorf("%w: %v", ErrInvalidParams, p.Overflow)
	}
	if p.Mode != ModeEscape && p.Mode != ModeMask {
		return fmt.Errorf("%w: %v", ErrInvalidParams, p.Mode)
	}
	return nil
}

func validInterval(axis string, i Interval) error {
	if !finite(i.Min) || !finite(i.Max) {
		return fmt.Errorf("%w: %s bounds must be finite, got [%g, %g]", ErrInvalidParams, axis, i.Min, i.Max)
	}
	if i.Min >= i.Max {
		return fmt.Errorf("%w: %s bounds need min < max, got [%g, %g]", ErrInvalidParams, axis, i.Min, i.Max)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
