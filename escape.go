package julia

import "math"

// MapPixel returns the plane point sampled by grid index (row, col).
// row walks the real axis, col the imaginary one.
//
// With SampleHalfOpen the step is width/gridsize, so points never reach Max.
// With SampleInclusive the step is width/(gridsize-1) and the last index
// lands exactly on Max; a one pixel grid samples Min.
func MapPixel(r Region, row, col, gridsize int, s Sampling) complex128 {
	div := float64(gridsize)
	if s == SampleInclusive {
		if gridsize == 1 {
			return complex(r.X.Min, r.Y.Min)
		}
		div = float64(gridsize - 1)
	}

	re := r.X.Min + float64(row)*r.X.Width()/div
	im := r.Y.Min + float64(col)*r.Y.Width()/div
	return complex(re, im)
}

// EscapeTime counts applications of z = z*z + c, starting from z0, until
// |z| reaches radius or maxIter steps have been taken.
// The result is always in [0, maxIter].
func EscapeTime(z0, c complex128, maxIter int, radius float64) int {
	z := z0
	r2 := radius * radius

	n := 0
	for n < maxIter && real(z)*real(z)+imag(z)*imag(z) < r2 {
		z = z*z + c
		n++
	}
	return n
}

// Intensity turns an iteration count into a grey level: n*factor truncated
// toward zero, then clamped or wrapped into a byte according to o.
func Intensity(n int, factor float64, o Overflow) uint8 {
	v := float64(n) * factor
	if o == OverflowWrap {
		// floats from 2^60 up are multiples of 256, +Inf included
		if math.IsInf(v, 1) {
			return 0
		}
		return uint8(math.Mod(math.Trunc(v), 256))
	}

	switch {
	case v >= 255:
		return 255
	case v <= 0:
		return 0
	}
	return uint8(v)
}

// Shade is the grey level of a pixel whose orbit took n steps under p.
// In ModeMask an orbit counts as captive when it used the whole cap, even if
// its last step crossed the radius.
func (p Params) Shade(n int) uint8 {
	if p.Mode == ModeMask {
		if n >= p.MaxIter {
			return 255
		}
		return 0
	}
	return Intensity(n, p.Brightening, p.Overflow)
}
