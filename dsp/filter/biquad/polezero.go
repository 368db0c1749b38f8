package biquad

import (
	"math"
	"math/cmplx"
)

// Poles returns the z-plane poles of a second-order design:
//
//	1 + a1*z^-1 + a2*z^-2 = 0
//
// For first-order designs the second pole is 0. ok is false for orders above 2.
func (d *Design) Poles() (poles [2]complex128, ok bool) {
	switch d.Order() {
	case 1:
		return [2]complex128{complex(-d.fb[1], 0), 0}, true
	case 2:
		return quadraticRoots(1, d.fb[1], d.fb[2]), true
	default:
		return poles, false
	}
}

// Zeros returns the z-plane zeros of a second-order design:
//
//	b0 + b1*z^-1 + b2*z^-2 = 0
//
// ok is false for orders above 2.
func (d *Design) Zeros() (zeros [2]complex128, ok bool) {
	switch d.Order() {
	case 1:
		return quadraticRoots(0, d.ff[0], d.ff[1]), true
	case 2:
		return quadraticRoots(d.ff[0], d.ff[1], d.ff[2]), true
	default:
		return zeros, false
	}
}

// Stable reports whether all poles lie strictly inside the unit circle.
//
// Second-order designs are checked through their poles; higher orders use
// the Schur-Cohn step-down recursion on the feedback polynomial.
func (d *Design) Stable() bool {
	if poles, ok := d.Poles(); ok {
		return cmplx.Abs(poles[0]) < 1 && cmplx.Abs(poles[1]) < 1
	}

	// a[k] for k = 0..order with a[0] = 1.
	a := make([]float64, len(d.fb))
	copy(a, d.fb)
	a[0] = 1

	for m := len(a) - 1; m > 0; m-- {
		k := a[m]
		if math.Abs(k) >= 1 {
			return false
		}
		den := 1 - k*k
		next := make([]float64, m)
		for i := 0; i < m; i++ {
			next[i] = (a[i] - k*a[m-i]) / den
		}
		a = next
	}

	return true
}

func quadraticRoots(a, b, c float64) [2]complex128 {
	if a == 0 {
		if b == 0 {
			return [2]complex128{}
		}
		return [2]complex128{complex(-c/b, 0), 0}
	}

	discriminant := complex(b*b-4*a*c, 0)
	sqrtDiscriminant := cmplx.Sqrt(discriminant)
	den := complex(2*a, 0)
	return [2]complex128{
		(-complex(b, 0) + sqrtDiscriminant) / den,
		(-complex(b, 0) - sqrtDiscriminant) / den,
	}
}
