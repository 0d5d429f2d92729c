// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boxqp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// objective evaluates f(x) = ½ xᵀHx + qᵀx.
func (s *Solver) objective(H mat.Symmetric, q, x []float64) float64 {
	hx := mat.NewVecDense(s.n, s.hx)
	hx.MulVec(H, mat.NewVecDense(s.n, x))
	return half*floats.Dot(x, s.hx) + floats.Dot(q, x)
}

// lineSearch walks the fixed step schedule 1, ½, ¼, …, 1/512 and takes
// the first projected candidate with a sufficient objective decrease:
//
//	f(xₖ) - f(xₖ₊₁) > 𝚝𝚑 × gₖᵀ(xₖ - xₖ₊₁)
//
// The decrease is measured against the gradient over the projected
// displacement rather than a fixed directional derivative, so a
// candidate clipped onto the box is still judged by where it actually
// lands. When no step qualifies the iterate stays in place and the
// outer loop recomputes the same point until the iteration limit.
func (s *Solver) lineSearch(H mat.Symmetric, q, lb, ub []float64) (alpha float64, ok bool) {

	fold := s.objective(H, q, s.x)
	for _, a := range s.alphas {
		for i, xi := range s.x {
			s.xnew[i] = math.Max(math.Min(xi+a*s.dx[i], ub[i]), lb[i])
		}
		fnew := s.objective(H, q, s.xnew)
		floats.SubTo(s.xdif, s.x, s.xnew)
		if fold-fnew > s.acceptStep*floats.Dot(s.g, s.xdif) {
			copy(s.x, s.xnew)
			if log := &s.logger; log.enable(LogVerbose) {
				log.log("Accept step %8.6f    f= %12.5e\n", a, fnew)
			}
			return a, true
		}
	}
	if log := &s.logger; log.enable(LogVerbose) {
		log.log("Step schedule exhausted, iterate unchanged\n")
	}
	return zero, false
}
