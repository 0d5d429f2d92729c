// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boxqp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Solve minimizes ½ xᵀHx + qᵀx subject to lb ≤ x ≤ ub, starting from
// the warm-start hint xinit.
//
// The hint may be infeasible: it is projected onto the box before the
// first iteration, so every returned Solution is feasible. H, q, lb
// and ub are read-only during the call and not retained afterwards.
// Running out of iterations is not an error: the best iterate found is
// returned.
func (s *Solver) Solve(H mat.Symmetric, q, lb, ub, xinit []float64) (*Solution, error) {

	if err := s.validate(H, q, lb, ub, xinit); err != nil {
		return nil, err
	}

	// Enforce feasible warm-starting of the algorithm.
	x := s.x
	for i := range x {
		x[i] = math.Max(math.Min(xinit[i], ub[i]), lb[i])
	}
	s.freeInv = nil

	log := &s.logger
	inf := math.Inf(1)

	for k := 0; k < s.maxIter; k++ {
		s.iter = k

		s.gradient(H, q)
		s.partition(lb, ub)
		nf := len(s.free)

		if log.enable(LogEval) {
			log.log("At iterate %5d    f= %12.5e    |g|= %12.5e    free= %4d\n",
				k, s.objective(H, q, x), floats.Norm(s.g, inf), nf)
			if log.enable(LogVerbose) {
				log.log("X = %v\n", x)
			}
		}

		// The current point is a fixed point of the active-set map.
		if floats.Norm(s.g, inf) <= s.gradTol || nf == 0 {
			if k == 0 && nf > 0 {
				// Callers consume the free Hessian inverse even when
				// zero Newton steps were taken.
				if err := s.factorize(H); err != nil {
					return nil, err
				}
			}
			return s.solution(H, q), nil
		}

		if err := s.factorize(H); err != nil {
			return nil, err
		}
		if err := s.newtonStep(H, q); err != nil {
			return nil, err
		}

		// No further progress is achievable from this point.
		if floats.Norm(s.dx, inf) < s.gradTol {
			return s.solution(H, q), nil
		}

		s.lineSearch(H, q, lb, ub)
	}

	s.iter = s.maxIter
	return s.solution(H, q), nil
}

func (s *Solver) validate(H mat.Symmetric, q, lb, ub, xinit []float64) error {
	n := s.n
	switch {
	case H == nil || H.SymmetricDim() != n:
		return &ArgumentError{Arg: "H", Dim: n}
	case len(q) != n:
		return &ArgumentError{Arg: "q", Dim: n}
	case len(lb) != n:
		return &ArgumentError{Arg: "lb", Dim: n}
	case len(ub) != n:
		return &ArgumentError{Arg: "ub", Dim: n}
	case len(xinit) != n:
		return &ArgumentError{Arg: "xinit", Dim: n}
	}
	return nil
}

// gradient computes g = q + H·x.
func (s *Solver) gradient(H mat.Symmetric, q []float64) {
	hx := mat.NewVecDense(s.n, s.hx)
	hx.MulVec(H, mat.NewVecDense(s.n, s.x))
	floats.AddTo(s.g, q, s.hx)
}

// partition rebuilds the active set from scratch: a variable is
// clamped when it sits on a bound and the gradient pushes it outward,
// free otherwise. Bound activity is exact equality, not a tolerance:
// the projection writes bound values verbatim into the iterate.
func (s *Solver) partition(lb, ub []float64) {
	s.free, s.clamped = s.free[:0], s.clamped[:0]
	for j, xj := range s.x {
		gj := s.g[j]
		if (xj == lb[j] && gj > zero) || (xj == ub[j] && gj < zero) {
			s.clamped = append(s.clamped, j)
		} else {
			s.free = append(s.free, j)
		}
	}
}

// factorize gathers the free Hessian block H𝚏𝚏, shifts its diagonal by
// the regularization, and computes its Cholesky factorization together
// with the explicit inverse exposed on the Solution.
func (s *Solver) factorize(H mat.Symmetric) error {
	nf := len(s.free)
	hff := mat.NewSymDense(nf, s.hff[:nf*nf])
	for i, fi := range s.free {
		for j := i; j < nf; j++ {
			hff.SetSym(i, j, H.At(fi, s.free[j]))
		}
	}
	if s.reg != zero {
		for i := 0; i < nf; i++ {
			hff.SetSym(i, i, hff.At(i, i)+s.reg)
		}
	}
	if !s.chol.Factorize(hff) {
		if log := &s.logger; log.enable(LogLast) {
			log.log("Free hessian block not positive definite at iterate %d\n", s.iter)
		}
		return &FactorizationError{Dim: nf}
	}
	hnv := mat.NewSymDense(nf, s.hnv[:nf*nf])
	if err := s.chol.InverseTo(hnv); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return &FactorizationError{Dim: nf}
		}
	}
	s.freeInv = hnv
	return nil
}

// newtonStep solves the restricted subproblem on the free subspace,
// holding the clamped variables at their bound values:
//
//	dx𝚏 = H𝚏𝚏⁻¹(-(q𝚏 + H𝚏𝚌·x𝚌)) - x𝚏
//
// and scatters the displacement into the full-space step dx with
// zeros at the clamped positions.
func (s *Solver) newtonStep(H mat.Symmetric, q []float64) error {
	nf := len(s.free)
	qf := s.qf[:nf]
	for i, fi := range s.free {
		v := q[fi]
		for _, cj := range s.clamped {
			v += H.At(fi, cj) * s.x[cj]
		}
		qf[i] = -v
	}
	dxf := mat.NewVecDense(nf, s.dxf[:nf])
	if err := s.chol.SolveVecTo(dxf, mat.NewVecDense(nf, qf)); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return &FactorizationError{Dim: nf}
		}
	}
	for i := range s.dx {
		s.dx[i] = zero
	}
	for i, fi := range s.free {
		s.dx[fi] = s.dxf[i] - s.x[fi]
	}
	return nil
}

// solution assembles the returned view over the solver-owned buffers.
func (s *Solver) solution(H mat.Symmetric, q []float64) *Solution {
	freeInv := s.freeInv
	if freeInv == nil {
		freeInv = new(mat.SymDense)
	}
	s.sol = Solution{
		X:       s.x,
		F:       s.objective(H, q, s.x),
		Free:    s.free,
		Clamped: s.clamped,
		FreeInv: freeInv,
		NumIter: s.iter,
	}
	if log := &s.logger; log.enable(LogLast) {
		log.log("Solve returns after %d iterations: f= %12.5e (%d free, %d clamped)\n",
			s.sol.NumIter, s.sol.F, len(s.sol.Free), len(s.sol.Clamped))
	}
	return &s.sol
}
