// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package boxqp solves box-constrained quadratic programs
//
//	minimize   ½ xᵀHx + qᵀx
//	subject to l ≤ x ≤ u
//
// with a projected-Newton active-set method, meant to be called
// repeatedly with a warm start inside an outer optimization loop.
package boxqp

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

// LogLevel controls the frequency and type of logger output
type LogLevel int

const (
	// LogNoop no output is generated (level < 0)
	LogNoop LogLevel = -1
	// LogLast print only one line when the solve returns
	LogLast LogLevel = 0
	// LogEval print also f, |g| and the active-set split at every iteration
	LogEval LogLevel = 1
	// LogVerbose print also the iterate x
	LogVerbose LogLevel = 2
)

// Logger handles logging output for the solver.
// Note the writer must be thread-safe.
type Logger struct {
	Level LogLevel
	Msg   io.Writer // Writer to output log messages.
}

func (l *Logger) enable(level LogLevel) bool {
	return l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}

// Problem specifies a family of box-constrained quadratic programs
// of fixed dimension N.
type Problem struct {
	// The problem dimension
	N int
	// The iteration stop when the number of iteration exceeds limit.
	MaxIterations int
	// The line-search accept a candidate when the decrease satisfied:
	//   f(xₖ) - f(xₖ₊₁) > 𝚝𝚑 × gₖᵀ(xₖ - xₖ₊₁)
	// Must lie in (0,1): smaller values accept steps more easily.
	AcceptStepThreshold float64
	// The iteration will stop when the gradient or the step satisfied:
	//   ‖ gₖ ‖∞ ≤ 𝚝𝚘𝚕  or  ‖ dxₖ ‖∞ < 𝚝𝚘𝚕
	GradThreshold float64
	// Added to the diagonal of the free Hessian block before
	// factorization. Must not be negative. A positive value keeps the
	// factorization alive when H is singular on the free subspace.
	Regularization float64
}

// New creates a new projected-Newton solver for given problem.
func (p *Problem) New(logger *Logger) (solver *Solver, err error) {

	if logger == nil {
		logger = new(Logger)
		logger.Level = LogNoop
	}
	if logger.Msg == nil {
		logger.Msg = os.Stdout
	}

	n := p.N
	switch {
	case n <= 0:
		err = errors.New("problem dimension must greater than 0")
	case p.MaxIterations <= 0:
		err = errors.New("max iteration must greater than 1")
	case math.IsNaN(p.AcceptStepThreshold) || p.AcceptStepThreshold <= zero || p.AcceptStepThreshold >= one:
		err = errors.New("accept step threshold must lie in (0,1)")
	case math.IsNaN(p.GradThreshold) || p.GradThreshold < zero:
		err = errors.New("gradient threshold must not less than 0")
	case math.IsNaN(p.Regularization) || p.Regularization < zero:
		err = errors.New("regularization must not less than 0")
	}
	if err != nil {
		return
	}

	alphas := make([]float64, numAlphas)
	for i := range alphas {
		alphas[i] = one / math.Pow(two, float64(i))
	}

	nn := n * n
	wrk := make([]float64, 8*n+2*nn)
	solver = &Solver{
		qpSpec: qpSpec{
			n:          n,
			maxIter:    p.MaxIterations,
			acceptStep: p.AcceptStepThreshold,
			gradTol:    p.GradThreshold,
			reg:        p.Regularization,
			alphas:     alphas,
			logger:     *logger,
		},
		qpCtx: qpCtx{
			x:    wrk[0:n],
			xnew: wrk[n : 2*n],
			g:    wrk[2*n : 3*n],
			dx:   wrk[3*n : 4*n],
			hx:   wrk[4*n : 5*n],
			xdif: wrk[5*n : 6*n],
			qf:   wrk[6*n : 7*n],
			dxf:  wrk[7*n : 8*n],
			hff:  wrk[8*n : 8*n+nn],
			hnv:  wrk[8*n+nn:],

			free:    make([]int, 0, n),
			clamped: make([]int, 0, n),
		},
	}
	return
}

// Solver implemented using the projected-Newton active-set algorithm.
//
// A solver owns working buffers sized to the problem dimension and
// reuses them across calls, so it is not safe for concurrent Solve
// calls: create one solver per goroutine, or serialize the calls.
type Solver struct {
	qpSpec
	qpCtx
	sol Solution
}

// Solution contains the result of one Solve call.
//
// Its fields alias storage owned by the solver: a Solution is only
// valid until the next Solve call on the same instance.
type Solution struct {
	X []float64 // Feasible minimizer, l ≤ X ≤ u.
	F float64   // Objective value at X.
	// The active-set partition at X: Free holds the indices not pinned
	// to a bound, Clamped its complement. Both are in increasing order.
	Free, Clamped []int
	// Inverse of the (regularized) free Hessian block H[Free,Free] from
	// the most recent successful factorization, usable by callers as a
	// feedback-gain matrix. Empty when no factorization was performed,
	// which happens only when every variable is clamped at once.
	FreeInv *mat.SymDense
	// Number of outer iterations performed.
	NumIter int
}
