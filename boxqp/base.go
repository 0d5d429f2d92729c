// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boxqp

import (
	"gonum.org/v1/gonum/mat"
)

const (
	zero = 0.0
	one  = 1.0
	two  = 2.0
	half = 0.5
)

// numAlphas is the length of the fixed step schedule 1, ½, ¼, …, 1/512.
const numAlphas = 10

type qpSpec struct {
	// the number of variables
	n int
	// the outer iteration limit
	maxIter int
	// the sufficient-decrease factor of the line-search
	acceptStep float64
	// the convergence tolerance on gradient and Newton step
	gradTol float64
	// the diagonal shift of the free Hessian block
	reg float64
	// the step schedule of the line-search
	alphas []float64
	logger Logger
}

// qpCtx holds the working buffers of one solver instance.
// The n-sized vectors share a single backing array carved at construction.
// The reduced-space buffers are re-headed to the current free cardinality
// every iteration without reallocating.
type qpCtx struct {
	x    []float64 // n : current iterate
	xnew []float64 // n : projected line-search candidate
	g    []float64 // n : gradient q + Hx
	dx   []float64 // n : full-space Newton step
	hx   []float64 // n : Hessian-vector product
	xdif []float64 // n : x - xnew for the accept test

	qf  []float64 // ≤n   : reduced right-hand side
	dxf []float64 // ≤n   : reduced Newton displacement
	hff []float64 // ≤n×n : free Hessian block backing
	hnv []float64 // ≤n×n : free Hessian inverse backing

	free    []int // indices free to move, increasing
	clamped []int // indices pinned to a bound, increasing

	chol    mat.Cholesky
	freeInv *mat.SymDense // most recent successful factorization
	iter    int
}
