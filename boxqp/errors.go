// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boxqp

import "fmt"

// ArgumentError reports a Solve input whose dimension does not match
// the problem dimension. It is detected before any buffer is touched,
// so the previous Solution stays intact.
type ArgumentError struct {
	Arg string // Offending argument: "H", "q", "lb", "ub" or "xinit".
	Dim int    // The expected dimension.
}

func (e *ArgumentError) Error() string {
	if e.Arg == "H" {
		return fmt.Sprintf("boxqp: H has wrong dimension (it should be %d,%d)", e.Dim, e.Dim)
	}
	return fmt.Sprintf("boxqp: %s has wrong dimension (it should be %d)", e.Arg, e.Dim)
}

// FactorizationError reports that the free Hessian block is not
// positive definite. The Solve call is abandoned without retry:
// callers wanting robustness should configure a larger Regularization
// and call again.
type FactorizationError struct {
	Dim int // The free-subspace dimension at the failed factorization.
}

func (e *FactorizationError) Error() string {
	return fmt.Sprintf("boxqp: free hessian block of dimension %d is not positive definite", e.Dim)
}
