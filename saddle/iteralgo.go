// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saddle

import (
	"math"

	"github.com/cpmech/gofvm/sles"
	"github.com/cpmech/gosl/io"
)

// Status is the termination state of an iterative algorithm
type Status int

const (
	Ongoing Status = iota
	Converged
	Diverged
	MaxIter
)

// String returns the status label
func (s Status) String() string {
	switch s {
	case Ongoing:
		return "ongoing"
	case Converged:
		return "converged"
	case Diverged:
		return "diverged"
	case MaxIter:
		return "max_iter"
	}
	return "unknown"
}

// IterAlgo tracks the convergence of one saddle-point solve: outer
// iterations, cumulated inner iterations and the residual history
type IterAlgo struct {
	Cvg      sles.Cvg
	TwoLevel bool // inner iterations are budgeted separately

	NAlgoIter  int     // outer iterations done
	NInnerIter int     // cumulated inner iterations
	Res        float64 // current residual
	Res0       float64 // reference residual
	Tol        float64 // max(atol, rtol*res0)
	CvgStatus  Status
}

// NewIterAlgo creates a tracker with the given stopping criteria
func NewIterAlgo(cvg sles.Cvg, twoLevel bool) (o *IterAlgo) {
	o = new(IterAlgo)
	o.Cvg = cvg
	o.TwoLevel = twoLevel
	o.Res = math.MaxFloat64
	o.Tol = cvg.Atol
	return
}

// SetNormalization fixes the reference residual and the derived tolerance
func (o *IterAlgo) SetNormalization(res0 float64) {
	o.Res0 = res0
	o.Tol = math.Max(o.Cvg.Atol, o.Cvg.Rtol*res0)
}

// AddInner accumulates inner iterations into the telemetry
func (o *IterAlgo) AddInner(n int) {
	o.NInnerIter += n
}

// Update records the residual of one more outer iteration and returns the
// new status
func (o *IterAlgo) Update(res float64) Status {
	o.NAlgoIter++
	o.Res = res
	switch {
	case math.IsNaN(res):
		o.CvgStatus = Diverged
	case res <= o.Tol:
		o.CvgStatus = Converged
	case o.Cvg.Dtol > 0 && res > o.Cvg.Dtol*math.Max(o.Res0, o.Cvg.Atol):
		o.CvgStatus = Diverged
	case o.NAlgoIter >= o.Cvg.NmaxIter:
		o.CvgStatus = MaxIter
	default:
		o.CvgStatus = Ongoing
	}
	return o.CvgStatus
}

// Report prints one line of telemetry when verbosity allows
func (o *IterAlgo) Report(name string, verbosity int) {
	if verbosity < 1 {
		return
	}
	io.Pf("saddle %q: %s  it=%d inner=%d res=%g (res0=%g)\n",
		name, o.CvgStatus, o.NAlgoIter, o.NInnerIter, o.Res, o.Res0)
}
