// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saddle

import (
	"github.com/cpmech/gofvm/mtx"
	"github.com/cpmech/gofvm/sles"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Solver drives one saddle-point solve: it owns the parameters, the
// sparsity helper, the handle of the (1,1)-block solver and the
// convergence tracker. The algorithm context is created on entry to Solve
// and dropped on exit, on all paths
type Solver struct {
	Pa  *Param
	Sh  *Helper
	B11 *sles.Handle

	N1, N2 int
	Algo   *IterAlgo

	// physics data of the mass-scaled Schur approximations; set by the
	// caller before Solve
	MassDiag   []float64 // mu/V per cell
	SchurScale float64   // rho0 * alpha_t

	Mon Monitoring // accumulated over all solves of this solver
}

// Monitoring accumulates telemetry across the successive solves of one
// solver, e.g. along a time loop
type Monitoring struct {
	NCalls   int // number of solves
	NTotIter int // cumulated outer iterations
	MinIter  int // smallest iteration count of one solve
	MaxIter  int // largest iteration count of one solve
}

// update records the iteration count of one more solve
func (o *Monitoring) update(nit int) {
	if o.NCalls == 0 || nit < o.MinIter {
		o.MinIter = nit
	}
	if nit > o.MaxIter {
		o.MaxIter = nit
	}
	o.NCalls++
	o.NTotIter += nit
}

// Log prints the accumulated telemetry
func (o *Monitoring) Log(name string) {
	if o.NCalls == 0 {
		return
	}
	io.Pf("saddle %q: %d solve(s), %d iterations (min %d, max %d, mean %.1f)\n",
		name, o.NCalls, o.NTotIter, o.MinIter, o.MaxIter, float64(o.NTotIter)/float64(o.NCalls))
}

// NewSolver wires the dispatch for the algorithm selected in pa. The
// helper must have been built with the same parameters
func NewSolver(pa *Param, sh *Helper) (o *Solver, err error) {
	if pa.Solver == NoSolver {
		return nil, chk.Err("saddle %q: no solver selected", pa.Name)
	}
	if needsCombined(pa.Solver) && !sh.Combined {
		return nil, chk.Err("saddle %q: %s needs the combined layout", pa.Name, SolverName(pa.Solver))
	}
	if pa.Solver == Minres && (pa.Precond == PcLower || pa.Precond == PcUpper) {
		return nil, chk.Err("saddle %q: MINRES needs a symmetric preconditioner", pa.Name)
	}
	if pa.B11 == nil {
		return nil, chk.Err("saddle %q: the (1,1)-block solver settings are missing", pa.Name)
	}
	o = new(Solver)
	o.Pa = pa
	o.Sh = sh
	o.N1 = sh.N1
	o.N2 = sh.N2
	o.B11 = sles.FindOrAdd(pa.B11.FieldID, pa.B11.Name)
	o.B11.Pa = pa.B11
	pa.Log()
	return
}

// Solve runs the selected algorithm on the system with right-hand sides b1
// and b2, starting from and returning the solution in x1 and x2. It
// returns the number of outer iterations; the termination state is left in
// Algo.CvgStatus
func (o *Solver) Solve(x1, x2, b1, b2 []float64) (nit int, err error) {
	if len(x1) < o.N1 || len(x2) < o.N2 {
		chk.Panic("saddle %q: solution arrays are too short", o.Pa.Name)
	}
	o.Algo = NewIterAlgo(o.Pa.Cvg, o.Pa.Solver == UzawaCg || o.Pa.Solver == Alu)
	o.B11.Reset()

	switch o.Pa.Solver {
	case Alu:
		err = o.solveAlu(x1, x2, b1, b2)
	case Gkb:
		err = o.solveGkb(x1, x2, b1, b2)
	case UzawaCg:
		err = o.solveUzawaCg(x1, x2, b1, b2)
	case Gcr:
		err = o.solveBlockKrylov(x1, x2, b1, b2, false)
	case Minres:
		err = o.solveBlockKrylov(x1, x2, b1, b2, true)
	case NotayT:
		err = o.solveNotay(x1, x2, b1, b2)
	case MumpsLU, Fgmres:
		err = o.solveFullSystem(x1, x2, b1, b2)
	default:
		err = chk.Err("saddle %q: solver %s is not dispatchable", o.Pa.Name, SolverName(o.Pa.Solver))
	}

	o.Algo.Report(o.Pa.Name, o.Pa.Verbosity)
	nit = o.Algo.NAlgoIter
	o.Mon.update(nit)
	return
}

// GetM11InvLumped returns the lumped inverse of the velocity block: the
// solution of M11 * y = 1 computed with the extra solver settings. The
// inner iterations spent are accumulated into the tracker
func (o *Solver) GetM11InvLumped() (y []float64, err error) {
	if o.Pa.XtraSles == nil {
		return nil, chk.Err("saddle %q: lumped inverse needs the extra solver settings", o.Pa.Name)
	}
	ones := make([]float64, o.N1)
	for i := range ones {
		ones[i] = 1
	}
	y = make([]float64, o.N1)
	h := &sles.Handle{Pa: o.Pa.XtraSles}
	nit, _, err := h.Solve(o.Sh.M11, y, ones, 0)
	if o.Algo != nil {
		o.Algo.AddInner(nit)
	}
	return
}

// buildSchurApply prepares the application of the configured Schur
// approximation, assembling the approximate Schur matrix when the kind
// needs one
func (o *Solver) buildSchurApply() (sa *schurApply, err error) {
	var S *mtx.Native
	switch o.Pa.Schur {
	case SchurDiagInv, SchurMassScaledDiagInv:
		D := GetM11InvDiag(o.Sh.M11, o.Sh.Rset1)
		S = SchurMatrixFromM11InvApprox(o.Sh.M, D)
	case SchurLumpedInv, SchurMassScaledLumpedInv:
		var D []float64
		if D, err = o.GetM11InvLumped(); err != nil {
			return
		}
		S = SchurMatrixFromM11InvApprox(o.Sh.M, D)
	}
	return newSchurApply(o.Pa, o.MassDiag, o.SchurScale, S)
}
