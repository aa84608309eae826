// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sles

import (
	"github.com/cpmech/gofvm/blas"
	"github.com/cpmech/gofvm/mtx"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
)

// solveDirect factorizes A and solves in one shot through the sparse
// direct solver interface
func solveDirect(pa *Param, A mtx.Matrix, x, b []float64) (err error) {
	tr, ok := A.(mtx.Tripleter)
	if !ok {
		return chk.Err("sles %q: direct solver needs a matrix convertible to triplet form", pa.Name)
	}
	t := tr.ToTriplet()
	distr := mpi.IsOn() && mpi.Size() > 1
	lis := mtx.GetLinSol(pa.Class, distr, pa.Direct)
	defer lis.Free()
	if err = mtx.InitLinSol(lis, t, pa.Direct, A.IsSym(), pa.Verbosity > 1); err != nil {
		return
	}
	if err = lis.Fact(); err != nil {
		return
	}
	return lis.SolveR(x, b, false)
}

// Solve runs the solver configured in the handle on A*x = b, starting from
// the content of x. normalization is the reference residual; when not
// positive the norm of b is used instead. It returns the number of
// iterations and the final absolute residual
func (o *Handle) Solve(A mtx.Matrix, x, b []float64, normalization float64) (nit int, res float64, err error) {
	pa := o.Pa
	if err = pa.Check(); err != nil {
		return
	}

	rnorm := normalization
	if rnorm <= 0 {
		rnorm = blas.Norm(b)
	}
	if rnorm == 0 {
		rnorm = 1
	}

	if pa.Solver == "mumps" {
		err = solveDirect(pa, A, x, b)
		if err == nil {
			nit = 1
			o.Nsolves++
			o.Niters++
		}
		return
	}

	if o.Pc == nil {
		if o.Pc, err = NewPrecond(pa, A); err != nil {
			return
		}
	}

	switch pa.Solver {
	case "cg":
		nit, res, err = solveCG(pa, A, o.Pc, x, b, rnorm, false)
	case "fcg":
		nit, res, err = solveCG(pa, A, o.Pc, x, b, rnorm, pa.Flexible)
	case "gcr":
		nit, res, err = solveGCR(pa, A, o.Pc, x, b, rnorm, 30)
	default:
		err = chk.Err("sles %q: unknown solver %q", pa.Name, pa.Solver)
		return
	}

	o.Nsolves++
	o.Niters += nit
	o.LastRes = res
	if pa.Verbosity > 0 {
		io.Pf("sles %q: %s/%s converged=%v it=%d res=%g\n", pa.Name, pa.Solver, pa.Precond, err == nil, nit, res)
	}
	return
}

// SolveScalarSystem is the convenience entry point solving one scalar
// system with the parameters attached to its field
func SolveScalarSystem(pa *Param, A mtx.Matrix, x, b []float64, normalization float64) (nit int, res float64, err error) {
	h := &Handle{Pa: pa}
	return h.Solve(A, x, b, normalization)
}
