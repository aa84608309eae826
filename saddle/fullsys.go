// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saddle

import (
	"math"

	"github.com/cpmech/gofvm/blas"
	"github.com/cpmech/gofvm/mtx"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/mpi"
)

// directSolve factorizes the triplet and solves in place
func (o *Solver) directSolve(t *la.Triplet, x, b []float64) (err error) {
	distr := mpi.IsOn() && mpi.Size() > 1
	ds := o.Pa.B11.Direct
	lis := mtx.GetLinSol(mtx.Mumps, distr, ds)
	defer lis.Free()
	if err = mtx.InitLinSol(lis, t, ds, false, o.Pa.Verbosity > 1); err != nil {
		return
	}
	if err = lis.Fact(); err != nil {
		return
	}
	return lis.SolveR(x, b, false)
}

// residualFull returns the residual norm of the original saddle system
func (o *Solver) residualFull(x1, x2, b1, b2 []float64) float64 {
	h := o.Sh
	r1 := make([]float64, o.N1)
	r2 := make([]float64, o.N2)
	h.M11.MatVec(r1, x1)
	h.M12VecAdd(r1, 1, x2)
	for i := 0; i < o.N1; i++ {
		r1[i] = b1[i] - r1[i]
	}
	h.M21Vec(r2, x1)
	for c := 0; c < o.N2; c++ {
		r2[c] = b2[c] - r2[c]
	}
	return math.Sqrt(h.SquareNormB11(r1) + blas.AllReduceSum(blas.SquareNorm(r2)))
}

// solveFullSystem assembles the combined matrix and delegates the whole
// solve to the direct backend
func (o *Solver) solveFullSystem(x1, x2, b1, b2 []float64) (err error) {
	if o.Pa.Solver != MumpsLU && o.Pa.Solver != Fgmres {
		chk.Panic("saddle %q: full-system path reached with solver %s", o.Pa.Name, SolverName(o.Pa.Solver))
	}
	if o.Pa.Solver == Fgmres {
		return chk.Err("saddle %q: flexible GMRES needs the PETSc backend", o.Pa.Name)
	}
	h := o.Sh
	h.AssembleCombined()
	t := h.Mx.ToTriplet()

	n := o.N1 + o.N2
	x := make([]float64, n)
	b := make([]float64, n)
	copy(b[:o.N1], b1)
	copy(b[o.N1:], b2)
	o.Algo.SetNormalization(blas.Norm(b))

	if err = o.directSolve(t, x, b); err != nil {
		o.Algo.CvgStatus = Diverged
		return
	}
	copy(x1, x[:o.N1])
	copy(x2, x[o.N1:])
	o.Algo.AddInner(1)
	o.Algo.Update(o.residualFull(x1, x2, b1, b2))
	return
}
