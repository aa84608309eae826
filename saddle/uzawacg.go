// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saddle

import (
	"math"

	"github.com/cpmech/gofvm/blas"
	"github.com/cpmech/gosl/chk"
)

// solveUzawaCg runs a preconditioned conjugate gradient on the pressure
// Schur complement S = M21 * M11inv * M12. Each application of S costs one
// solve with the velocity block; the preconditioner is the configured
// Schur approximation
func (o *Solver) solveUzawaCg(x1, x2, b1, b2 []float64) (err error) {
	h := o.Sh

	sa, err := o.buildSchurApply()
	if err != nil {
		return
	}

	// initial velocity consistent with the incoming pressure
	rhs := make([]float64, o.N1)
	copy(rhs, b1)
	h.M12VecAdd(rhs, -1, x2)
	for i := range x1 {
		x1[i] = 0
	}
	nit, _, serr := o.B11.Solve(h.M11, x1, rhs, 0)
	o.Algo.AddInner(nit)
	if serr != nil {
		o.Algo.CvgStatus = Diverged
		return serr
	}

	// gk may need ghost cells for halo exchanges in parallel runs
	ng := o.N2
	if h.Rset1.Distr {
		ng = h.M.NcellsWithGhost
	}
	gk := make([]float64, ng)   // Schur residual
	zk := make([]float64, o.N2) // preconditioned residual
	dzk := make([]float64, o.N2)
	sd := make([]float64, o.N2) // S * d
	wk := make([]float64, o.N1) // M11inv * M12 * d
	m12d := make([]float64, o.N1)

	// residual of the Schur equation: g = M21 x1 - b2
	h.M21Vec(gk, x1)
	for c := 0; c < o.N2; c++ {
		gk[c] -= b2[c]
	}
	res := math.Sqrt(blas.AllReduceSum(blas.SquareNorm(gk[:o.N2])))
	o.Algo.SetNormalization(res)
	if res <= o.Algo.Tol {
		o.Algo.CvgStatus = Converged
		return
	}

	snit, serr := sa.apply(zk, gk[:o.N2])
	o.Algo.AddInner(snit)
	if serr != nil {
		return serr
	}
	copy(dzk, zk)
	gz := blas.AllReduceSum(blas.Dot(gk[:o.N2], zk))

	for {
		// apply the Schur complement to the search direction
		h.M12Vec(m12d, dzk)
		for i := range wk {
			wk[i] = 0
		}
		nit, _, serr = o.B11.Solve(h.M11, wk, m12d, 0)
		o.Algo.AddInner(nit)
		if serr != nil {
			o.Algo.CvgStatus = Diverged
			return serr
		}
		h.M21Vec(sd, wk)

		dsd := blas.AllReduceSum(blas.Dot(dzk, sd))
		if dsd == 0 {
			o.Algo.CvgStatus = Diverged
			return chk.Err("saddle %q: uzawa-cg breakdown", o.Pa.Name)
		}
		rho := gz / dsd

		// move the pressure along the direction and keep the velocity
		// consistent: x1 = M11inv (b1 - M12 x2)
		for c := 0; c < o.N2; c++ {
			x2[c] += rho * dzk[c]
		}
		for i := 0; i < o.N1; i++ {
			x1[i] -= rho * wk[i]
		}
		for c := 0; c < o.N2; c++ {
			gk[c] -= rho * sd[c]
		}

		res = math.Sqrt(blas.AllReduceSum(blas.SquareNorm(gk[:o.N2])))
		if o.Algo.Update(res) != Ongoing {
			return
		}

		snit, serr = sa.apply(zk, gk[:o.N2])
		o.Algo.AddInner(snit)
		if serr != nil {
			return serr
		}
		gzNew := blas.AllReduceSum(blas.Dot(gk[:o.N2], zk))
		beta := gzNew / gz
		gz = gzNew
		for c := 0; c < o.N2; c++ {
			dzk[c] = zk[c] + beta*dzk[c]
		}
	}
}
