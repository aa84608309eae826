// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sles

import (
	"math"

	"github.com/cpmech/gofvm/blas"
	"github.com/cpmech/gofvm/mtx"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// converged tells whether the residual res passed the stopping test with
// respect to the reference value rnorm
func converged(cvg *Cvg, res, rnorm float64) bool {
	return res <= math.Max(cvg.Atol, cvg.Rtol*rnorm)
}

// diverged tells whether the residual blew past the divergence threshold
func diverged(cvg *Cvg, res, rnorm float64) bool {
	if cvg.Dtol <= 0 {
		return false
	}
	return res > cvg.Dtol*math.Max(rnorm, cvg.Atol) || math.IsNaN(res)
}

// solveCG runs preconditioned conjugate gradients on A*x = b. The flexible
// variant uses the Polak-Ribiere update of the search direction, allowing
// the preconditioner to vary between applications
func solveCG(pa *Param, A mtx.Matrix, pc Preconditioner, x, b []float64, rnorm float64, flexible bool) (nit int, res float64, err error) {
	n := A.Nrows()
	r := make([]float64, n)
	z := make([]float64, n)
	p := make([]float64, n)
	q := make([]float64, n)
	var zold []float64
	if flexible {
		zold = make([]float64, n)
	}

	A.MatVec(r, x)
	for i := 0; i < n; i++ {
		r[i] = b[i] - r[i]
	}
	res = blas.Norm(r)
	if converged(&pa.Cvg, res, rnorm) {
		return
	}

	pc.Apply(z, r)
	copy(p, z)
	rz := blas.Dot(r, z)

	for nit = 1; nit <= pa.Cvg.NmaxIter; nit++ {
		A.MatVec(q, p)
		pq := blas.Dot(p, q)
		if pq == 0 {
			err = chk.Err("sles %q: cg breakdown at iteration %d", pa.Name, nit)
			return
		}
		alpha := rz / pq
		for i := 0; i < n; i++ {
			x[i] += alpha * p[i]
			r[i] -= alpha * q[i]
		}
		res = blas.Norm(r)
		if pa.Verbosity > 1 {
			io.Pf("  cg %q it=%4d res=%23.15e\n", pa.Name, nit, res)
		}
		if converged(&pa.Cvg, res, rnorm) {
			return
		}
		if diverged(&pa.Cvg, res, rnorm) {
			err = chk.Err("sles %q: cg diverged at iteration %d (res=%g)", pa.Name, nit, res)
			return
		}
		if flexible {
			copy(zold, z)
		}
		pc.Apply(z, r)
		rzNew := blas.Dot(r, z)
		var beta float64
		if flexible {
			beta = (rzNew - blas.Dot(r, zold)) / rz
		} else {
			beta = rzNew / rz
		}
		rz = rzNew
		for i := 0; i < n; i++ {
			p[i] = z[i] + beta*p[i]
		}
	}
	nit = pa.Cvg.NmaxIter
	err = chk.Err("sles %q: cg did not converge after %d iterations (res=%g)", pa.Name, nit, res)
	return
}

// solveGCR runs the generalized conjugate residual method with restarts,
// keeping at most nStored direction couples
func solveGCR(pa *Param, A mtx.Matrix, pc Preconditioner, x, b []float64, rnorm float64, nStored int) (nit int, res float64, err error) {
	n := A.Nrows()
	if nStored < 1 {
		nStored = 30
	}
	r := make([]float64, n)
	z := make([]float64, n)
	P := make([][]float64, nStored) // preconditioned directions
	Q := make([][]float64, nStored) // A times directions
	for k := range P {
		P[k] = make([]float64, n)
		Q[k] = make([]float64, n)
	}

	A.MatVec(r, x)
	for i := 0; i < n; i++ {
		r[i] = b[i] - r[i]
	}
	res = blas.Norm(r)
	if converged(&pa.Cvg, res, rnorm) {
		return
	}

	for nit < pa.Cvg.NmaxIter {
		for k := 0; k < nStored && nit < pa.Cvg.NmaxIter; k++ {
			nit++
			pc.Apply(z, r)
			copy(P[k], z)
			A.MatVec(Q[k], P[k])

			// orthogonalize against the stored directions
			for j := 0; j < k; j++ {
				beta := blas.Dot(Q[k], Q[j])
				for i := 0; i < n; i++ {
					P[k][i] -= beta * P[j][i]
					Q[k][i] -= beta * Q[j][i]
				}
			}
			qq := blas.SquareNorm(Q[k])
			if qq == 0 {
				err = chk.Err("sles %q: gcr breakdown at iteration %d", pa.Name, nit)
				return
			}
			s := 1.0 / math.Sqrt(qq)
			for i := 0; i < n; i++ {
				P[k][i] *= s
				Q[k][i] *= s
			}
			alpha := blas.Dot(Q[k], r)
			for i := 0; i < n; i++ {
				x[i] += alpha * P[k][i]
				r[i] -= alpha * Q[k][i]
			}
			res = blas.Norm(r)
			if pa.Verbosity > 1 {
				io.Pf("  gcr %q it=%4d res=%23.15e\n", pa.Name, nit, res)
			}
			if converged(&pa.Cvg, res, rnorm) {
				return
			}
			if diverged(&pa.Cvg, res, rnorm) {
				err = chk.Err("sles %q: gcr diverged at iteration %d (res=%g)", pa.Name, nit, res)
				return
			}
		}
	}
	err = chk.Err("sles %q: gcr did not converge after %d iterations (res=%g)", pa.Name, nit, res)
	return
}
