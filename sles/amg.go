// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sles

import (
	"github.com/cpmech/gofvm/mtx"
	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/mat"
)

// AmgPc is an aggregation-based two-grid preconditioner: damped Jacobi
// smoothing on the fine level and a dense factorization on the coarse
// level obtained by repeated pairwise aggregation
type AmgPc struct {
	A     mtx.Matrix
	idiag []float64 // inverse diagonal for the smoother
	omega float64   // Jacobi damping
	nu    int       // smoothing sweeps on each side

	agg []int   // composite fine-to-coarse map
	nc  int     // coarse size
	lu  *mat.LU // factorized coarse operator

	// work vectors
	r, z, rc, ec []float64
}

// amgMaxCoarse bounds the size of the dense coarse problem
const amgMaxCoarse = 400

// NewAmgPc builds the aggregation hierarchy and factorizes the coarse
// operator
func NewAmgPc(A mtx.Matrix, sc mtx.Scanner) (o *AmgPc, err error) {
	n := A.Nrows()
	o = new(AmgPc)
	o.A = A
	o.omega = 2.0 / 3.0
	o.nu = 1
	o.idiag = make([]float64, n)
	for i, v := range A.Diag() {
		if v == 0 {
			return nil, chk.Err("amg: zero diagonal at row %d", i)
		}
		o.idiag[i] = 1.0 / v
	}

	// collect the fine operator in coordinate form
	type key struct{ i, j int }
	coo := make(map[key]float64)
	for i, v := range A.Diag() {
		coo[key{i, i}] = v
	}
	sc.ForEachExtra(func(i, j int, v float64) {
		coo[key{i, j}] += v
	})

	// repeated pairwise aggregation until the coarse problem is small
	o.agg = make([]int, n)
	for i := range o.agg {
		o.agg[i] = i
	}
	nc := n
	for nc > amgMaxCoarse {
		// strongest-coupling neighbour of each point
		best := make([]int, nc)
		strength := make([]float64, nc)
		for i := range best {
			best[i] = -1
		}
		for k, v := range coo {
			if k.i == k.j {
				continue
			}
			s := v
			if s < 0 {
				s = -s
			}
			if s > strength[k.i] {
				strength[k.i] = s
				best[k.i] = k.j
			}
		}
		// greedy matching
		cmap := make([]int, nc)
		for i := range cmap {
			cmap[i] = -1
		}
		m := 0
		for i := 0; i < nc; i++ {
			if cmap[i] >= 0 {
				continue
			}
			cmap[i] = m
			if j := best[i]; j >= 0 && cmap[j] < 0 {
				cmap[j] = m
			}
			m++
		}
		if m == nc { // no pair formed, stop coarsening
			break
		}
		// Galerkin product with piecewise-constant transfer
		next := make(map[key]float64, len(coo))
		for k, v := range coo {
			next[key{cmap[k.i], cmap[k.j]}] += v
		}
		coo = next
		for i := range o.agg {
			o.agg[i] = cmap[o.agg[i]]
		}
		nc = m
	}
	o.nc = nc

	// dense factorization of the coarse operator
	Ac := mat.NewDense(nc, nc, nil)
	for k, v := range coo {
		Ac.Set(k.i, k.j, Ac.At(k.i, k.j)+v)
	}
	o.lu = new(mat.LU)
	o.lu.Factorize(Ac)
	o.r = make([]float64, n)
	o.z = make([]float64, n)
	o.rc = make([]float64, nc)
	o.ec = make([]float64, nc)
	return
}

// smooth performs nu damped Jacobi sweeps on A*x = b
func (o *AmgPc) smooth(x, b []float64) {
	n := len(x)
	for s := 0; s < o.nu; s++ {
		o.A.MatVec(o.r, x)
		for i := 0; i < n; i++ {
			x[i] += o.omega * o.idiag[i] * (b[i] - o.r[i])
		}
	}
}

// Apply performs one two-grid cycle: pre-smoothing, coarse correction and
// post-smoothing
func (o *AmgPc) Apply(z, r []float64) {
	n := len(r)
	for i := 0; i < n; i++ {
		z[i] = 0
	}
	o.smooth(z, r)

	// restrict the residual
	o.A.MatVec(o.z, z)
	for i := 0; i < o.nc; i++ {
		o.rc[i] = 0
	}
	for i := 0; i < n; i++ {
		o.rc[o.agg[i]] += r[i] - o.z[i]
	}

	// coarse solve and prolongation
	rcv := mat.NewVecDense(o.nc, o.rc)
	ecv := mat.NewVecDense(o.nc, o.ec)
	if err := o.lu.SolveVecTo(ecv, false, rcv); err != nil {
		// singular coarse operator: skip the correction
		return
	}
	for i := 0; i < n; i++ {
		z[i] += o.ec[o.agg[i]]
	}

	o.smooth(z, r)
}
