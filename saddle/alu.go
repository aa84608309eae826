// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saddle

import (
	"math"

	"github.com/cpmech/gofvm/blas"
	"github.com/cpmech/gofvm/sles"
)

// augOp is the augmented velocity operator M11 + gamma * M12 * M22inv * M21
// applied matrix-free. Its diagonal is computable from the divergence
// coefficients, which makes Jacobi preconditioning of the inner solves
// possible
type augOp struct {
	h      *Helper
	gamma  float64
	invM22 []float64 // inverse of the pressure mass diagonal
	diag   []float64
	t2     []float64 // cell-space work
}

func newAugOp(h *Helper, gamma float64, invM22 []float64) (o *augOp) {
	o = new(augOp)
	o.h = h
	o.gamma = gamma
	o.invM22 = invM22
	o.t2 = make([]float64, h.N2)

	// diagonal of the augmentation: gamma * sum_c invM22[c] * val^2 over
	// the couples (c, f) touching each face component
	o.diag = make([]float64, h.N1)
	copy(o.diag, h.M11.Diag())
	m := h.M
	for c := 0; c < m.Ncells; c++ {
		row := m.C2f.Row(c)
		for i, f := range row {
			p := 3 * (m.C2f.Idx[c] + i)
			for k := 0; k < 3; k++ {
				v := h.M21Vals[p+k]
				o.diag[3*f+k] += gamma * invM22[c] * v * v
			}
		}
	}
	return
}

func (o *augOp) Nrows() int      { return o.h.N1 }
func (o *augOp) Ncols() int      { return o.h.N1 }
func (o *augOp) IsSym() bool     { return o.h.M11.IsSym() }
func (o *augOp) Diag() []float64 { return o.diag }

// MatVec computes y := M11*x + gamma * M12 * (M22inv o (M21*x))
func (o *augOp) MatVec(y, x []float64) {
	o.h.M11.MatVec(y, x)
	o.h.M21Vec(o.t2, x)
	for c := range o.t2 {
		o.t2[c] *= o.invM22[c]
	}
	o.h.M12VecAdd(y, o.gamma, o.t2)
}

// solveAlu runs the augmented-Lagrangian Uzawa iterations: each outer step
// solves the augmented velocity system with the extra solver settings and
// updates the pressure by a scaled divergence residual
func (o *Solver) solveAlu(x1, x2, b1, b2 []float64) (err error) {
	ctx := o.Pa.Ctx.(*AluCtx)
	gamma := ctx.Gamma
	h := o.Sh
	m := h.M

	invM22 := make([]float64, o.N2)
	for c := 0; c < o.N2; c++ {
		invM22[c] = 1.0 / m.CellVol[c]
	}
	A := newAugOp(h, gamma, invM22)

	// augmented right-hand side: b1 + gamma * M12 * (M22inv o b2)
	b1t := make([]float64, o.N1)
	copy(b1t, b1)
	w2 := make([]float64, o.N2)
	for c := 0; c < o.N2; c++ {
		w2[c] = invM22[c] * b2[c]
	}
	h.M12VecAdd(b1t, gamma, w2)

	slesPa := o.Pa.B11
	if ctx.DedicatedXtra && o.Pa.XtraSles != nil {
		slesPa = o.Pa.XtraSles
	}
	inner := &sles.Handle{Pa: slesPa}

	r1 := make([]float64, o.N1)
	res2 := make([]float64, o.N2)
	m21x1 := make([]float64, o.N2)
	dx1 := make([]float64, o.N1)

	// residual of the current iterate
	residual := func() float64 {
		A.MatVec(r1, x1)
		h.M12VecAdd(r1, 1, x2)
		for i := 0; i < o.N1; i++ {
			r1[i] = b1t[i] - r1[i]
		}
		h.M21Vec(m21x1, x1)
		for c := 0; c < o.N2; c++ {
			res2[c] = m21x1[c] - b2[c]
		}
		s := h.SquareNormB11(r1) + blas.AllReduceSum(blas.SquareNorm(res2))
		return math.Sqrt(s)
	}

	res0 := residual()
	o.Algo.SetNormalization(res0)
	if res0 <= o.Algo.Tol {
		o.Algo.CvgStatus = Converged
		return
	}

	for {
		// velocity update: solve the augmented system for the increment
		for i := range dx1 {
			dx1[i] = 0
		}
		nit, _, serr := inner.Solve(A, dx1, r1, res0)
		o.Algo.AddInner(nit)
		if serr != nil && blas.HasNaN(dx1) {
			o.Algo.CvgStatus = Diverged
			return serr
		}
		for i := 0; i < o.N1; i++ {
			x1[i] += dx1[i]
		}

		// pressure update from the divergence residual
		h.M21Vec(m21x1, x1)
		for c := 0; c < o.N2; c++ {
			x2[c] += gamma * invM22[c] * (m21x1[c] - b2[c])
		}

		if o.Algo.Update(residual()) != Ongoing {
			break
		}
	}
	return
}
