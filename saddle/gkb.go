// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saddle

import (
	"math"

	"github.com/cpmech/gofvm/blas"
	"github.com/cpmech/gofvm/sles"
)

// gkbZetaSize returns the length of the energy-norm stopping window as a
// function of the augmentation scaling: stronger augmentation shortens the
// window
func gkbZetaSize(gamma float64, tt int) int {
	max1 := func(n int) int {
		if n < 1 {
			return 1
		}
		return n
	}
	switch {
	case gamma < 1:
		return tt + 1
	case gamma < 10:
		return tt
	case gamma < 100:
		return max1(tt - 1)
	case gamma < 1000:
		return max1(tt - 2)
	case gamma < 10000:
		return max1(tt - 3)
	}
	return max1(tt - 4)
}

// solveGkb runs the Golub-Kahan bidiagonalization on the (optionally
// augmented) saddle system. The velocity block defines the inner product on
// the velocity space and the pressure mass diagonal the one on the
// pressure space; each iteration costs one inner solve with the velocity
// operator
func (o *Solver) solveGkb(x1, x2, b1, b2 []float64) (err error) {
	ctx := o.Pa.Ctx.(*GkbCtx)
	gamma := ctx.Gamma
	h := o.Sh
	m := h.M

	invM22 := make([]float64, o.N2)
	for c := 0; c < o.N2; c++ {
		invM22[c] = 1.0 / m.CellVol[c]
	}
	A := newAugOp(h, gamma, invM22)

	slesPa := o.Pa.B11
	if ctx.DedicatedXtra && o.Pa.XtraSles != nil {
		slesPa = o.Pa.XtraSles
	}
	inner := &sles.Handle{Pa: slesPa}

	// augmented system right-hand side
	b1t := make([]float64, o.N1)
	copy(b1t, b1)
	w2 := make([]float64, o.N2)
	for c := 0; c < o.N2; c++ {
		w2[c] = invM22[c] * b2[c]
	}
	h.M12VecAdd(b1t, gamma, w2)

	// initial velocity: solve A x1 = b1t - M12 x2 for the incoming pressure
	rhs := make([]float64, o.N1)
	copy(rhs, b1t)
	h.M12VecAdd(rhs, -1, x2)
	for i := range x1 {
		x1[i] = 0
	}
	nit, _, serr := inner.Solve(A, x1, rhs, 0)
	o.Algo.AddInner(nit)
	if serr != nil {
		o.Algo.CvgStatus = Diverged
		return serr
	}

	// first pressure-space direction from the divergence residual
	r2 := make([]float64, o.N2)
	h.M21Vec(r2, x1)
	for c := 0; c < o.N2; c++ {
		r2[c] = b2[c] - r2[c]
	}
	q := make([]float64, o.N2)  // N-orthonormal direction
	nq := make([]float64, o.N2) // N * q
	beta2 := 0.0
	for c := 0; c < o.N2; c++ {
		beta2 += r2[c] * invM22[c] * r2[c]
	}
	beta := math.Sqrt(blas.AllReduceSum(beta2))
	o.Algo.SetNormalization(beta)
	if beta <= o.Algo.Tol {
		o.Algo.CvgStatus = Converged
		return
	}
	for c := 0; c < o.N2; c++ {
		q[c] = invM22[c] * r2[c] / beta
		nq[c] = r2[c] / beta
	}

	// bidiagonalization state
	v := make([]float64, o.N1)   // A-orthonormal direction
	mv := make([]float64, o.N1)  // A * v
	mw := make([]float64, o.N1)  // rhs of the inner solve
	w := make([]float64, o.N1)   // inner solution
	d := make([]float64, o.N2)   // pressure update direction
	m21v := make([]float64, o.N2)
	ns := make([]float64, o.N2)

	zeta := 0.0
	zsize := gkbZetaSize(gamma, ctx.TruncThreshold)
	zwin := make([]float64, zsize) // circular window of zeta^2
	ztot := 0.0

	for it := 0; ; it++ {
		// velocity direction: A v = M12 q - beta * A v_prev
		h.M12Vec(mw, q)
		for i := 0; i < o.N1; i++ {
			mw[i] -= beta * mv[i]
		}
		for i := range w {
			w[i] = 0
		}
		nit, _, serr = inner.Solve(A, w, mw, 0)
		o.Algo.AddInner(nit)
		if serr != nil {
			o.Algo.CvgStatus = Diverged
			return serr
		}
		alpha := math.Sqrt(blas.DotRset(w, mw, h.Rset1, 1))
		if alpha == 0 {
			o.Algo.CvgStatus = Diverged
			return
		}
		for i := 0; i < o.N1; i++ {
			v[i] = w[i] / alpha
			mv[i] = mw[i] / alpha
		}

		// solution updates
		if it == 0 {
			zeta = beta / alpha
		} else {
			zeta = -beta / alpha * zeta
		}
		for c := 0; c < o.N2; c++ {
			d[c] = (q[c] - beta*d[c]) / alpha
		}
		for i := 0; i < o.N1; i++ {
			x1[i] += zeta * v[i]
		}
		for c := 0; c < o.N2; c++ {
			x2[c] -= zeta * d[c]
		}

		// next pressure direction
		h.M21Vec(m21v, v)
		for c := 0; c < o.N2; c++ {
			ns[c] = m21v[c] - alpha*nq[c]
		}
		beta2 = 0
		for c := 0; c < o.N2; c++ {
			beta2 += ns[c] * invM22[c] * ns[c]
		}
		beta = math.Sqrt(blas.AllReduceSum(beta2))

		// energy-norm estimate over the trailing window
		z2 := zeta * zeta
		ztot += z2
		zwin[it%zsize] = z2
		wsum := 0.0
		for _, z := range zwin {
			wsum += z
		}
		res := math.Sqrt(wsum)
		if o.Algo.Update(res) != Ongoing {
			return
		}
		if beta == 0 { // exact termination of the bidiagonalization
			o.Algo.CvgStatus = Converged
			return
		}
		for c := 0; c < o.N2; c++ {
			q[c] = invM22[c] * ns[c] / beta
			nq[c] = ns[c] / beta
		}
	}
}
