// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saddle

import (
	"math"

	"github.com/cpmech/gofvm/blas"
	"github.com/cpmech/gosl/chk"
)

// saddleOp applies the full saddle operator to a combined vector laid out
// as velocities first, pressures after
type saddleOp struct {
	h    *Helper
	diag []float64
}

func newSaddleOp(h *Helper) (o *saddleOp) {
	o = new(saddleOp)
	o.h = h
	o.diag = make([]float64, h.N1+h.N2)
	copy(o.diag, h.M11.Diag()) // pressure part stays zero
	return
}

func (o *saddleOp) Nrows() int      { return o.h.N1 + o.h.N2 }
func (o *saddleOp) Ncols() int      { return o.h.N1 + o.h.N2 }
func (o *saddleOp) IsSym() bool     { return o.h.M11.IsSym() }
func (o *saddleOp) Diag() []float64 { return o.diag }

func (o *saddleOp) MatVec(y, x []float64) {
	n1 := o.h.N1
	o.h.M11.MatVec(y[:n1], x[:n1])
	o.h.M12VecAdd(y[:n1], 1, x[n1:])
	o.h.M21Vec(y[n1:], x[:n1])
}

// blockPrecond applies a block preconditioner built from an approximate
// velocity-block inverse and the configured Schur approximation
type blockPrecond struct {
	slv  *Solver
	kind PrecondT
	sa   *schurApply

	// velocity-block application: inner solve or inverse-diagonal scaling
	useInner   bool
	m11InvDiag []float64

	// work
	t1 []float64
	t2 []float64
}

// newBlockPrecond prepares a preconditioner; useInner selects an inner
// solve with the (1,1)-block settings for the velocity part, otherwise the
// fixed inverse-diagonal scaling is used (required by MINRES, which needs
// a constant symmetric preconditioner)
func newBlockPrecond(slv *Solver, useInner bool) (o *blockPrecond, err error) {
	o = new(blockPrecond)
	o.slv = slv
	o.kind = slv.Pa.Precond
	o.useInner = useInner
	if o.kind == NoPrecond {
		return
	}
	if o.sa, err = slv.buildSchurApply(); err != nil {
		return
	}
	if !useInner {
		o.m11InvDiag = GetM11InvDiag(slv.Sh.M11, slv.Sh.Rset1)
	}
	o.t1 = make([]float64, slv.N1)
	o.t2 = make([]float64, slv.N2)
	return
}

// applyV computes z1 := M11approxinv * r1
func (o *blockPrecond) applyV(z1, r1 []float64) (err error) {
	if !o.useInner {
		for i := range z1 {
			z1[i] = o.m11InvDiag[i] * r1[i]
		}
		return
	}
	for i := range z1 {
		z1[i] = 0
	}
	nit, _, err := o.slv.B11.Solve(o.slv.Sh.M11, z1, r1, 0)
	o.slv.Algo.AddInner(nit)
	return
}

// applyS computes z2 := Schurapproxinv * r2
func (o *blockPrecond) applyS(z2, r2 []float64) (err error) {
	nit, err := o.sa.apply(z2, r2)
	o.slv.Algo.AddInner(nit)
	return
}

// apply computes z := P^{-1} r on the combined layout
func (o *blockPrecond) apply(z, r []float64) (err error) {
	if o.kind == NoPrecond {
		copy(z, r)
		return
	}
	h := o.slv.Sh
	n1 := o.slv.N1
	z1, z2 := z[:n1], z[n1:]
	r1, r2 := r[:n1], r[n1:]

	switch o.kind {
	case PcDiag:
		if err = o.applyV(z1, r1); err != nil {
			return
		}
		err = o.applyS(z2, r2)

	case PcLower, PcUzawa:
		if err = o.applyV(z1, r1); err != nil {
			return
		}
		h.M21Vec(o.t2, z1)
		for c := range o.t2 {
			o.t2[c] = r2[c] - o.t2[c]
		}
		if err = o.applyS(z2, o.t2); err != nil {
			return
		}
		if o.kind == PcUzawa {
			// velocity correction with the fixed diagonal scaling
			h.M12Vec(o.t1, z2)
			inv := o.m11InvDiag
			if inv == nil {
				inv = GetM11InvDiag(h.M11, h.Rset1)
				o.m11InvDiag = inv
			}
			for i := range z1 {
				z1[i] -= inv[i] * o.t1[i]
			}
		}

	case PcUpper:
		if err = o.applyS(z2, r2); err != nil {
			return
		}
		h.M12Vec(o.t1, z2)
		for i := range o.t1 {
			o.t1[i] = r1[i] - o.t1[i]
		}
		err = o.applyV(z1, o.t1)

	case PcSgs:
		// forward sweep
		if err = o.applyV(z1, r1); err != nil {
			return
		}
		h.M21Vec(o.t2, z1)
		for c := range o.t2 {
			o.t2[c] = r2[c] - o.t2[c]
		}
		if err = o.applyS(z2, o.t2); err != nil {
			return
		}
		// backward sweep on the velocity
		h.M12Vec(o.t1, z2)
		if err = o.applyV(o.t1, o.t1); err != nil {
			return
		}
		for i := range z1 {
			z1[i] -= o.t1[i]
		}

	default:
		err = chk.Err("saddle %q: preconditioner %s is not applicable", o.slv.Pa.Name, PrecondName(o.kind))
	}
	return
}

// dotCombined returns the inner product of two combined-layout arrays,
// counting shared velocity DoFs once across all processors; the pressure
// entries are owned everywhere
func (o *Solver) dotCombined(u, v []float64) float64 {
	rs := o.Sh.Rset1
	if rs == nil || !rs.Distr {
		return blas.Dot(u, v)
	}
	sum := 0.0
	for i := 0; i < o.N1; i++ {
		if rs.Owned[i] {
			sum += u[i] * v[i]
		}
	}
	sum += blas.Dot(u[o.N1:], v[o.N1:])
	return blas.AllReduceSum(sum)
}

// normCombined returns the Euclidean norm of a combined-layout array with
// the same weighting as dotCombined
func (o *Solver) normCombined(v []float64) float64 {
	return math.Sqrt(o.dotCombined(v, v))
}

// solveBlockKrylov runs GCR or MINRES on the full saddle operator with the
// configured block preconditioner
func (o *Solver) solveBlockKrylov(x1, x2, b1, b2 []float64, minres bool) (err error) {
	op := newSaddleOp(o.Sh)
	pc, err := newBlockPrecond(o, !minres)
	if err != nil {
		return
	}

	n := o.N1 + o.N2
	x := make([]float64, n)
	b := make([]float64, n)
	copy(x[:o.N1], x1)
	copy(x[o.N1:], x2)
	copy(b[:o.N1], b1)
	copy(b[o.N1:], b2)

	if minres {
		err = o.runMinres(op, pc, x, b)
	} else {
		nStored := 30
		if c, ok := o.Pa.Ctx.(*KrylovCtx); ok {
			nStored = c.NStoredDirections
		}
		err = o.runGcr(op, pc, x, b, nStored)
	}

	copy(x1, x[:o.N1])
	copy(x2, x[o.N1:])
	return
}

// runGcr is the preconditioned generalized conjugate residual iteration
// with a truncated direction window
func (o *Solver) runGcr(op *saddleOp, pc *blockPrecond, x, b []float64, nStored int) (err error) {
	n := op.Nrows()
	if nStored < 1 {
		nStored = 30
	}
	r := make([]float64, n)
	z := make([]float64, n)
	P := make([][]float64, nStored)
	Q := make([][]float64, nStored)
	for k := range P {
		P[k] = make([]float64, n)
		Q[k] = make([]float64, n)
	}

	op.MatVec(r, x)
	for i := 0; i < n; i++ {
		r[i] = b[i] - r[i]
	}
	res := o.normCombined(r)
	o.Algo.SetNormalization(res)
	if res <= o.Algo.Tol {
		o.Algo.CvgStatus = Converged
		return
	}

	for {
		for k := 0; k < nStored; k++ {
			if err = pc.apply(z, r); err != nil {
				return
			}
			copy(P[k], z)
			op.MatVec(Q[k], P[k])
			for j := 0; j < k; j++ {
				beta := o.dotCombined(Q[k], Q[j])
				for i := 0; i < n; i++ {
					P[k][i] -= beta * P[j][i]
					Q[k][i] -= beta * Q[j][i]
				}
			}
			qq := o.dotCombined(Q[k], Q[k])
			if qq == 0 {
				o.Algo.CvgStatus = Diverged
				return chk.Err("saddle %q: gcr breakdown", o.Pa.Name)
			}
			s := 1.0 / math.Sqrt(qq)
			for i := 0; i < n; i++ {
				P[k][i] *= s
				Q[k][i] *= s
			}
			alpha := o.dotCombined(Q[k], r)
			for i := 0; i < n; i++ {
				x[i] += alpha * P[k][i]
				r[i] -= alpha * Q[k][i]
			}
			res = o.normCombined(r)
			if o.Algo.Update(res) != Ongoing {
				return
			}
		}
	}
}

// runMinres is the preconditioned minimal residual iteration; the
// preconditioner must stay fixed and symmetric positive definite
func (o *Solver) runMinres(op *saddleOp, pc *blockPrecond, x, b []float64) (err error) {
	n := op.Nrows()
	v := make([]float64, n)    // current Lanczos residual
	vOld := make([]float64, n) // previous Lanczos residual
	vNew := make([]float64, n)
	z := make([]float64, n) // preconditioned residual
	zNew := make([]float64, n)
	wOld := make([]float64, n)
	wOld2 := make([]float64, n)
	az := make([]float64, n)

	op.MatVec(v, x)
	for i := 0; i < n; i++ {
		v[i] = b[i] - v[i]
	}
	if err = pc.apply(z, v); err != nil {
		return
	}
	g2 := o.dotCombined(z, v)
	if g2 < 0 {
		o.Algo.CvgStatus = Diverged
		return chk.Err("saddle %q: preconditioner is not positive definite", o.Pa.Name)
	}
	gamma := math.Sqrt(g2)
	o.Algo.SetNormalization(gamma)
	if gamma <= o.Algo.Tol {
		o.Algo.CvgStatus = Converged
		return
	}

	gammaOld := 1.0
	eta := gamma
	s, sOld := 0.0, 0.0
	c, cOld := 1.0, 1.0

	for {
		for i := 0; i < n; i++ {
			z[i] /= gamma
		}
		op.MatVec(az, z)
		delta := o.dotCombined(az, z)
		for i := 0; i < n; i++ {
			vNew[i] = az[i] - (delta/gamma)*v[i] - (gamma/gammaOld)*vOld[i]
		}
		if err = pc.apply(zNew, vNew); err != nil {
			return
		}
		g2 = o.dotCombined(zNew, vNew)
		if g2 < 0 {
			o.Algo.CvgStatus = Diverged
			return chk.Err("saddle %q: lost positive definiteness in minres", o.Pa.Name)
		}
		gammaNew := math.Sqrt(g2)

		a0 := c*delta - cOld*s*gamma
		a1 := math.Sqrt(a0*a0 + gammaNew*gammaNew)
		a2 := s*delta + cOld*c*gamma
		a3 := sOld * gamma
		if a1 == 0 {
			o.Algo.CvgStatus = Diverged
			return chk.Err("saddle %q: minres breakdown", o.Pa.Name)
		}
		cNew := a0 / a1
		sNew := gammaNew / a1

		for i := 0; i < n; i++ {
			wNew := (z[i] - a3*wOld2[i] - a2*wOld[i]) / a1
			wOld2[i] = wOld[i]
			wOld[i] = wNew
			x[i] += cNew * eta * wNew
		}

		eta = -sNew * eta
		res := math.Abs(eta)

		copy(vOld, v)
		copy(v, vNew)
		copy(z, zNew)
		gammaOld = gamma
		gamma = gammaNew
		cOld, c = c, cNew
		sOld, s = s, sNew

		if o.Algo.Update(res) != Ongoing {
			return
		}
		if gamma == 0 {
			o.Algo.CvgStatus = Converged
			return
		}
	}
}
