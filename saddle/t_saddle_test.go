// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saddle

import (
	"math"
	"testing"

	"github.com/cpmech/gofvm/blas"
	"github.com/cpmech/gofvm/dof"
	"github.com/cpmech/gofvm/sles"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// manufactured builds right-hand sides so that (x1ref, x2ref) solves the
// saddle system held by the helper
func manufactured(h *Helper) (x1ref, x2ref, b1, b2 []float64) {
	x1ref = make([]float64, h.N1)
	x2ref = make([]float64, h.N2)
	wave(x1ref, 0.2)
	wave(x2ref, 1.4)
	b1 = make([]float64, h.N1)
	b2 = make([]float64, h.N2)
	h.M11.MatVec(b1, x1ref)
	h.M12VecAdd(b1, 1, x2ref)
	h.M21Vec(b2, x1ref)
	return
}

// relResidual returns the residual of the saddle system relative to the
// right-hand side
func relResidual(h *Helper, x1, x2, b1, b2 []float64) float64 {
	r1 := make([]float64, h.N1)
	r2 := make([]float64, h.N2)
	h.M11.MatVec(r1, x1)
	h.M12VecAdd(r1, 1, x2)
	h.M21Vec(r2, x1)
	num, den := 0.0, 0.0
	for i := range r1 {
		d := b1[i] - r1[i]
		num += d * d
		den += b1[i] * b1[i]
	}
	for c := range r2 {
		d := b2[c] - r2[c]
		num += d * d
		den += b2[c] * b2[c]
	}
	return math.Sqrt(num / den)
}

// runSaddle builds the solver, runs it and checks the final residual
func runSaddle(tst *testing.T, label string, pa *Param, h *Helper, tol float64, wantStatus Status) {
	slv, err := NewSolver(pa, h)
	if err != nil {
		tst.Errorf("%s: setup failed: %v\n", label, err)
		return
	}
	_, _, b1, b2 := manufactured(h)
	x1 := make([]float64, h.N1)
	x2 := make([]float64, h.N2)
	nit, err := slv.Solve(x1, x2, b1, b2)
	if err != nil {
		tst.Errorf("%s: solve failed: %v\n", label, err)
		return
	}
	if slv.Algo.CvgStatus != wantStatus {
		tst.Errorf("%s: status %v, want %v (it=%d res=%g)\n", label, slv.Algo.CvgStatus, wantStatus, nit, slv.Algo.Res)
		return
	}
	res := relResidual(h, x1, x2, b1, b2)
	io.Pf("%s: it=%d inner=%d relres=%g\n", label, nit, slv.Algo.NInnerIter, res)
	if res > tol {
		tst.Errorf("%s: relative residual %g exceeds %g\n", label, res, tol)
	}
}

func Test_solver01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver01. augmented-Lagrangian Uzawa")

	pa := NewParam("alu", newB11())
	pa.SetSolver("alu")
	pa.Cvg.Rtol = 1e-8
	h := stokesHelper(3, 3, 3, pa, 1, 1)
	runSaddle(tst, "alu", pa, h, 1e-5, Converged)
}

func Test_solver02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver02. Golub-Kahan bidiagonalization")

	pa := NewParam("gkb", newB11())
	pa.SetSolver("gkb")
	pa.SetAugmentationCoef(10)
	pa.Cvg.Rtol = 1e-9
	pa.Cvg.NmaxIter = 300
	h := stokesHelper(3, 3, 3, pa, 1, 1)
	runSaddle(tst, "gkb", pa, h, 1e-3, Converged)
}

func Test_solver03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver03. Uzawa-CG with the scaled mass approximation")

	pa := NewParam("uzacg", newB11())
	pa.B11.Cvg.Rtol = 1e-10 // inner accuracy bounds the outer one
	pa.SetSolver("uzawa_cg")
	pa.SetSchurApprox("mass_scaled")
	pa.Cvg.Rtol = 1e-8
	pa.Cvg.NmaxIter = 200
	h := stokesHelper(3, 3, 3, pa, 1, 1)

	slv, err := NewSolver(pa, h)
	if err != nil {
		tst.Errorf("setup failed: %v\n", err)
		return
	}
	visc := make([]float64, h.N2)
	for c := range visc {
		visc[c] = 1
	}
	slv.MassDiag = GetM22ScaledDiagMassMatrix(h.M, visc)
	slv.SchurScale = SchurScaling(1, 1, 0, true)

	_, _, b1, b2 := manufactured(h)
	x1 := make([]float64, h.N1)
	x2 := make([]float64, h.N2)
	nit, err := slv.Solve(x1, x2, b1, b2)
	if err != nil {
		tst.Errorf("solve failed: %v\n", err)
		return
	}
	if slv.Algo.CvgStatus != Converged {
		tst.Errorf("status %v after %d its (res=%g)\n", slv.Algo.CvgStatus, nit, slv.Algo.Res)
		return
	}
	if res := relResidual(h, x1, x2, b1, b2); res > 1e-4 {
		tst.Errorf("relative residual %g too large\n", res)
		return
	}
	if slv.Algo.NInnerIter == 0 {
		tst.Errorf("inner iterations must be accumulated\n")
	}
}

func Test_solver04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver04. block-preconditioned GCR with the diagonal-inverse schur")

	pa := NewParam("gcr", newB11())
	pa.B11.Cvg.Rtol = 1e-10
	pa.SetSolver("gcr")
	pa.SetPrecond("lower")
	pa.SetSchurApprox("diag_inv")
	pa.Cvg.Rtol = 1e-8
	pa.Cvg.NmaxIter = 200
	h := stokesHelper(3, 3, 3, pa, 1, 1)
	runSaddle(tst, "gcr", pa, h, 1e-5, Converged)
}

func Test_solver05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver05. MINRES rejects one-sided preconditioners")

	pa := NewParam("minres", newB11())
	pa.SetSolver("minres")
	pa.SetPrecond("lower")
	h := stokesHelper(2, 2, 2, pa, 1, 1)
	if _, err := NewSolver(pa, h); err == nil {
		tst.Errorf("minres with a triangular preconditioner must be rejected\n")
		return
	}

	pa.SetPrecond("diag")
	pa.SetSchurApprox("mass_scaled")
	pa.Cvg.Rtol = 1e-8
	pa.Cvg.NmaxIter = 300
	slv, err := NewSolver(pa, h)
	if err != nil {
		tst.Errorf("setup failed: %v\n", err)
		return
	}
	visc := make([]float64, h.N2)
	for c := range visc {
		visc[c] = 1
	}
	slv.MassDiag = GetM22ScaledDiagMassMatrix(h.M, visc)
	_, _, b1, b2 := manufactured(h)
	x1 := make([]float64, h.N1)
	x2 := make([]float64, h.N2)
	if _, err = slv.Solve(x1, x2, b1, b2); err != nil {
		tst.Errorf("solve failed: %v\n", err)
		return
	}
	if slv.Algo.CvgStatus != Converged {
		tst.Errorf("status %v (res=%g)\n", slv.Algo.CvgStatus, slv.Algo.Res)
		return
	}
	if res := relResidual(h, x1, x2, b1, b2); res > 1e-4 {
		tst.Errorf("relative residual %g too large\n", res)
	}
}

func Test_solver06(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver06. direct full-system solve")

	pa := NewParam("direct", newB11())
	pa.SetSolver("mumps")
	h := stokesHelper(2, 2, 2, pa, 1, 1)
	runSaddle(tst, "mumps", pa, h, 1e-10, Converged)
}

func Test_solver07(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver07. Notay transformation; alpha=0 is the identity")

	pa := NewParam("notay", newB11())
	pa.SetSolver("notay")
	h := stokesHelper(2, 2, 2, pa, 1, 1)
	runSaddle(tst, "notay alpha=1", pa, h, 1e-10, Converged)

	pa.SetNotayScaling(0)
	runSaddle(tst, "notay alpha=0", pa, h, 1e-10, Converged)
}

func Test_solver08(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver08. iteration budget exhaustion is reported")

	pa := NewParam("tight", newB11())
	pa.SetSolver("gcr")
	pa.Cvg.Rtol = 1e-14
	pa.Cvg.NmaxIter = 2
	pa.Cvg.Dtol = 0 // keep the divergence check out of the way
	h := stokesHelper(3, 3, 3, pa, 1, 1)

	slv, err := NewSolver(pa, h)
	if err != nil {
		tst.Errorf("setup failed: %v\n", err)
		return
	}
	_, _, b1, b2 := manufactured(h)
	x1 := make([]float64, h.N1)
	x2 := make([]float64, h.N2)
	nit, _ := slv.Solve(x1, x2, b1, b2)
	chk.IntAssert(nit, 2)
	if slv.Algo.CvgStatus != MaxIter {
		tst.Errorf("status %v, want max_iter\n", slv.Algo.CvgStatus)
	}
}

func Test_solver09(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver09. combined reductions count shared faces once")

	pa := NewParam("gcr", newB11())
	pa.SetSolver("gcr")
	h := stokesHelper(2, 2, 2, pa, 1, 1)
	slv, err := NewSolver(pa, h)
	if err != nil {
		tst.Errorf("setup failed: %v\n", err)
		return
	}

	n := h.N1 + h.N2
	u := make([]float64, n)
	v := make([]float64, n)
	wave(u, 0.3)
	wave(v, 2.1)

	// without a distributed range set the plain inner product applies
	chk.Scalar(tst, "serial dot", 1e-15, slv.dotCombined(u, v), blas.Dot(u, v))

	// mark every third face entry as a ghost of another processor: those
	// must drop out of the reduction while the pressure tail stays whole
	rs := &dof.RangeSet{N: h.N1, Distr: true, Owned: make([]bool, h.N1)}
	for i := range rs.Owned {
		rs.Owned[i] = i%3 != 0
	}
	h.Rset1 = rs

	want := 0.0
	for i := 0; i < h.N1; i++ {
		if rs.Owned[i] {
			want += u[i] * v[i]
		}
	}
	for i := h.N1; i < n; i++ {
		want += u[i] * v[i]
	}
	chk.Scalar(tst, "owned dot", 1e-15, slv.dotCombined(u, v), want)
	chk.Scalar(tst, "owned norm", 1e-15, slv.normCombined(u), math.Sqrt(slv.dotCombined(u, u)))
}

func Test_solver10(tst *testing.T) {

	//verbose()
	chk.PrintTitle("solver10. the velocity handle goes through the registry")

	sles.RemoveAll()
	defer sles.RemoveAll()

	pa := NewParam("ns", newB11())
	pa.SetSolver("uzawa_cg")
	h := stokesHelper(2, 2, 2, pa, 1, 1)
	slv, err := NewSolver(pa, h)
	if err != nil {
		tst.Errorf("setup failed: %v\n", err)
		return
	}
	if sles.Find(pa.B11.FieldID) != slv.B11 {
		tst.Errorf("the handle must be registered under its field id\n")
		return
	}
	if slv.B11.Pa != pa.B11 {
		tst.Errorf("the handle must carry the velocity-block settings\n")
		return
	}

	// a second solver on the same field shares the handle and its counters
	slv2, err := NewSolver(pa, h)
	if err != nil {
		tst.Errorf("setup failed: %v\n", err)
		return
	}
	if slv2.B11 != slv.B11 {
		tst.Errorf("solvers on the same field must share the handle\n")
	}
}
