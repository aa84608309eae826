// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sles

import (
	"testing"

	"github.com/cpmech/gofvm/mtx"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func init() {
	io.Verbose = false
}

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

// laplace1d assembles the n-point 1D Laplacian in MSR form
func laplace1d(n int) *mtx.MSR {
	asm := mtx.NewAssembler(0, int64(n), true)
	for i := int64(0); i < int64(n)-1; i++ {
		asm.AddGIDs([]int64{i, i + 1}, []int64{i + 1, i})
	}
	A := mtx.NewMSR(asm.Compute(), false, 1, 1)
	for i := int64(0); i < int64(n); i++ {
		A.AddValue(i, i, 2)
	}
	for i := int64(0); i < int64(n)-1; i++ {
		A.AddValue(i, i+1, -1)
		A.AddValue(i+1, i, -1)
	}
	return A
}

// residual returns ||b - A*x||
func residual(A mtx.Matrix, x, b []float64) float64 {
	n := A.Nrows()
	r := make([]float64, n)
	A.MatVec(r, x)
	s := 0.0
	for i := 0; i < n; i++ {
		d := b[i] - r[i]
		s += d * d
	}
	return s
}

func Test_sles01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sles01. cg and fcg on the 1D Laplacian")

	n := 50
	A := laplace1d(n)
	b := make([]float64, n)
	for i := range b {
		b[i] = 1
	}

	for _, solver := range []string{"cg", "fcg"} {
		pa := NewParam(-1, "laplace")
		pa.Solver = solver
		pa.Precond = "jacobi"
		pa.Cvg.Rtol = 1e-10
		x := make([]float64, n)
		nit, _, err := SolveScalarSystem(pa, A, x, b, 0)
		if err != nil {
			tst.Errorf("%s failed: %v\n", solver, err)
			return
		}
		if nit < 1 || nit > n {
			tst.Errorf("%s: unexpected iteration count %d\n", solver, nit)
			return
		}
		chk.Scalar(tst, io.Sf("%s residual", solver), 1e-14, residual(A, x, b), 0)
	}
}

func Test_sles02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sles02. gcr on a nonsymmetric system")

	n := 40
	A := laplace1d(n)
	// break the symmetry
	for i := int64(0); i < int64(n)-1; i++ {
		A.AddValue(i, i+1, -0.3)
	}
	b := make([]float64, n)
	for i := range b {
		b[i] = float64(i%3) + 1
	}

	pa := NewParam(-1, "advdiff")
	pa.Solver = "gcr"
	pa.Precond = "jacobi"
	pa.Cvg.Rtol = 1e-11
	pa.Cvg.NmaxIter = 500
	x := make([]float64, n)
	_, _, err := SolveScalarSystem(pa, A, x, b, 0)
	if err != nil {
		tst.Errorf("gcr failed: %v\n", err)
		return
	}
	chk.Scalar(tst, "gcr residual", 1e-14, residual(A, x, b), 0)
}

func Test_sles03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sles03. amg-preconditioned fcg beats plain jacobi")

	n := 600
	A := laplace1d(n)
	b := make([]float64, n)
	for i := range b {
		b[i] = 1
	}

	paJ := NewParam(-1, "laplace-jacobi")
	paJ.Cvg.Rtol = 1e-8
	xJ := make([]float64, n)
	nitJ, _, err := SolveScalarSystem(paJ, A, xJ, b, 0)
	if err != nil {
		tst.Errorf("jacobi run failed: %v\n", err)
		return
	}

	paA := NewParam(-1, "laplace-amg")
	paA.Precond = "amg"
	paA.Cvg.Rtol = 1e-8
	xA := make([]float64, n)
	nitA, _, err := SolveScalarSystem(paA, A, xA, b, 0)
	if err != nil {
		tst.Errorf("amg run failed: %v\n", err)
		return
	}

	io.Pf("jacobi: %d its   amg: %d its\n", nitJ, nitA)
	if nitA >= nitJ {
		tst.Errorf("amg (%d its) should converge faster than jacobi (%d its)\n", nitA, nitJ)
		return
	}
	chk.Scalar(tst, "amg residual", 1e-12, residual(A, xA, b), 0)
}

func Test_sles04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sles04. handle registry and parameter checks")

	RemoveAll()
	h1 := FindOrAdd(7, "velocity")
	h2 := FindOrAdd(7, "velocity")
	if h1 != h2 {
		tst.Errorf("FindOrAdd must return the same handle for the same field\n")
		return
	}
	ha := FindOrAdd(-1, "aux")
	hb := FindOrAdd(-1, "aux")
	if ha == hb {
		tst.Errorf("detached handles must be distinct\n")
		return
	}
	if Find(99) != nil {
		tst.Errorf("Find must return nil for unknown fields\n")
		return
	}

	pa := NewParam(-1, "bad")
	pa.Class = mtx.Petsc
	if pa.Check() == nil {
		tst.Errorf("unavailable backend must be rejected\n")
		return
	}
	pa.SetDefault()
	pa.Precond = "ilu"
	if pa.Check() == nil {
		tst.Errorf("unknown preconditioner must be rejected\n")
		return
	}
	pa.SetDefault()
	pa.Solver = "mumps"
	pa.Class = mtx.Inhouse
	if pa.Check() == nil {
		tst.Errorf("in-house backend must reject the direct solver\n")
	}
	RemoveAll()
}

func Test_sles05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sles05. copy keeps field id, divergence check trips")

	src := NewParam(3, "src")
	src.Solver = "gcr"
	src.Cvg.Rtol = 1e-3
	dst := NewParam(8, "dst")
	dst.CopyFrom(src)
	chk.IntAssert(dst.FieldID, 8)
	if dst.Solver != "gcr" || dst.Cvg.Rtol != 1e-3 {
		tst.Errorf("CopyFrom must copy solver settings\n")
		return
	}

	// singular Neumann operator with an inconsistent rhs stalls cg
	n := 20
	A := laplace1d(n)
	A.AddValue(0, 0, -1)
	A.AddValue(int64(n)-1, int64(n)-1, -1)
	b := make([]float64, n)
	for i := range b {
		b[i] = 1
	}
	pa := NewParam(-1, "singular")
	pa.Solver = "cg"
	pa.Precond = "none"
	pa.Cvg.NmaxIter = 50
	x := make([]float64, n)
	if _, _, err := SolveScalarSystem(pa, A, x, b, 0); err == nil {
		tst.Errorf("cg on an inconsistent singular system must report failure\n")
	}
}
