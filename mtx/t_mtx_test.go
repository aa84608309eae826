// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mtx

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
)

func init() {
	io.Verbose = false
}

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

func Test_assem01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("assem01. assembler with duplicates and separate diagonal")

	asm := NewAssembler(0, 4, true)
	asm.AddGIDs([]int64{0, 0, 1, 2, 3}, []int64{1, 1, 0, 3, 2}) // (0,1) pushed twice
	asm.AddGIDs([]int64{0, 2, 5}, []int64{0, 1, 1})             // diag and foreign row skipped
	asm.AddBlockGIDs([]int64{1, 3}, []int64{1, 3})

	s := asm.Compute()
	chk.IntAssert(s.Nrows, 4)
	chk.IntAssert(s.Nnz(), 6)
	chk.Ints(tst, "ptr", s.Ptr, []int{0, 1, 3, 5, 6})
	chk.IntAssert(int(s.Cols[0]), 1) // row 0: {1}
	chk.IntAssert(int(s.Cols[1]), 0) // row 1: {0, 3}
	chk.IntAssert(int(s.Cols[2]), 3)
	chk.IntAssert(int(s.Cols[3]), 1) // row 2: {1, 3}
	chk.IntAssert(int(s.Cols[4]), 3)
	chk.IntAssert(int(s.Cols[5]), 2) // row 3: {2}

	if s.FindCol(1, 3) < 0 {
		tst.Errorf("entry (1,3) must be part of the structure\n")
		return
	}
	if s.FindCol(0, 2) >= 0 {
		tst.Errorf("entry (0,2) must not be part of the structure\n")
	}
}

func Test_msr01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("msr01. MSR assembly, product and triplet conversion")

	// A = [2 -1  0  0]
	//     [-1 2 -1  0]
	//     [0 -1  2 -1]
	//     [0  0 -1  2]
	asm := NewAssembler(0, 4, true)
	for i := int64(0); i < 3; i++ {
		asm.AddGIDs([]int64{i, i + 1}, []int64{i + 1, i})
	}
	str := asm.Compute()

	A := NewMSR(str, false, 1, 1)
	for i := int64(0); i < 4; i++ {
		A.AddValue(i, i, 2)
	}
	for i := int64(0); i < 3; i++ {
		A.AddValue(i, i+1, -1)
		A.AddValue(i+1, i, -1)
	}

	x := []float64{1, 2, 3, 4}
	y := make([]float64, 4)
	A.MatVec(y, x)
	chk.Vector(tst, "A*x", 1e-15, y, []float64{0, 0, 0, 5})

	// symmetric storage: push the upper triangle only
	B := NewMSR(str, true, 1, 1)
	for i := int64(0); i < 4; i++ {
		B.AddValue(i, i, 2)
	}
	for i := int64(0); i < 3; i++ {
		B.AddValue(i, i+1, -1)
	}
	B.MatVec(y, x) // lower entries of the shared structure stay zero
	chk.Vector(tst, "B*x (sym)", 1e-15, y, []float64{0, 0, 0, 5})

	// triplet conversion must reproduce the product
	t := A.ToTriplet()
	M := t.ToMatrix(nil).ToDense()
	for i := 0; i < 4; i++ {
		z := 0.0
		for j := 0; j < 4; j++ {
			z += M[i][j] * x[j]
		}
		chk.Scalar(tst, io.Sf("triplet row %d", i), 1e-15, z, y[i])
	}
}

func Test_msr02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("msr02. Start re-zeroes coefficients over the same structure")

	asm := NewAssembler(0, 2, true)
	asm.AddGIDs([]int64{0, 1}, []int64{1, 0})
	A := NewMSR(asm.Compute(), false, 1, 1)
	A.AddValue(0, 0, 3)
	A.AddValue(0, 1, -1)
	A.Start()
	chk.Scalar(tst, "D[0] after Start", 1e-17, A.D[0], 0)
	chk.Scalar(tst, "V[0] after Start", 1e-17, A.V[0], 0)
}

func Test_native01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("native01. face-based product on a 3-cell chain")

	// cells 0-1-2 joined by faces 0:(0,1) and 1:(1,2)
	o := NewNative(false)
	o.SetMeshAssociation(3, 3, 2, [][2]int{{0, 1}, {1, 2}})
	o.SetCoefficients([]float64{2, 2, 2}, []float64{-1, -1, -1, -1})

	x := []float64{1, 2, 3}
	y := make([]float64, 3)
	o.MatVec(y, x)
	chk.Vector(tst, "A*x", 1e-15, y, []float64{0, 0, 4})

	// symmetric variant: one coefficient per face
	s := NewNative(true)
	s.SetMeshAssociation(3, 3, 2, [][2]int{{0, 1}, {1, 2}})
	s.SetCoefficients([]float64{2, 2, 2}, []float64{-1, -1})
	s.MatVec(y, x)
	chk.Vector(tst, "S*x", 1e-15, y, []float64{0, 0, 4})

	// triplet round trip
	t := o.ToTriplet()
	M := t.ToMatrix(nil).ToDense()
	chk.Scalar(tst, "M[0][1]", 1e-17, M[0][1], -1)
	chk.Scalar(tst, "M[2][2]", 1e-17, M[2][2], 2)
}

func Test_backend01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("backend01. backend availability and capabilities")

	chk.IntAssert(b2i(Inhouse.Available()), 1)
	chk.IntAssert(b2i(Mumps.Available()), 1)
	chk.IntAssert(b2i(Petsc.Available()), 0)
	chk.IntAssert(b2i(Hypre.Available()), 0)

	chk.IntAssert(b2i(Inhouse.Supports(CapIterative)), 1)
	chk.IntAssert(b2i(Inhouse.Supports(CapDirect)), 0)
	chk.IntAssert(b2i(Mumps.Supports(CapDirect)), 1)
	chk.IntAssert(b2i(Petsc.Supports(CapGMRES)), 0)

	if _, err := External("hypre_parcsr", false, 1, 1); err == nil {
		tst.Errorf("external matrix kinds must be unavailable in this build\n")
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func Test_backend02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("backend02. direct solver selection")

	// the name from the input file decides in the serial in-house case
	if _, ok := GetLinSol(Inhouse, false, DirectData{Name: "umfpack"}).(*la.LinSolUmfpack); !ok {
		tst.Errorf("umfpack must be selected by name\n")
		return
	}
	if _, ok := GetLinSol(Inhouse, false, DirectData{Name: "mumps"}).(*la.LinSolMumps); !ok {
		tst.Errorf("mumps must be selected by name\n")
		return
	}

	// an empty name falls back to umfpack
	if _, ok := GetLinSol(Inhouse, false, DirectData{}).(*la.LinSolUmfpack); !ok {
		tst.Errorf("the empty name must fall back to umfpack\n")
		return
	}

	// the backend class and the distributed case override the name
	if _, ok := GetLinSol(Mumps, false, DirectData{Name: "umfpack"}).(*la.LinSolMumps); !ok {
		tst.Errorf("the mumps class must override the name\n")
		return
	}
	if _, ok := GetLinSol(Inhouse, true, DirectData{Name: "umfpack"}).(*la.LinSolMumps); !ok {
		tst.Errorf("distributed runs must force mumps\n")
	}
}
