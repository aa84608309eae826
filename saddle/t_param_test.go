// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saddle

import (
	"testing"

	"github.com/cpmech/gofvm/sles"
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

func newB11() *sles.Param {
	return sles.NewParam(0, "velocity")
}

func Test_param01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("param01. solver keys and context variants")

	p := NewParam("ns", newB11())
	chk.IntAssert(p.SetSolver("gcr"), SetOK)
	if _, ok := p.Ctx.(*KrylovCtx); !ok {
		tst.Errorf("gcr must carry a Krylov context\n")
		return
	}
	chk.IntAssert(p.SetSolver("notay"), SetOK)
	c, ok := p.Ctx.(*NotayCtx)
	if !ok {
		tst.Errorf("notay must replace the context variant\n")
		return
	}
	chk.Scalar(tst, "default alpha", 1e-17, c.ScalingCoef, 1.0)

	chk.IntAssert(p.SetSolver("bogus"), ErrBadKey)
	chk.IntAssert(p.SetSolver("fgmres"), ErrNoPetsc)
	chk.IntAssert(p.SetSolverClass("petsc"), ErrNoPetsc)
	chk.IntAssert(p.SetSolverClass("saturne"), SetOK)
	chk.IntAssert(p.SetPrecond("bogus"), ErrBadKey)
	chk.IntAssert(p.SetSchurApprox("bogus"), ErrBadKey)

	// context-bound setters demand the right variant
	chk.IntAssert(p.SetRestartRange(10), ErrNoContext)
	chk.IntAssert(p.SetNotayScaling(0.5), SetOK)
	p.SetSolver("gcr")
	chk.IntAssert(p.SetRestartRange(10), SetOK)
	chk.IntAssert(p.Ctx.(*KrylovCtx).NStoredDirections, 10)
}

func Test_param02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("param02. alu and gkb force their companions")

	for _, key := range []string{"alu", "gkb"} {
		p := NewParam("ns", newB11())
		p.SetPrecond("diag")
		p.SetSchurApprox("identity")
		chk.IntAssert(p.SetSolver(key), SetOK)
		if p.Precond != NoPrecond || p.Schur != NoSchur {
			tst.Errorf("%s must clear preconditioner and schur approximation\n", key)
			return
		}
		if p.XtraSles == nil {
			tst.Errorf("%s must prepare the extra solver settings\n", key)
			return
		}
		// tightened tolerance: min(0.1*b11.rtol, 0.1*rtol, 10*atol), floored
		chk.Scalar(tst, key+" xtra rtol", 1e-22, p.XtraSles.Cvg.Rtol, 10*p.Cvg.Atol)
	}

	p := NewParam("ns", newB11())
	p.SetSolver("alu")
	chk.Scalar(tst, "alu default gamma", 1e-17, p.GetAugmentationCoef(), 100)
	p.SetSolver("gkb")
	chk.Scalar(tst, "gkb default gamma", 1e-17, p.GetAugmentationCoef(), 0)
	chk.IntAssert(p.Ctx.(*GkbCtx).TruncThreshold, 5)
	chk.IntAssert(p.SetAugmentationCoef(50), SetOK)
	chk.Scalar(tst, "gamma set", 1e-17, p.GetAugmentationCoef(), 50)
}

func Test_param03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("param03. schur approximations pull their solvers in")

	p := NewParam("ns", newB11())
	chk.IntAssert(p.SetSchurApprox("diag_inv"), SetOK)
	if p.SchurSles == nil {
		tst.Errorf("diag_inv must prepare the schur solver\n")
		return
	}
	if p.SchurSles.Solver != "fcg" || p.SchurSles.Precond != "amg" {
		tst.Errorf("schur solver must default to amg-preconditioned fcg\n")
		return
	}
	chk.Scalar(tst, "schur rtol", 1e-17, p.SchurSles.Cvg.Rtol, 1e-4)

	chk.IntAssert(p.SetSchurApprox("lumped_inv"), SetOK)
	if p.XtraSles == nil {
		tst.Errorf("lumped_inv must prepare the extra solver\n")
		return
	}
	chk.Scalar(tst, "xtra rtol", 1e-17, p.XtraSles.Cvg.Rtol, 1e-3)
	chk.IntAssert(p.XtraSles.Cvg.NmaxIter, 50)

	// uzawa preconditioner promotes the missing approximation
	p2 := NewParam("ns", newB11())
	chk.IntAssert(p2.SetPrecond("uzawa"), SetOK)
	if p2.Schur != SchurMassScaled {
		tst.Errorf("uzawa with no approximation must promote to the scaled mass matrix\n")
		return
	}
	// but does not override an explicit choice
	p3 := NewParam("ns", newB11())
	p3.SetSchurApprox("identity")
	p3.SetPrecond("uzawa")
	if p3.Schur != SchurIdentity {
		tst.Errorf("uzawa must keep an explicit approximation\n")
	}
}

func Test_param04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("param04. copy is a deep behavioral clone")

	p1 := NewParam("a", newB11())
	p1.SetSolver("alu")
	p1.SetAugmentationCoef(42)
	p1.SetSchurApprox("mass_scaled_diag_inv")
	p1.Cvg.Rtol = 1e-9

	p2 := NewParam("b", newB11())
	p2.CopyFrom(p1)
	p3 := NewParam("c", newB11())
	p3.CopyFrom(p2)

	if p3.Solver != Alu || p3.Schur != SchurMassScaledDiagInv {
		tst.Errorf("copy chain must keep solver and schur kinds\n")
		return
	}
	chk.Scalar(tst, "copied gamma", 1e-17, p3.GetAugmentationCoef(), 42)
	chk.Scalar(tst, "copied rtol", 1e-17, p3.Cvg.Rtol, 1e-9)
	if p3.SchurSles == nil || p3.SchurSles == p1.SchurSles {
		tst.Errorf("owned nested settings must be cloned, not shared\n")
		return
	}
	if p3.B11 != p1.B11 {
		tst.Errorf("the (1,1)-block reference must be shared\n")
		return
	}

	// mutating the clone leaves the source alone
	p3.SetAugmentationCoef(7)
	chk.Scalar(tst, "source gamma intact", 1e-17, p1.GetAugmentationCoef(), 42)
}

func Test_param05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("param05. display names and the gkb stopping window")

	if SolverName(NotayT) != "Notay transformation" {
		tst.Errorf("notay must be labelled by its own name, got %q\n", SolverName(NotayT))
		return
	}
	if SolverName(MumpsLU) != "MUMPS" {
		tst.Errorf("unexpected mumps label %q\n", SolverName(MumpsLU))
		return
	}

	chk.IntAssert(gkbZetaSize(0.5, 5), 6)
	chk.IntAssert(gkbZetaSize(1, 5), 5)
	chk.IntAssert(gkbZetaSize(10, 5), 4)
	chk.IntAssert(gkbZetaSize(100, 5), 3)
	chk.IntAssert(gkbZetaSize(1000, 5), 2)
	chk.IntAssert(gkbZetaSize(10000, 5), 1)
	chk.IntAssert(gkbZetaSize(1e6, 2), 1) // floored at one
}

func Test_param06(tst *testing.T) {

	//verbose()
	chk.PrintTitle("param06. lazy solver-settings initializers")

	pa := NewParam("lazy", nil)
	pa.SetSolver("gcr")
	if pa.SchurSles != nil || pa.XtraSles != nil {
		tst.Errorf("gcr must not preallocate nested solver settings\n")
		return
	}
	pa.TryInitSchurSles()
	pa.TryInitXtraSles()
	if pa.SchurSles == nil || pa.XtraSles == nil {
		tst.Errorf("lazy initializers must allocate missing settings\n")
		return
	}
	if pa.SchurSles.Solver != "fcg" || pa.SchurSles.Precond != "amg" {
		tst.Errorf("wrong default Schur solver: %q / %q\n", pa.SchurSles.Solver, pa.SchurSles.Precond)
		return
	}

	// already present settings are kept
	schur := pa.SchurSles
	pa.TryInitSchurSles()
	if pa.SchurSles != schur {
		tst.Errorf("lazy initializer must keep existing settings\n")
	}
}

func Test_param07(tst *testing.T) {

	//verbose()
	chk.PrintTitle("param07. augmentation defaults and extra solver accuracy")

	p := NewParam("ns", newB11())
	p.Cvg.Atol = 1e-10
	p.B11.Cvg.Atol = 1e-13

	// inner solves reuse the velocity-block settings unless asked otherwise
	p.SetSolver("alu")
	if p.Ctx.(*AluCtx).DedicatedXtra {
		tst.Errorf("alu must not use a dedicated inner solver by default\n")
		return
	}
	chk.Scalar(tst, "alu xtra atol", 1e-26, p.XtraSles.Cvg.Atol, 1e-13)

	p.SetSolver("gkb")
	if p.Ctx.(*GkbCtx).DedicatedXtra {
		tst.Errorf("gkb must not use a dedicated inner solver by default\n")
		return
	}

	// the tightest of the two absolute tolerances drives the extra solves
	p.Cvg.Atol = 1e-14
	p.SetSolver("gkb")
	chk.Scalar(tst, "gkb xtra atol", 1e-26, p.XtraSles.Cvg.Atol, 1e-14)
}
