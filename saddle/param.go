// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package saddle configures and solves the velocity-pressure saddle-point
// systems of the incompressible flow solver. The system has the block form
//
//	[ M11  M12 ] [x1]   [b1]
//	[ M21   0  ] [x2] = [b2]
//
// with x1 the face velocities (3 interlaced components per face) and x2 the
// cell pressures. The package holds the solver parameters, the sparsity
// helper, the per-algorithm contexts and the algorithm drivers
package saddle

import (
	"math"

	"github.com/cpmech/gofvm/mtx"
	"github.com/cpmech/gofvm/sles"
	"github.com/cpmech/gosl/io"
)

// SolverT identifies the saddle-point algorithm
type SolverT int

const (
	NoSolver SolverT = iota
	Alu              // augmented-Lagrangian Uzawa
	Fgmres           // flexible GMRES on the full system (needs PETSc)
	Gcr              // block-preconditioned generalized conjugate residual
	Gkb              // Golub-Kahan bidiagonalization
	Minres           // block-preconditioned minimal residual
	MumpsLU          // direct solve of the full system
	NotayT           // Notay algebraic transformation
	UzawaCg          // conjugate gradient on the Schur complement
)

// PrecondT identifies the block preconditioner of the Krylov algorithms
type PrecondT int

const (
	NoPrecond PrecondT = iota
	PcDiag
	PcLower
	PcSgs
	PcUpper
	PcUzawa
)

// SchurT identifies the approximation of the pressure Schur complement
type SchurT int

const (
	NoSchur SchurT = iota
	SchurDiagInv
	SchurIdentity
	SchurLumpedInv
	SchurMassScaled
	SchurMassScaledDiagInv
	SchurMassScaledLumpedInv
)

// setter error codes
const (
	SetOK        = 0 // success
	ErrBadKey    = 1 // unknown key
	ErrNoPetsc   = 2 // requires the PETSc backend, not linked
	ErrNoMumps   = 3 // requires the MUMPS backend, not linked
	ErrNoContext = 4 // setting needs a context of another variant
)

// Context carries the algorithm-specific scalars attached to the chosen
// solver. The dispatcher type-switches on the variant
type Context interface {
	context()
}

// AluCtx holds the augmented-Lagrangian Uzawa settings
type AluCtx struct {
	Gamma         float64 // augmentation scaling
	DedicatedXtra bool    // inner solves use the dedicated extra settings
}

// GkbCtx holds the Golub-Kahan settings
type GkbCtx struct {
	Gamma          float64 // augmentation scaling; 0 disables augmentation
	TruncThreshold int     // length of the energy-norm stopping window
	DedicatedXtra  bool
}

// KrylovCtx holds the block-Krylov settings
type KrylovCtx struct {
	NStoredDirections int // restart window of GCR and FGMRES
}

// NotayCtx holds the algebraic-transformation settings
type NotayCtx struct {
	ScalingCoef float64 // alpha; 0 gives the identity transformation
}

func (o *AluCtx) context()    {}
func (o *GkbCtx) context()    {}
func (o *KrylovCtx) context() {}
func (o *NotayCtx) context()  {}

// Param describes one saddle-point solve: algorithm, preconditioning,
// Schur approximation, stopping criteria and the nested scalar-solver
// settings. B11 is a borrowed reference to the (1,1)-block settings owned
// by the caller; SchurSles and XtraSles are owned here
type Param struct {
	Verbosity int
	Name      string
	Class     mtx.Class
	Solver    SolverT
	Precond   PrecondT
	Schur     SchurT
	Cvg       sles.Cvg
	B11       *sles.Param // borrowed; must outlive this record
	SchurSles *sles.Param // owned
	XtraSles  *sles.Param // owned
	Ctx       Context
}

// NewParam creates a parameter record with the default stopping criteria
// and no solver selected
func NewParam(name string, b11 *sles.Param) (o *Param) {
	o = new(Param)
	o.Name = name
	o.Class = mtx.Inhouse
	o.B11 = b11
	o.Cvg.NmaxIter = 100
	o.Cvg.Rtol = 1e-6
	o.Cvg.Atol = 1e-12
	o.Cvg.Dtol = 1e3
	return
}

// initXtraSles seeds the extra solver settings from the (1,1)-block ones
// with a tightened tolerance, as needed by the augmentation transforms
func (o *Param) initXtraSles() {
	o.XtraSles = sles.NewParam(-1, o.Name+":xtra")
	if o.B11 != nil {
		o.XtraSles.CopyFrom(o.B11)
	}
	rtol := 0.1 * o.Cvg.Rtol
	if o.B11 != nil && 0.1*o.B11.Cvg.Rtol < rtol {
		rtol = 0.1 * o.B11.Cvg.Rtol
	}
	if 10*o.Cvg.Atol < rtol {
		rtol = 10 * o.Cvg.Atol
	}
	o.XtraSles.Cvg.Rtol = math.Max(1e-14, rtol)
	if o.B11 != nil {
		o.XtraSles.Cvg.Atol = math.Min(o.Cvg.Atol, o.B11.Cvg.Atol)
	}
}

// initSchurSles sets the default solver of the Schur approximation:
// AMG-preconditioned flexible CG with a loose tolerance
func (o *Param) initSchurSles() {
	o.SchurSles = sles.NewParam(-1, o.Name+":schur")
	o.SchurSles.Solver = "fcg"
	o.SchurSles.Precond = "amg"
	o.SchurSles.Cvg.Rtol = 1e-4
}

// initLumpedXtraSles sets the settings of the lumped-inverse solve
func (o *Param) initLumpedXtraSles() {
	o.XtraSles = sles.NewParam(-1, o.Name+":xtra")
	if o.B11 != nil {
		o.XtraSles.CopyFrom(o.B11)
	}
	o.XtraSles.Cvg.Rtol = 1e-3
	o.XtraSles.Cvg.NmaxIter = 50
}

// TryInitSchurSles allocates the default Schur solver settings unless
// they are already present
func (o *Param) TryInitSchurSles() {
	if o.SchurSles == nil {
		o.initSchurSles()
	}
}

// TryInitXtraSles allocates the extra solver settings unless they are
// already present
func (o *Param) TryInitXtraSles() {
	if o.XtraSles == nil {
		o.initXtraSles()
	}
}

// SetSolver selects the saddle-point algorithm by key and allocates the
// matching context with default values. Selecting ALU or GKB forces the
// preconditioner and Schur approximation to NONE and prepares the extra
// solver of the augmented system
func (o *Param) SetSolver(key string) int {
	switch key {
	case "none":
		o.Solver = NoSolver
		o.Ctx = nil
	case "alu":
		o.Solver = Alu
		o.Ctx = &AluCtx{Gamma: 100}
		o.Precond = NoPrecond
		o.Schur = NoSchur
		o.initXtraSles()
	case "gkb":
		o.Solver = Gkb
		o.Ctx = &GkbCtx{Gamma: 0, TruncThreshold: 5}
		o.Precond = NoPrecond
		o.Schur = NoSchur
		o.initXtraSles()
	case "fgmres":
		if !mtx.Petsc.Available() {
			return ErrNoPetsc
		}
		o.Solver = Fgmres
		o.Ctx = &KrylovCtx{NStoredDirections: 30}
	case "gcr":
		o.Solver = Gcr
		o.Ctx = &KrylovCtx{NStoredDirections: 30}
	case "minres":
		o.Solver = Minres
		o.Ctx = nil
	case "mumps":
		if !mtx.Mumps.Available() {
			return ErrNoMumps
		}
		o.Solver = MumpsLU
		o.Ctx = nil
	case "notay":
		o.Solver = NotayT
		o.Ctx = &NotayCtx{ScalingCoef: 1.0}
	case "uzawa_cg":
		o.Solver = UzawaCg
		o.Ctx = nil
	default:
		return ErrBadKey
	}
	return SetOK
}

// SetPrecond selects the block preconditioner by key. Choosing the Uzawa
// preconditioner without a Schur approximation promotes the approximation
// to the scaled mass matrix
func (o *Param) SetPrecond(key string) int {
	switch key {
	case "none":
		o.Precond = NoPrecond
	case "diag":
		o.Precond = PcDiag
	case "lower":
		o.Precond = PcLower
	case "sgs":
		o.Precond = PcSgs
	case "upper":
		o.Precond = PcUpper
	case "uzawa":
		o.Precond = PcUzawa
		if o.Schur == NoSchur {
			o.Schur = SchurMassScaled
		}
	default:
		return ErrBadKey
	}
	return SetOK
}

// SetSchurApprox selects the Schur approximation by key. Approximations
// involving a solve get a default Schur solver; the lumped variants also
// get the extra solver of the lumped inverse
func (o *Param) SetSchurApprox(key string) int {
	switch key {
	case "none":
		o.Schur = NoSchur
	case "identity":
		o.Schur = SchurIdentity
	case "mass", "mass_scaled":
		o.Schur = SchurMassScaled
	case "diag_inv":
		o.Schur = SchurDiagInv
		o.initSchurSles()
	case "lumped_inv":
		o.Schur = SchurLumpedInv
		o.initSchurSles()
		o.initLumpedXtraSles()
	case "mass_scaled_diag_inv":
		o.Schur = SchurMassScaledDiagInv
		o.initSchurSles()
	case "mass_scaled_lumped_inv":
		o.Schur = SchurMassScaledLumpedInv
		o.initSchurSles()
		o.initLumpedXtraSles()
	default:
		return ErrBadKey
	}
	return SetOK
}

// SetSolverClass selects the backend family in charge of the solve
func (o *Param) SetSolverClass(key string) int {
	switch key {
	case "cs", "saturne":
		o.Class = mtx.Inhouse
	case "petsc":
		if !mtx.Petsc.Available() {
			return ErrNoPetsc
		}
		o.Class = mtx.Petsc
	case "mumps":
		if !mtx.Mumps.Available() {
			return ErrNoMumps
		}
		o.Class = mtx.Mumps
	default:
		return ErrBadKey
	}
	return SetOK
}

// SetRestartRange sets the number of stored directions of the block-Krylov
// algorithms
func (o *Param) SetRestartRange(n int) int {
	c, ok := o.Ctx.(*KrylovCtx)
	if !ok {
		return ErrNoContext
	}
	c.NStoredDirections = n
	return SetOK
}

// SetNotayScaling sets the pressure scaling of the algebraic transformation
func (o *Param) SetNotayScaling(alpha float64) int {
	c, ok := o.Ctx.(*NotayCtx)
	if !ok {
		return ErrNoContext
	}
	c.ScalingCoef = alpha
	return SetOK
}

// SetAugmentationCoef sets the augmentation scaling of the ALU and GKB
// algorithms
func (o *Param) SetAugmentationCoef(gamma float64) int {
	switch c := o.Ctx.(type) {
	case *AluCtx:
		c.Gamma = gamma
	case *GkbCtx:
		c.Gamma = gamma
	default:
		return ErrNoContext
	}
	return SetOK
}

// GetAugmentationCoef returns the augmentation scaling or zero when the
// context has none
func (o *Param) GetAugmentationCoef() float64 {
	switch c := o.Ctx.(type) {
	case *AluCtx:
		return c.Gamma
	case *GkbCtx:
		return c.Gamma
	}
	return 0
}

// SolverName returns the display name of a solver kind
func SolverName(s SolverT) string {
	switch s {
	case NoSolver:
		return "None"
	case Alu:
		return "Augmented-Lagrangian Uzawa"
	case Fgmres:
		return "Flexible GMRES"
	case Gcr:
		return "GCR"
	case Gkb:
		return "Golub-Kahan bidiagonalization"
	case Minres:
		return "MINRES"
	case MumpsLU:
		return "MUMPS"
	case NotayT:
		return "Notay transformation"
	case UzawaCg:
		return "Uzawa-CG"
	}
	return "Undefined"
}

// PrecondName returns the display name of a preconditioner kind
func PrecondName(p PrecondT) string {
	switch p {
	case NoPrecond:
		return "None"
	case PcDiag:
		return "Block diagonal"
	case PcLower:
		return "Lower triangular"
	case PcSgs:
		return "Symmetric Gauss-Seidel"
	case PcUpper:
		return "Upper triangular"
	case PcUzawa:
		return "Uzawa"
	}
	return "Undefined"
}

// SchurName returns the display name of a Schur approximation kind
func SchurName(s SchurT) string {
	switch s {
	case NoSchur:
		return "None"
	case SchurDiagInv:
		return "Diagonal inverse"
	case SchurIdentity:
		return "Identity"
	case SchurLumpedInv:
		return "Lumped inverse"
	case SchurMassScaled:
		return "Scaled mass matrix"
	case SchurMassScaledDiagInv:
		return "Scaled mass + diagonal inverse"
	case SchurMassScaledLumpedInv:
		return "Scaled mass + lumped inverse"
	}
	return "Undefined"
}

// CopyFrom deep-copies all settings from src, including the owned nested
// solver records. The (1,1)-block reference is shared, not cloned, and the
// receiver's name is kept
func (o *Param) CopyFrom(src *Param) {
	name := o.Name
	o.Verbosity = src.Verbosity
	o.Class = src.Class
	o.Solver = src.Solver
	o.Precond = src.Precond
	o.Schur = src.Schur
	o.Cvg = src.Cvg
	o.B11 = src.B11
	o.Name = name
	o.SchurSles = nil
	if src.SchurSles != nil {
		o.SchurSles = sles.NewParam(-1, name+":schur")
		o.SchurSles.CopyFrom(src.SchurSles)
	}
	o.XtraSles = nil
	if src.XtraSles != nil {
		o.XtraSles = sles.NewParam(-1, name+":xtra")
		o.XtraSles.CopyFrom(src.XtraSles)
	}
	o.Ctx = nil
	switch c := src.Ctx.(type) {
	case *AluCtx:
		cc := *c
		o.Ctx = &cc
	case *GkbCtx:
		cc := *c
		o.Ctx = &cc
	case *KrylovCtx:
		cc := *c
		o.Ctx = &cc
	case *NotayCtx:
		cc := *c
		o.Ctx = &cc
	}
}

// Log prints the full setup when verbosity is positive
func (o *Param) Log() {
	if o.Verbosity < 1 {
		return
	}
	io.Pf("saddle %q\n", o.Name)
	io.Pf("  solver       = %s\n", SolverName(o.Solver))
	io.Pf("  precond      = %s\n", PrecondName(o.Precond))
	io.Pf("  schur approx = %s\n", SchurName(o.Schur))
	io.Pf("  class        = %v\n", o.Class)
	io.Pf("  nmax_iter    = %d\n", o.Cvg.NmaxIter)
	io.Pf("  rtol         = %g  atol = %g  dtol = %g\n", o.Cvg.Rtol, o.Cvg.Atol, o.Cvg.Dtol)
	switch c := o.Ctx.(type) {
	case *AluCtx:
		io.Pf("  gamma        = %g\n", c.Gamma)
	case *GkbCtx:
		io.Pf("  gamma        = %g  truncation = %d\n", c.Gamma, c.TruncThreshold)
	case *KrylovCtx:
		io.Pf("  n_directions = %d\n", c.NStoredDirections)
	case *NotayCtx:
		io.Pf("  alpha        = %g\n", c.ScalingCoef)
	}
	if o.B11 != nil {
		o.B11.Log()
	}
	if o.SchurSles != nil {
		o.SchurSles.Log()
	}
	if o.XtraSles != nil {
		o.XtraSles.Log()
	}
}
