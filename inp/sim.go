// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data read from a (.sim) JSON file
package inp

import (
	"encoding/json"
	goio "io"
	"os"
	"path/filepath"

	"github.com/cpmech/gofvm/msh"
	"github.com/cpmech/gofvm/mtx"
	"github.com/cpmech/gofvm/saddle"
	"github.com/cpmech/gofvm/sles"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
)

// Data holds global data for simulations
type Data struct {
	Desc    string `json:"desc"`    // description of simulation
	DirOut  string `json:"dirout"`  // directory for output; e.g. /tmp/gofvm
	Steady  bool   `json:"steady"`  // steady simulation
	ListBcs bool   `json:"listbcs"` // list boundary conditions
}

// FlowData holds the fluid properties and the transient control of the
// momentum-continuity system
type FlowData struct {
	RhoRef   float64    `json:"rhoref"`   // reference density
	MuRef    float64    `json:"muref"`    // reference dynamic viscosity
	ViscFcn  string     `json:"viscfcn"`  // name of viscosity function mu(t,x); "" means constant
	Dt       float64    `json:"dt"`       // time step size of unsteady runs
	Tf       float64    `json:"tf"`       // final time
	Force    [3]float64 `json:"force"`    // body force per unit volume
	ForceFcn string     `json:"forcefcn"` // name of function scaling the body force in time
	DvgCtrl  bool       `json:"dvgctrl"`  // use divergence control (time step halving)
	NdvgMax  int        `json:"ndvgmax"`  // max number of continued divergence

	// derived
	ForceFunc dbf.T // body force scaling; nil means constant
	ViscFunc  dbf.T // dynamic viscosity; nil means constant
}

// GridData holds the structured grid definition
type GridData struct {
	Nx int     `json:"nx"` // number of cells along x
	Ny int     `json:"ny"` // number of cells along y
	Nz int     `json:"nz"` // number of cells along z
	Lx float64 `json:"lx"` // domain length along x
	Ly float64 `json:"ly"` // domain length along y
	Lz float64 `json:"lz"` // domain length along z
}

// LinSolData holds data for the direct sparse solvers
type LinSolData struct {
	Name      string `json:"name"`      // "mumps" or "umfpack"
	Symmetric bool   `json:"symmetric"` // use symmetric solver
	Verbose   bool   `json:"verbose"`   // verbose?
	Timing    bool   `json:"timing"`    // show timing statistics
	Ordering  string `json:"ordering"`  // ordering scheme
	Scaling   string `json:"scaling"`   // scaling scheme
}

// SlesData holds the settings of one scalar linear solver
type SlesData struct {
	Name      string  `json:"name"`      // system name, used in logs
	Solver    string  `json:"solver"`    // "cg", "fcg", "gcr", "mumps"
	Precond   string  `json:"precond"`   // "none", "jacobi", "amg"
	NmaxIter  int     `json:"nmaxit"`    // maximum number of iterations
	Rtol      float64 `json:"rtol"`      // relative tolerance
	Atol      float64 `json:"atol"`      // absolute tolerance
	Dtol      float64 `json:"dtol"`      // divergence tolerance; 0 disables the check
	Verbosity int     `json:"verbosity"` // 0 silent, 1 summary, 2 per-iteration
}

// SaddleData holds the settings of the velocity-pressure coupled solve
type SaddleData struct {
	Solver    string  `json:"solver"`    // "alu", "gkb", "gcr", "minres", "mumps", "notay", "uzawa_cg", "fgmres"
	Precond   string  `json:"precond"`   // "none", "diag", "lower", "sgs", "upper", "uzawa"
	Schur     string  `json:"schur"`     // "none", "identity", "mass_scaled", "diag_inv", "lumped_inv", ...
	Class     string  `json:"class"`     // backend family; "saturne", "petsc", "mumps", "hypre"
	NmaxIter  int     `json:"nmaxit"`    // maximum number of outer iterations
	Rtol      float64 `json:"rtol"`      // relative tolerance
	Atol      float64 `json:"atol"`      // absolute tolerance
	Dtol      float64 `json:"dtol"`      // divergence tolerance
	Gamma     float64 `json:"gamma"`     // augmentation scaling of ALU and GKB; 0 keeps the default
	Restart   int     `json:"restart"`   // stored directions of the block-Krylov algorithms; 0 keeps the default
	Alpha     float64 `json:"alpha"`     // pressure scaling of the algebraic transformation; 0 keeps the default
	Verbosity int     `json:"verbosity"` // 0 silent, 1 summary, 2 per-iteration
}

// Simulation holds all simulation data
type Simulation struct {

	// input
	Data      Data       `json:"data"`      // stores global simulation data
	Functions FuncsData  `json:"functions"` // stores all time functions
	Flow      FlowData   `json:"flow"`      // fluid properties and transient control
	Grid      GridData   `json:"grid"`      // structured grid definition
	LinSol    LinSolData `json:"linsol"`    // direct sparse solver data
	Velocity  SlesData   `json:"velocity"`  // settings of the velocity-block solver
	Saddle    SaddleData `json:"saddle"`    // settings of the coupled solve

	// derived
	DirOut string    // directory to save results
	Key    string    // simulation key; e.g. mysim01.sim => mysim01 or mysim01-alias
	Msh    *msh.Mesh // the grid
}

// ReadSim reads all simulation data from a .sim JSON file
func ReadSim(simfilepath, alias string, erasePrev bool) *Simulation {

	// new sim
	var o Simulation

	// read file
	b, err := io.ReadFile(simfilepath)
	if err != nil {
		chk.Panic("ReadSim: cannot read simulation file %q", simfilepath)
	}

	// set default values
	o.LinSol.SetDefault()
	o.Velocity.SetDefault()
	o.Saddle.SetDefault()
	o.Flow.SetDefault()

	// decode
	err = json.Unmarshal(b, &o)
	if err != nil {
		chk.Panic("ReadSim: cannot unmarshal simulation file %q", simfilepath)
	}

	// input filename key
	fn := filepath.Base(simfilepath)
	fnkey := io.FnKey(fn)
	o.Key = fnkey
	if alias != "" {
		o.Key += "-" + alias
	}

	// output directory
	o.DirOut = o.Data.DirOut
	if o.DirOut == "" {
		o.DirOut = "/tmp/gofvm/" + fnkey
	}
	err = os.MkdirAll(o.DirOut, 0777)
	if err != nil {
		chk.Panic("cannot create directory for output results (%s): %v", o.DirOut, err)
	}

	// erase previous simulation results
	if erasePrev {
		io.RemoveAll(io.Sf("%s/%s*", o.DirOut, fnkey))
	}

	// build grid
	if o.Grid.Nx < 1 || o.Grid.Ny < 1 || o.Grid.Nz < 1 {
		chk.Panic("ReadSim: grid must have at least one cell per direction; got %dx%dx%d", o.Grid.Nx, o.Grid.Ny, o.Grid.Nz)
	}
	o.Msh = msh.NewGrid(o.Grid.Nx, o.Grid.Ny, o.Grid.Nz, o.Grid.Lx, o.Grid.Ly, o.Grid.Lz)

	// transient control
	if !o.Data.Steady {
		if o.Flow.Dt < 1e-14 {
			chk.Panic("ReadSim: unsteady simulation needs a positive time step; got dt=%g", o.Flow.Dt)
		}
		if o.Flow.Tf < o.Flow.Dt {
			o.Flow.Tf = o.Flow.Dt
		}
	}

	// body force scaling function
	if o.Flow.ForceFcn != "" {
		o.Flow.ForceFunc, err = o.Functions.Get(o.Flow.ForceFcn)
		if err != nil {
			chk.Panic("ReadSim: cannot find function named %q scaling the body force\n%v", o.Flow.ForceFcn, err)
		}
	}

	// viscosity function
	if o.Flow.ViscFcn != "" {
		o.Flow.ViscFunc, err = o.Functions.Get(o.Flow.ViscFcn)
		if err != nil {
			chk.Panic("ReadSim: cannot find viscosity function named %q\n%v", o.Flow.ViscFcn, err)
		}
	}

	// results
	return &o
}

// ViscosityAtCells evaluates the dynamic viscosity at the cell centres
func (o *Simulation) ViscosityAtCells(t float64) (visc []float64) {
	visc = make([]float64, o.Msh.Ncells)
	for c := 0; c < o.Msh.Ncells; c++ {
		if o.Flow.ViscFunc != nil {
			visc[c] = o.Flow.ViscFunc.F(t, o.Msh.CellCentre[3*c:3*c+3])
		} else {
			visc[c] = o.Flow.MuRef
		}
	}
	return
}

// GetInfo returns formatted information
func (o *Simulation) GetInfo(w goio.Writer) (err error) {
	b, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return
}

// SlesParam builds the parameter record of one scalar solver attached to
// the given field id
func (o *SlesData) SlesParam(fieldID int) (p *sles.Param) {
	p = sles.NewParam(fieldID, o.Name)
	if o.Solver != "" {
		p.Solver = o.Solver
	}
	if o.Precond != "" {
		p.Precond = o.Precond
	}
	if o.NmaxIter > 0 {
		p.Cvg.NmaxIter = o.NmaxIter
	}
	if o.Rtol > 0 {
		p.Cvg.Rtol = o.Rtol
	}
	if o.Atol > 0 {
		p.Cvg.Atol = o.Atol
	}
	if o.Dtol > 0 {
		p.Cvg.Dtol = o.Dtol
	}
	p.Verbosity = o.Verbosity
	if o.Solver == "mumps" {
		p.Class = mtx.Mumps
	}
	return
}

// SaddleParam builds the parameter record of the coupled solve on top of
// the given velocity-block settings
func (o *SaddleData) SaddleParam(name string, b11 *sles.Param) (pa *saddle.Param) {
	pa = saddle.NewParam(name, b11)
	if o.Class != "" {
		checkSet("solver class", o.Class, pa.SetSolverClass(o.Class))
	}
	checkSet("saddle solver", o.Solver, pa.SetSolver(o.Solver))
	if o.Precond != "" {
		checkSet("saddle preconditioner", o.Precond, pa.SetPrecond(o.Precond))
	}
	if o.Schur != "" {
		checkSet("Schur approximation", o.Schur, pa.SetSchurApprox(o.Schur))
	}
	if o.Gamma > 0 {
		checkSet("augmentation coefficient", io.Sf("%g", o.Gamma), pa.SetAugmentationCoef(o.Gamma))
	}
	if o.Restart > 0 {
		checkSet("restart range", io.Sf("%d", o.Restart), pa.SetRestartRange(o.Restart))
	}
	if o.Alpha > 0 {
		checkSet("transformation scaling", io.Sf("%g", o.Alpha), pa.SetNotayScaling(o.Alpha))
	}
	if o.NmaxIter > 0 {
		pa.Cvg.NmaxIter = o.NmaxIter
	}
	if o.Rtol > 0 {
		pa.Cvg.Rtol = o.Rtol
	}
	if o.Atol > 0 {
		pa.Cvg.Atol = o.Atol
	}
	if o.Dtol > 0 {
		pa.Cvg.Dtol = o.Dtol
	}
	pa.Verbosity = o.Verbosity
	return
}

// checkSet panics when a parameter setter rejects the given key
func checkSet(what, key string, code int) {
	switch code {
	case saddle.SetOK:
	case saddle.ErrBadKey:
		chk.Panic("unknown %s %q", what, key)
	case saddle.ErrNoPetsc:
		chk.Panic("%s %q needs the PETSc backend, which is not linked in this build", what, key)
	case saddle.ErrNoMumps:
		chk.Panic("%s %q needs the MUMPS backend, which is not linked in this build", what, key)
	case saddle.ErrNoContext:
		chk.Panic("%s %q does not apply to the selected saddle solver", what, key)
	default:
		chk.Panic("cannot set %s %q: code %d", what, key, code)
	}
}

// extra settings //////////////////////////////////////////////////////////////////////////////////

// SetDefault sets default values
func (o *LinSolData) SetDefault() {
	o.Name = "umfpack"
	o.Ordering = "amf"
	o.Scaling = "rcit"
}

// DirectData returns the settings in the form taken by the backend facade
func (o *LinSolData) DirectData() mtx.DirectData {
	return mtx.DirectData{
		Name:      o.Name,
		Symmetric: o.Symmetric,
		Verbose:   o.Verbose,
		Timing:    o.Timing,
		Ordering:  o.Ordering,
		Scaling:   o.Scaling,
	}
}

// SetDefault sets default values
func (o *SlesData) SetDefault() {
	o.Name = "velocity"
	o.Solver = "fcg"
	o.Precond = "jacobi"
}

// SetDefault sets default values
func (o *SaddleData) SetDefault() {
	o.Solver = "gkb"
}

// SetDefault sets default values
func (o *FlowData) SetDefault() {
	o.RhoRef = 1.0
	o.MuRef = 1.0
	o.NdvgMax = 20
}
