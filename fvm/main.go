// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package fvm implements the finite-volume flow solver driver: it reads
// the simulation input, builds the discrete Stokes operators on the grid
// and advances the velocity-pressure system in time with the configured
// saddle-point algorithm
package fvm

import (
	"encoding/json"
	"time"

	"github.com/cpmech/gofvm/inp"
	"github.com/cpmech/gofvm/msh"
	"github.com/cpmech/gofvm/ops"
	"github.com/cpmech/gofvm/saddle"
	"github.com/cpmech/gofvm/sles"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
)

// Main holds all data for one flow simulation
type Main struct {

	// input
	Sim *inp.Simulation // simulation data
	M   *msh.Mesh       // the grid

	// solver setup
	B11 *sles.Param    // velocity-block solver settings
	Pa  *saddle.Param  // coupled solver settings
	Sh  *saddle.Helper // sparsity and block storage
	Sol *saddle.Solver // algorithm dispatcher

	// multiprocessing data
	Nproc   int  // number of processors
	Proc    int  // processor id
	ShowMsg bool // show messages

	// discrete operators
	divVals []float64 // divergence coefficients along the cell-face adjacency

	// solution state
	X1 []float64 // face velocities, 3 interlaced components per face
	X2 []float64 // cell pressures
}

// NewMain returns a new Main structure
//  Input:
//   simfilepath   -- simulation (.sim) filename including full path
//   alias         -- word to be appended to simulation key
//   erasePrev     -- erase previous results files
//   allowParallel -- allow parallel execution; otherwise, run in serial mode regardless whether MPI is on or not
//   verbose       -- show messages
func NewMain(simfilepath, alias string, erasePrev, allowParallel, verbose bool) (o *Main) {

	// new Main object
	o = new(Main)

	// fix erasePrev flag when MPI is on
	if mpi.IsOn() {
		if mpi.Rank() != 0 {
			erasePrev = false
		}
	}

	// read input data
	o.Sim = inp.ReadSim(simfilepath, alias, erasePrev)
	if o.Sim == nil {
		chk.Panic("cannot read simulation input data")
	}

	// multiprocessing data
	o.Nproc = 1
	if mpi.IsOn() && allowParallel {
		o.Proc = mpi.Rank()
		o.Nproc = mpi.Size()
		if o.Nproc > 1 {
			o.Sim.LinSol.Name = "mumps"
		}
	}
	o.ShowMsg = verbose && (o.Proc == 0)

	// message
	if o.ShowMsg {
		io.Pf("> Simulation (.sim) file read\n")
	}

	// the grid
	o.M = o.Sim.Msh
	o.M.CheckConsistency()

	// solver parameters
	o.B11 = o.Sim.Velocity.SlesParam(0)
	o.B11.Direct = o.Sim.LinSol.DirectData()
	if err := o.B11.Check(); err != nil {
		chk.Panic("velocity solver settings cannot run:\n%v", err)
	}
	o.Pa = o.Sim.Saddle.SaddleParam(o.Sim.Key, o.B11)

	// sparsity and operators
	o.Sh = saddle.NewHelper(o.M, o.Pa, false)
	o.divVals = ops.DivergenceCoefs(o.M)
	o.Sh.SetM21Values(o.divVals)
	ops.FillVelocityBlock(o.M, o.Sh.M11, o.divVals, o.Sim.Flow.MuRef, o.massCoef())

	// algorithm dispatcher
	var err error
	o.Sol, err = saddle.NewSolver(o.Pa, o.Sh)
	if err != nil {
		chk.Panic("cannot allocate saddle-point solver:\n%v", err)
	}
	o.Sol.MassDiag = saddle.GetM22ScaledDiagMassMatrix(o.M, o.Sim.ViscosityAtCells(0))
	o.Sol.SchurScale = saddle.SchurScaling(o.Sim.Flow.RhoRef, o.Sim.Flow.MuRef, o.Sim.Flow.Dt, o.Sim.Data.Steady)

	// solution state
	o.X1 = make([]float64, o.Sh.N1)
	o.X2 = make([]float64, o.Sh.N2)

	// message
	if o.ShowMsg {
		io.Pf("> Initialisation step completed\n")
	}
	return
}

// massCoef returns the coefficient of the velocity mass lump: the inertia
// term of unsteady runs or the reference scaling of steady ones
func (o *Main) massCoef() float64 {
	return saddle.SchurScaling(o.Sim.Flow.RhoRef, o.Sim.Flow.MuRef, o.Sim.Flow.Dt, o.Sim.Data.Steady)
}

// resetTimeStep rebuilds the time-step dependent coefficients after the
// divergence control changed dt
func (o *Main) resetTimeStep(dt float64) {
	o.Sim.Flow.Dt = dt
	ops.FillVelocityBlock(o.M, o.Sh.M11, o.divVals, o.Sim.Flow.MuRef, o.massCoef())
	o.Sol.SchurScale = saddle.SchurScaling(o.Sim.Flow.RhoRef, o.Sim.Flow.MuRef, dt, o.Sim.Data.Steady)
}

// Run advances the flow simulation until the final time, solving one
// coupled velocity-pressure system per step
func (o *Main) Run() (err error) {

	// exit commands
	cputime := time.Now()
	defer func() {
		if o.ShowMsg {
			io.Pf("> Elapsed time = %v\n", time.Now().Sub(cputime))
		}
	}()

	// message
	steady := o.Sim.Data.Steady
	dt := o.Sim.Flow.Dt
	tf := o.Sim.Flow.Tf
	if o.ShowMsg {
		if steady {
			io.Pf("> Solving the steady problem\n")
		} else {
			io.Pf("> Solving until t=%g with dt=%g\n", tf, dt)
		}
	}

	// time loop
	b1 := make([]float64, o.Sh.N1)
	b2 := make([]float64, o.Sh.N2)
	t := 0.0
	step := 0
	ndiverg := 0
	for {
		step++
		tn := t
		if !steady {
			tn = t + dt
		}

		// right-hand sides
		o.assembleRhs(tn, b1)

		// coupled solve
		nit, err := o.Sol.Solve(o.X1, o.X2, b1, b2)
		if err != nil {
			return chk.Err("step %d (t=%g) failed:\n%v", step, tn, err)
		}

		// divergence control: retry the step with a halved time increment
		st := o.Sol.Algo.CvgStatus
		if st != saddle.Converged {
			if o.Sim.Flow.DvgCtrl && !steady && ndiverg < o.Sim.Flow.NdvgMax {
				ndiverg++
				dt /= 2
				o.resetTimeStep(dt)
				if o.ShowMsg {
					io.Pf("  . . . step %d did not converge (%v); retrying with dt=%g . . .\n", step, st, dt)
				}
				continue
			}
			return chk.Err("step %d (t=%g): saddle-point solve failed with status %q after %d iterations (res=%g)",
				step, tn, st, nit, o.Sol.Algo.Res)
		}

		// message
		if o.ShowMsg {
			io.Pf("  t=%12.6f  nit=%4d  inner=%6d  res=%12.4e  (%v)\n",
				tn, nit, o.Sol.Algo.NInnerIter, o.Sol.Algo.Res, st)
		}

		// advance
		t = tn
		ndiverg = 0
		if steady || t >= tf-1e-10 {
			break
		}
	}
	if o.ShowMsg {
		o.Sol.Mon.Log(o.Pa.Name)
	}

	// save results
	if o.Proc == 0 {
		err = o.saveResults()
	}
	return
}

// assembleRhs fills the momentum right-hand side with the body force
// integrated over the dual volume of each face; the continuity right-hand
// side is zero (no mass source)
func (o *Main) assembleRhs(t float64, b1 []float64) {
	scale := 1.0
	if o.Sim.Flow.ForceFunc != nil {
		scale = o.Sim.Flow.ForceFunc.F(t, nil)
	}
	for f := 0; f < o.M.Nfaces; f++ {
		w := 0.0
		for _, c := range o.M.F2c.Row(f) {
			w += 0.5 * o.M.CellVol[c]
		}
		for d := 0; d < 3; d++ {
			b1[3*f+d] = scale * o.Sim.Flow.Force[d] * w
		}
	}
}

// saveResults writes the final pressure and velocity fields to the output
// directory as JSON
func (o *Main) saveResults() (err error) {
	res := struct {
		Key      string    `json:"key"`
		Pressure []float64 `json:"pressure"`
		Velocity []float64 `json:"velocity"`
	}{o.Sim.Key, o.X2, o.X1}
	b, err := json.Marshal(&res)
	if err != nil {
		return chk.Err("cannot encode results: %v", err)
	}
	io.WriteStringToFileD(o.Sim.DirOut, o.Sim.Key+"-fields.json", string(b))
	if o.ShowMsg {
		io.Pf("> Results saved to %s\n", o.Sim.DirOut)
	}
	return
}
