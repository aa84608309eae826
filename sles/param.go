// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package sles implements the scalar sparse linear equation solvers: the
// per-field parameter records, the in-house Krylov solvers with Jacobi and
// algebraic multigrid preconditioning, and the bridge to the direct sparse
// solvers
package sles

import (
	"github.com/cpmech/gofvm/mtx"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Cvg gathers the stopping criteria of an iterative solve
type Cvg struct {
	NmaxIter int     // maximum number of iterations
	Rtol     float64 // relative tolerance on the residual
	Atol     float64 // absolute tolerance on the residual
	Dtol     float64 // divergence tolerance; 0 disables the check
}

// Param holds the settings of the linear solver attached to one field
type Param struct {
	FieldID   int       // id of the variable field; -1 when detached
	Name      string    // system name, used in logs
	Class     mtx.Class // backend family in charge of the solve
	Solver    string    // "cg", "fcg", "gcr", "mumps"
	Precond   string    // "none", "jacobi", "amg"
	Cvg       Cvg       // stopping criteria
	Verbosity int       // 0 silent, 1 summary, 2 per-iteration
	Flexible  bool      // right-hand preconditioner may vary between iterations
	Rnorm     string    // residual normalization: "none", "rhs", "weighted"

	Direct mtx.DirectData // direct sparse solver settings
}

// NewParam creates a parameter set with default values attached to the
// given field
func NewParam(fieldID int, name string) (o *Param) {
	o = new(Param)
	o.FieldID = fieldID
	o.Name = name
	o.SetDefault()
	return
}

// SetDefault resets solver, preconditioner and stopping criteria to the
// default scalar setup: flexible conjugate gradient with Jacobi
func (o *Param) SetDefault() {
	o.Class = mtx.Inhouse
	o.Solver = "fcg"
	o.Precond = "jacobi"
	o.Flexible = true
	o.Rnorm = "rhs"
	o.Cvg.NmaxIter = 10000
	o.Cvg.Rtol = 1e-6
	o.Cvg.Atol = 1e-15
	o.Cvg.Dtol = 0
	o.Direct = mtx.DirectData{Name: "umfpack"}
}

// CopyFrom copies all settings from src, keeping the receiver's field id
// and name
func (o *Param) CopyFrom(src *Param) {
	fid, name := o.FieldID, o.Name
	*o = *src
	o.FieldID = fid
	o.Name = name
}

// Check returns an error when the combination of settings cannot run
func (o *Param) Check() error {
	if !o.Class.Available() {
		return chk.Err("sles %q: backend %q is not available in this build", o.Name, o.Class)
	}
	switch o.Solver {
	case "cg", "fcg", "gcr":
		if !o.Class.Supports(mtx.CapIterative) {
			return chk.Err("sles %q: backend %q has no iterative solvers", o.Name, o.Class)
		}
	case "mumps":
		if !o.Class.Supports(mtx.CapDirect) {
			return chk.Err("sles %q: backend %q has no direct solver", o.Name, o.Class)
		}
	default:
		return chk.Err("sles %q: unknown solver %q", o.Name, o.Solver)
	}
	switch o.Precond {
	case "none", "jacobi":
	case "amg":
		if !o.Class.Supports(mtx.CapAMG) {
			return chk.Err("sles %q: backend %q has no multigrid", o.Name, o.Class)
		}
	default:
		return chk.Err("sles %q: unknown preconditioner %q", o.Name, o.Precond)
	}
	return nil
}

// Log prints a one-block summary of the settings
func (o *Param) Log() {
	io.Pf("sles %q (field %d)\n", o.Name, o.FieldID)
	io.Pf("  class     = %v\n", o.Class)
	io.Pf("  solver    = %s\n", o.Solver)
	io.Pf("  precond   = %s\n", o.Precond)
	io.Pf("  nmax_iter = %d\n", o.Cvg.NmaxIter)
	io.Pf("  rtol      = %g  atol = %g  dtol = %g\n", o.Cvg.Rtol, o.Cvg.Atol, o.Cvg.Dtol)
}
