// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mtx implements the sparse-matrix layer of the solver core: the
// matrix assembler working with global ids, the MSR storage with a separate
// diagonal, the native cell-based storage used by Schur approximations, and
// a uniform facade over the available solver backends
package mtx

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Class denotes the family of solver backends owning a matrix or a solve
type Class int

const (
	Inhouse Class = iota // built-in Krylov solvers and AMG
	Petsc                // PETSc (not linked in this build)
	Mumps                // MUMPS via the direct sparse solver interface
	Hypre                // HYPRE (not linked in this build)
)

// Capability denotes a feature a backend may or may not provide
type Capability int

const (
	CapIterative Capability = iota // Krylov iterations
	CapDirect                      // direct factorization
	CapGMRES                       // (flexible) GMRES
	CapAMG                         // algebraic multigrid
)

// String returns the backend name
func (c Class) String() string {
	switch c {
	case Inhouse:
		return "saturne"
	case Petsc:
		return "petsc"
	case Mumps:
		return "mumps"
	case Hypre:
		return "hypre"
	}
	return "unknown"
}

// Available tells whether the backend is usable in this build. The in-house
// solvers are always present; MUMPS comes with the sparse direct solver
// interface of gosl/la; PETSc and HYPRE are not linked
func (c Class) Available() bool {
	switch c {
	case Inhouse, Mumps:
		return true
	}
	return false
}

// Supports tells whether the backend provides the given capability
func (c Class) Supports(cap Capability) bool {
	switch c {
	case Inhouse:
		return cap == CapIterative || cap == CapAMG
	case Mumps:
		return cap == CapDirect
	case Petsc:
		return c.Available()
	case Hypre:
		return c.Available() && cap == CapAMG
	}
	return false
}

// DirectData holds the settings of the direct sparse solvers
type DirectData struct {
	Name      string // "umfpack" or "mumps"
	Symmetric bool   // use symmetric factorization
	Verbose   bool   // verbose?
	Timing    bool   // show timing statistics
	Ordering  string // ordering scheme; "" keeps the backend default
	Scaling   string // scaling scheme; "" keeps the backend default
}

// GetLinSol returns the direct sparse solver matching the backend class and
// the direct-solver settings. The distributed case forces MUMPS, as the
// serial UMFPACK kernel cannot handle a matrix spread over processors
func GetLinSol(c Class, distr bool, ds DirectData) la.LinSol {
	name := ds.Name
	if name == "" {
		name = "umfpack"
	}
	if distr || c == Mumps {
		name = "mumps"
	}
	return la.GetSolver(name)
}

// InitLinSol initializes a direct sparse solver on a triplet, applying the
// ordering and scaling selections when given. With MUMPS the analysis runs
// during initialization, so the scaling takes effect at factorization time
// while a custom ordering cannot override the default one
func InitLinSol(lis la.LinSol, t *la.Triplet, ds DirectData, symmetric, verbose bool) (err error) {
	err = lis.InitR(t, symmetric || ds.Symmetric, verbose || ds.Verbose, ds.Timing)
	if err != nil {
		return
	}
	if ds.Ordering != "" || ds.Scaling != "" {
		err = lis.SetOrdScal(ds.Ordering, ds.Scaling)
	}
	return
}

// Matrix is the minimal surface the iteration drivers need from any matrix
// representation: sizes, the diagonal and the product
type Matrix interface {
	Nrows() int
	Ncols() int
	Diag() []float64
	MatVec(y, x []float64) // y := A*x
	IsSym() bool
}

// Scanner is implemented by matrices able to enumerate their extra-diagonal
// entries; needed by the coarsening of the algebraic multigrid
type Scanner interface {
	ForEachExtra(fcn func(i, j int, v float64))
}

// Tripleter is implemented by matrices convertible to triplet form for the
// direct sparse solvers
type Tripleter interface {
	ToTriplet() *la.Triplet
}

// External wraps a matrix owned by an external library, avoiding coefficient
// copies. In this build no external matrix kind is linked and the caller is
// expected to fall back to the MSR or native representations
func External(kind string, symmetric bool, strideRow, strideCol int) (Matrix, error) {
	return nil, chk.Err("mtx: external matrix kind %q is not available in this build", kind)
}
