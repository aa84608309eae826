// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sles

import (
	"github.com/cpmech/gofvm/mtx"
	"github.com/cpmech/gosl/chk"
)

// Preconditioner applies an approximation of the inverse of the system
// matrix
type Preconditioner interface {
	Apply(z, r []float64) // z := M^{-1} * r
}

// NonePc is the identity preconditioner
type NonePc struct{}

// Apply copies r into z
func (o *NonePc) Apply(z, r []float64) {
	copy(z, r)
}

// JacobiPc scales by the inverse diagonal
type JacobiPc struct {
	idiag []float64
}

// NewJacobiPc builds the inverse-diagonal scaling of A. Zero diagonal
// entries are left untouched by the application
func NewJacobiPc(A mtx.Matrix) (o *JacobiPc) {
	o = new(JacobiPc)
	d := A.Diag()
	o.idiag = make([]float64, len(d))
	for i, v := range d {
		if v != 0 {
			o.idiag[i] = 1.0 / v
		} else {
			o.idiag[i] = 1.0
		}
	}
	return
}

// Apply computes z := D^{-1} * r
func (o *JacobiPc) Apply(z, r []float64) {
	for i, w := range o.idiag {
		z[i] = w * r[i]
	}
}

// NewPrecond builds the preconditioner named in the parameters for the
// given matrix
func NewPrecond(pa *Param, A mtx.Matrix) (Preconditioner, error) {
	switch pa.Precond {
	case "none":
		return &NonePc{}, nil
	case "jacobi":
		return NewJacobiPc(A), nil
	case "amg":
		sc, ok := A.(mtx.Scanner)
		if !ok {
			return nil, chk.Err("sles %q: multigrid needs an explicit matrix", pa.Name)
		}
		return NewAmgPc(A, sc)
	}
	return nil, chk.Err("sles %q: unknown preconditioner %q", pa.Name, pa.Precond)
}
