// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mtx

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Native is a face-based sparse matrix on cell unknowns: one diagonal value
// per cell and two extra-diagonal values per interior face, one for each
// orientation. It is the natural storage for cell-centred finite-volume
// operators and for the approximations of the pressure Schur complement
type Native struct {

	// mesh association
	Ncells     int      // owned cells
	NcellsExt  int      // owned plus ghost cells
	NiFaces    int      // interior faces
	IfaceCells [][2]int // cells adjacent to each interior face

	// coefficients
	Dv []float64 // [NcellsExt] diagonal
	Xv []float64 // [2*NiFaces] extra-diagonal: Xv[2f] couples (ci,cj), Xv[2f+1] couples (cj,ci)

	Sym bool
}

// NewNative creates an empty native matrix; SetMeshAssociation and
// SetCoefficients must be called before any product
func NewNative(symmetric bool) (o *Native) {
	o = new(Native)
	o.Sym = symmetric
	return
}

// SetMeshAssociation attaches the cell and interior-face counts together
// with the face-to-cells connectivity
func (o *Native) SetMeshAssociation(nCells, nCellsExt, nIFaces int, ifaceCells [][2]int) {
	if len(ifaceCells) != nIFaces {
		chk.Panic("native: len(ifaceCells)=%d must equal nIFaces=%d", len(ifaceCells), nIFaces)
	}
	o.Ncells = nCells
	o.NcellsExt = nCellsExt
	o.NiFaces = nIFaces
	o.IfaceCells = ifaceCells
}

// SetCoefficients takes ownership of the diagonal and extra-diagonal
// arrays. For a symmetric matrix xtra holds one value per face; otherwise
// two values per face, lower then upper
func (o *Native) SetCoefficients(diag, xtra []float64) {
	if len(diag) < o.Ncells {
		chk.Panic("native: len(diag)=%d must cover the %d owned cells", len(diag), o.Ncells)
	}
	want := 2 * o.NiFaces
	if o.Sym {
		want = o.NiFaces
	}
	if len(xtra) != want {
		chk.Panic("native: len(xtra)=%d must equal %d", len(xtra), want)
	}
	o.Dv = diag
	o.Xv = xtra
}

// Nrows returns the number of owned cells
func (o *Native) Nrows() int { return o.Ncells }

// Ncols returns the number of owned cells
func (o *Native) Ncols() int { return o.Ncells }

// IsSym tells whether one value per face is stored
func (o *Native) IsSym() bool { return o.Sym }

// Diag returns the diagonal restricted to owned cells
func (o *Native) Diag() []float64 { return o.Dv[:o.Ncells] }

// xlo and xup return the lower/upper coefficient of face f
func (o *Native) xlo(f int) float64 {
	if o.Sym {
		return o.Xv[f]
	}
	return o.Xv[2*f]
}

func (o *Native) xup(f int) float64 {
	if o.Sym {
		return o.Xv[f]
	}
	return o.Xv[2*f+1]
}

// MatVec computes y := A*x by a face-based sweep. Ghost values of x must
// have been synchronized by the caller
func (o *Native) MatVec(y, x []float64) {
	for c := 0; c < o.Ncells; c++ {
		y[c] = o.Dv[c] * x[c]
	}
	for f := 0; f < o.NiFaces; f++ {
		ci, cj := o.IfaceCells[f][0], o.IfaceCells[f][1]
		if ci < o.Ncells {
			y[ci] += o.xlo(f) * x[cj]
		}
		if cj < o.Ncells {
			y[cj] += o.xup(f) * x[ci]
		}
	}
}

// ForEachExtra calls fcn for each extra-diagonal entry between owned cells
func (o *Native) ForEachExtra(fcn func(i, j int, v float64)) {
	for f := 0; f < o.NiFaces; f++ {
		ci, cj := o.IfaceCells[f][0], o.IfaceCells[f][1]
		if ci < o.Ncells && cj < o.Ncells {
			fcn(ci, cj, o.xlo(f))
			fcn(cj, ci, o.xup(f))
		}
	}
}

// ToTriplet converts the owned block to triplet form
func (o *Native) ToTriplet() (t *la.Triplet) {
	t = new(la.Triplet)
	t.Init(o.Ncells, o.Ncells, o.Ncells+2*o.NiFaces)
	for c := 0; c < o.Ncells; c++ {
		t.Put(c, c, o.Dv[c])
	}
	o.ForEachExtra(func(i, j int, v float64) {
		t.Put(i, j, v)
	})
	return
}
