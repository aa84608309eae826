// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mtx

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// MSR is a sparse matrix in modified-sparse-row format: the diagonal is
// stored apart in D and the extra-diagonal coefficients in V, following the
// column lists of the shared Structure. All owned rows live on this
// processor; columns referring to ghost unknowns are resolved through the
// local column map
type MSR struct {

	// shared sparsity and flags
	Str       *Structure
	Sym       bool // only the upper part of each off-diagonal couple is pushed
	StrideRow int  // block size of rows (e.g. 3 for interlaced vectors)
	StrideCol int  // block size of columns

	// coefficients
	D []float64 // [Nrows] diagonal
	V []float64 // [Nnz] extra-diagonal, matching Str.Cols

	// local view of columns; identity partition unless BuildColMap is called
	colLoc []int
}

// NewMSR allocates a matrix over the given structure with zeroed
// coefficients
func NewMSR(str *Structure, symmetric bool, strideRow, strideCol int) (o *MSR) {
	if !str.SepDiag {
		chk.Panic("msr: structure must keep a separate diagonal")
	}
	o = new(MSR)
	o.Str = str
	o.Sym = symmetric
	o.StrideRow = strideRow
	o.StrideCol = strideCol
	o.D = make([]float64, str.Nrows)
	o.V = make([]float64, str.Nnz())
	return
}

// Nrows returns the number of owned rows
func (o *MSR) Nrows() int { return o.Str.Nrows }

// Ncols returns the number of columns of the local view
func (o *MSR) Ncols() int { return o.Str.Nrows }

// IsSym tells whether the matrix was registered as symmetric
func (o *MSR) IsSym() bool { return o.Sym }

// Diag returns the diagonal slice (not a copy)
func (o *MSR) Diag() []float64 { return o.D }

// Start zeroes all coefficients so the matrix can be re-assembled over the
// same structure
func (o *MSR) Start() {
	for i := range o.D {
		o.D[i] = 0
	}
	for i := range o.V {
		o.V[i] = 0
	}
}

// AddValue accumulates v into entry (grow, gcol). The couple must be part
// of the structure
func (o *MSR) AddValue(grow, gcol int64, v float64) {
	i := int(grow - o.Str.LRange[0])
	if i < 0 || i >= o.Str.Nrows {
		chk.Panic("msr: row %d outside owned range [%d, %d)", grow, o.Str.LRange[0], o.Str.LRange[1])
	}
	if grow == gcol {
		o.D[i] += v
		return
	}
	k := o.Str.FindCol(i, gcol)
	if k < 0 {
		chk.Panic("msr: entry (%d, %d) not in structure", grow, gcol)
	}
	o.V[k] += v
}

// AddValues accumulates a batch of coefficients, one per (grows[k], gcols[k])
// couple
func (o *MSR) AddValues(grows, gcols []int64, vals []float64) {
	for k := range vals {
		o.AddValue(grows[k], gcols[k], vals[k])
	}
}

// BuildColMap resolves the global column ids into local indices using the
// given lookup. Without this call an identity partition is assumed, which
// is the single-processor case
func (o *MSR) BuildColMap(gid2loc func(gid int64) int) {
	o.colLoc = make([]int, len(o.Str.Cols))
	for k, gj := range o.Str.Cols {
		j := gid2loc(gj)
		if j < 0 {
			chk.Panic("msr: column gid %d has no local index", gj)
		}
		o.colLoc[k] = j
	}
}

// locCol returns the local index of the k-th stored column
func (o *MSR) locCol(k int) int {
	if o.colLoc != nil {
		return o.colLoc[k]
	}
	return int(o.Str.Cols[k] - o.Str.LRange[0])
}

// MatVec computes y := A*x over the local view. For symmetric storage the
// transposed contribution of each stored entry is added as well
func (o *MSR) MatVec(y, x []float64) {
	s := o.Str
	for i := 0; i < s.Nrows; i++ {
		y[i] = o.D[i] * x[i]
	}
	for i := 0; i < s.Nrows; i++ {
		for k := s.Ptr[i]; k < s.Ptr[i+1]; k++ {
			j := o.locCol(k)
			y[i] += o.V[k] * x[j]
			if o.Sym && j != i {
				y[j] += o.V[k] * x[i]
			}
		}
	}
}

// RowExtra returns the global column ids and the coefficients of the
// extra-diagonal entries of row i
func (o *MSR) RowExtra(i int) ([]int64, []float64) {
	return o.Str.Row(i), o.V[o.Str.Ptr[i]:o.Str.Ptr[i+1]]
}

// ForEachExtra calls fcn for each stored extra-diagonal entry, expanding
// the symmetric storage into both triangles
func (o *MSR) ForEachExtra(fcn func(i, j int, v float64)) {
	s := o.Str
	for i := 0; i < s.Nrows; i++ {
		for k := s.Ptr[i]; k < s.Ptr[i+1]; k++ {
			j := o.locCol(k)
			fcn(i, j, o.V[k])
			if o.Sym && j != i {
				fcn(j, i, o.V[k])
			}
		}
	}
}

// ToTriplet converts the matrix to triplet form for the direct sparse
// solvers
func (o *MSR) ToTriplet() (t *la.Triplet) {
	n := o.Str.Nrows
	nnz := n + len(o.V)
	if o.Sym {
		nnz += len(o.V)
	}
	t = new(la.Triplet)
	t.Init(n, n, nnz)
	for i := 0; i < n; i++ {
		t.Put(i, i, o.D[i])
	}
	o.ForEachExtra(func(i, j int, v float64) {
		t.Put(i, j, v)
	})
	return
}
