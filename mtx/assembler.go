// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mtx

import (
	"sort"

	"github.com/cpmech/gosl/chk"
)

// Structure holds the finalized sparsity of the rows owned by this
// processor. Columns are stored as global ids, sorted within each row.
// When SepDiag is true the diagonal entries are implicit and excluded
// from the column lists
type Structure struct {
	Nrows   int      // number of owned rows
	LRange  [2]int64 // global ids of owned rows: [LRange[0], LRange[1])
	SepDiag bool     // diagonal kept apart from the extra-diagonal part
	Ptr     []int    // [Nrows+1] start of each row in Cols
	Cols    []int64  // sorted global column ids, per row
}

// Nnz returns the number of stored extra-diagonal entries
func (o *Structure) Nnz() int { return len(o.Cols) }

// Deg returns the number of stored entries in row i
func (o *Structure) Deg(i int) int { return o.Ptr[i+1] - o.Ptr[i] }

// Row returns the sorted global column ids of row i
func (o *Structure) Row(i int) []int64 { return o.Cols[o.Ptr[i]:o.Ptr[i+1]] }

// FindCol returns the position in Cols of entry (i, gcol), or -1 when the
// entry is not part of the structure
func (o *Structure) FindCol(i int, gcol int64) int {
	row := o.Row(i)
	k := sort.Search(len(row), func(j int) bool { return row[j] >= gcol })
	if k < len(row) && row[k] == gcol {
		return o.Ptr[i] + k
	}
	return -1
}

// Assembler accumulates (global row, global column) couples and turns them
// into a Structure. Duplicate couples may be pushed freely; they are
// coalesced during Compute
type Assembler struct {

	// input
	LRange  [2]int64 // owned global row range
	SepDiag bool     // exclude diagonal entries from the structure

	// staging
	grows []int64
	gcols []int64

	// results
	Str  *Structure // nil until Compute is called
	done bool
}

// NewAssembler creates an assembler for the owned row range [lo, hi)
func NewAssembler(lo, hi int64, sepDiag bool) (o *Assembler) {
	if hi < lo {
		chk.Panic("assembler: invalid row range [%d, %d)", lo, hi)
	}
	o = new(Assembler)
	o.LRange = [2]int64{lo, hi}
	o.SepDiag = sepDiag
	return
}

// AddGIDs pushes the couples (grows[i], gcols[i]) into the staging lists.
// Rows outside the owned range are silently skipped: they belong to another
// processor and will be pushed there
func (o *Assembler) AddGIDs(grows, gcols []int64) {
	if o.done {
		chk.Panic("assembler: cannot add ids after Compute")
	}
	if len(grows) != len(gcols) {
		chk.Panic("assembler: len(grows)=%d must equal len(gcols)=%d", len(grows), len(gcols))
	}
	for k, gi := range grows {
		if gi < o.LRange[0] || gi >= o.LRange[1] {
			continue
		}
		gj := gcols[k]
		if o.SepDiag && gi == gj {
			continue
		}
		o.grows = append(o.grows, gi)
		o.gcols = append(o.gcols, gj)
	}
}

// AddBlockGIDs pushes the full grows x gcols tensor product, the usual
// pattern when assembling one element or one cell stencil
func (o *Assembler) AddBlockGIDs(grows, gcols []int64) {
	for _, gi := range grows {
		if gi < o.LRange[0] || gi >= o.LRange[1] {
			continue
		}
		for _, gj := range gcols {
			if o.SepDiag && gi == gj {
				continue
			}
			o.grows = append(o.grows, gi)
			o.gcols = append(o.gcols, gj)
		}
	}
}

// Compute coalesces the staged couples into the final Structure. The
// assembler cannot be reused afterwards
func (o *Assembler) Compute() *Structure {
	if o.done {
		return o.Str
	}
	n := int(o.LRange[1] - o.LRange[0])
	rows := make([][]int64, n)
	for k, gi := range o.grows {
		i := int(gi - o.LRange[0])
		rows[i] = append(rows[i], o.gcols[k])
	}
	o.grows, o.gcols = nil, nil
	s := new(Structure)
	s.Nrows = n
	s.LRange = o.LRange
	s.SepDiag = o.SepDiag
	s.Ptr = make([]int, n+1)
	for i := 0; i < n; i++ {
		r := rows[i]
		sort.Slice(r, func(a, b int) bool { return r[a] < r[b] })
		m := 0
		for k := range r { // dedup in place
			if k == 0 || r[k] != r[k-1] {
				r[m] = r[k]
				m++
			}
		}
		rows[i] = r[:m]
		s.Ptr[i+1] = s.Ptr[i] + m
	}
	s.Cols = make([]int64, s.Ptr[n])
	for i := 0; i < n; i++ {
		copy(s.Cols[s.Ptr[i]:], rows[i])
	}
	o.Str = s
	o.done = true
	return s
}
