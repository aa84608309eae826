// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saddle

import (
	"github.com/cpmech/gofvm/blas"
	"github.com/cpmech/gofvm/dof"
	"github.com/cpmech/gofvm/msh"
	"github.com/cpmech/gofvm/mtx"
	"github.com/cpmech/gosl/chk"
)

// Helper builds and owns the sparsity of the saddle system. Two layouts
// are supported: two coupled blocks, with the velocity block assembled and
// the divergence block kept unassembled along the cell-face adjacency, and
// one combined block gathering velocities and pressures for the
// full-system solvers
type Helper struct {

	// input
	M        *msh.Mesh
	Pa       *Param
	Combined bool // combined layout also built

	// sizes
	N1 int // velocity scatter dofs: 3 per face
	N2 int // pressure dofs: one per cell

	// velocity block
	Ifs    *dof.InterfaceSet // face interface duplicated per component
	Rset1  *dof.RangeSet
	M11Str *mtx.Structure
	M11    *mtx.MSR

	// divergence block, unassembled: 3 coefficients per (cell, face) couple
	// of the cell-face adjacency
	M21Vals []float64

	// combined block
	RsetX *dof.RangeSet
	MxStr *mtx.Structure
	Mx    *mtx.MSR

	// optional (cell, cell) entries, e.g. for solidified regions
	AddPressureDiag bool
	PressureDiag    []float64 // nil means zero
}

// needsCombined tells whether the algorithm works on the combined matrix
func needsCombined(s SolverT) bool {
	return s == Fgmres || s == NotayT || s == MumpsLU
}

// NewHelper builds the sparsity matching the algorithm selected in pa
func NewHelper(m *msh.Mesh, pa *Param, addPressureDiag bool) (o *Helper) {
	o = new(Helper)
	o.M = m
	o.Pa = pa
	o.N1 = 3 * m.Nfaces
	o.N2 = m.Ncells
	o.AddPressureDiag = addPressureDiag
	o.Combined = needsCombined(pa.Solver)
	o.buildVelocityBlock()
	o.M21Vals = make([]float64, 3*len(m.C2f.Ids))
	if o.Combined {
		o.buildCombinedBlock()
	}
	return
}

// buildVelocityBlock creates the range-set and the assembled structure of
// the (1,1) block: a 3x3 diagonal block per face plus 3x3 couplings to
// every face sharing a cell
func (o *Helper) buildVelocityBlock() {
	m := o.M
	ifs := m.FaceItf
	if ifs == nil {
		ifs = dof.NewInterfaceSet(0)
	}
	o.Ifs = ifs.DupInterlaced(3)
	o.Rset1 = dof.NewRangeSet(o.Ifs, o.N1)

	asm := mtx.NewAssembler(o.Rset1.LRange[0], o.Rset1.LRange[1], true)
	rows := make([]int64, 3)
	cols := make([]int64, 3)
	for f := 0; f < m.Nfaces; f++ {
		for k := 0; k < 3; k++ {
			rows[k] = o.Rset1.GID[3*f+k]
		}
		asm.AddBlockGIDs(rows, rows)
		for _, g := range m.F2f.Row(f) {
			for k := 0; k < 3; k++ {
				cols[k] = o.Rset1.GID[3*g+k]
			}
			asm.AddBlockGIDs(rows, cols)
		}
	}
	o.M11Str = asm.Compute()
	o.M11 = mtx.NewMSR(o.M11Str, false, 3, 3)
}

// buildCombinedBlock creates the structure of the full matrix: velocities
// first (interlaced per face), pressures after. Each face row couples to
// its 3x3 diagonal, the 3x3 blocks of the face neighbors and the incident
// cells; each cell row couples to the faces of the cell
func (o *Helper) buildCombinedBlock() {
	m := o.M
	n := o.N1 + o.N2
	o.RsetX = dof.NewRangeSet(dof.NewInterfaceSet(0), n)

	asm := mtx.NewAssembler(0, int64(n), true)
	rows := make([]int64, 3)
	cols := make([]int64, 3)
	for f := 0; f < m.Nfaces; f++ {
		for k := 0; k < 3; k++ {
			rows[k] = int64(3*f + k)
		}
		asm.AddBlockGIDs(rows, rows)
		for _, g := range m.F2f.Row(f) {
			for k := 0; k < 3; k++ {
				cols[k] = int64(3*g + k)
			}
			asm.AddBlockGIDs(rows, cols)
		}
		for _, c := range m.F2c.Row(f) {
			gc := []int64{int64(o.N1 + c)}
			asm.AddBlockGIDs(rows, gc) // gradient couplings
			asm.AddBlockGIDs(gc, rows) // divergence couplings
		}
	}
	// the (cell, cell) entries of AddPressureDiag live on the MSR diagonal
	// and need no structure registration
	o.MxStr = asm.Compute()
	o.Mx = mtx.NewMSR(o.MxStr, false, 1, 1)
}

// SetM21Values stores the unassembled divergence coefficients. vals must
// hold 3 values per (cell, face) couple of the cell-face adjacency, in the
// adjacency order
func (o *Helper) SetM21Values(vals []float64) {
	if len(vals) != len(o.M21Vals) {
		chk.Panic("helper: len(vals)=%d must equal %d", len(vals), len(o.M21Vals))
	}
	copy(o.M21Vals, vals)
}

// M21Vec computes y2 := M21 * x1, the discrete divergence
func (o *Helper) M21Vec(y2, x1 []float64) {
	m := o.M
	for c := 0; c < m.Ncells; c++ {
		s := 0.0
		row := m.C2f.Row(c)
		for i, f := range row {
			p := 3 * (m.C2f.Idx[c] + i)
			s += o.M21Vals[p]*x1[3*f] + o.M21Vals[p+1]*x1[3*f+1] + o.M21Vals[p+2]*x1[3*f+2]
		}
		y2[c] = s
	}
}

// M12Vec computes y1 := M12 * x2 with M12 = M21 transposed, the discrete
// gradient
func (o *Helper) M12Vec(y1, x2 []float64) {
	m := o.M
	for i := range y1 {
		y1[i] = 0
	}
	for c := 0; c < m.Ncells; c++ {
		row := m.C2f.Row(c)
		for i, f := range row {
			p := 3 * (m.C2f.Idx[c] + i)
			y1[3*f] += o.M21Vals[p] * x2[c]
			y1[3*f+1] += o.M21Vals[p+1] * x2[c]
			y1[3*f+2] += o.M21Vals[p+2] * x2[c]
		}
	}
}

// M12VecAdd computes y1 += alpha * M12 * x2
func (o *Helper) M12VecAdd(y1 []float64, alpha float64, x2 []float64) {
	m := o.M
	for c := 0; c < m.Ncells; c++ {
		row := m.C2f.Row(c)
		ax := alpha * x2[c]
		for i, f := range row {
			p := 3 * (m.C2f.Idx[c] + i)
			y1[3*f] += o.M21Vals[p] * ax
			y1[3*f+1] += o.M21Vals[p+1] * ax
			y1[3*f+2] += o.M21Vals[p+2] * ax
		}
	}
}

// AssembleCombined fills the combined matrix from the velocity block and
// the divergence coefficients. The structure must have been built in
// combined mode
func (o *Helper) AssembleCombined() {
	if !o.Combined {
		chk.Panic("helper: combined layout was not built")
	}
	m := o.M
	o.Mx.Start()

	// velocity block
	d := o.M11.Diag()
	for i := 0; i < o.N1; i++ {
		o.Mx.AddValue(int64(i), int64(i), d[i])
	}
	o.M11.ForEachExtra(func(i, j int, v float64) {
		o.Mx.AddValue(int64(i), int64(j), v)
	})

	// gradient and divergence couplings
	for c := 0; c < m.Ncells; c++ {
		gc := int64(o.N1 + c)
		row := m.C2f.Row(c)
		for i, f := range row {
			p := 3 * (m.C2f.Idx[c] + i)
			for k := 0; k < 3; k++ {
				v := o.M21Vals[p+k]
				gf := int64(3*f + k)
				o.Mx.AddValue(gc, gf, v)
				o.Mx.AddValue(gf, gc, v)
			}
		}
	}

	if o.AddPressureDiag && o.PressureDiag != nil {
		for c := 0; c < m.Ncells; c++ {
			g := int64(o.N1 + c)
			o.Mx.AddValue(g, g, o.PressureDiag[c])
		}
	}
}

// SquareNormB11 returns the square norm of a velocity-space vector,
// counting each owned dof once across processors
func (o *Helper) SquareNormB11(v []float64) float64 {
	return blas.SquareNormRset(v, o.Rset1, 1)
}
