// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saddle

import (
	"github.com/cpmech/gofvm/blas"
	"github.com/cpmech/gosl/la"
)

// m12ByFace returns the gradient coefficients aligned with the face-cell
// adjacency: for each face f and incident cell c, the 3 coefficients of
// the couple, gathered from the cell-face storage
func (o *Solver) m12ByFace() []float64 {
	m := o.Sh.M
	out := make([]float64, 3*len(m.F2c.Ids))
	for c := 0; c < m.Ncells; c++ {
		row := m.C2f.Row(c)
		for i, f := range row {
			p := 3 * (m.C2f.Idx[c] + i)
			frow := m.F2c.Row(f)
			for j, cc := range frow {
				if cc == c {
					q := 3 * (m.F2c.Idx[f] + j)
					out[q] = o.Sh.M21Vals[p]
					out[q+1] = o.Sh.M21Vals[p+1]
					out[q+2] = o.Sh.M21Vals[p+2]
					break
				}
			}
		}
	}
	return out
}

// solveNotay applies the algebraic transformation of Notay to the combined
// system and hands the result to the direct backend. The transformation
// left-multiplies by [I 0; -alpha*M21*Dinv I] with D the diagonal of the
// velocity block, concentrating the pressure coupling so that a
// single-block method can digest the system. With alpha = 0 the
// transformation is the identity
func (o *Solver) solveNotay(x1, x2, b1, b2 []float64) (err error) {
	ctx := o.Pa.Ctx.(*NotayCtx)
	alpha := ctx.ScalingCoef
	h := o.Sh
	m := h.M
	n1 := o.N1
	n := n1 + o.N2

	D := h.M11.Diag()
	m12f := o.m12ByFace()

	// staging lists for the transformed matrix
	var ti, tj []int
	var tv []float64
	put := func(i, j int, v float64) {
		if v != 0 {
			ti = append(ti, i)
			tj = append(tj, j)
			tv = append(tv, v)
		}
	}

	// velocity rows are untouched: M11 and the gradient couplings
	for i := 0; i < n1; i++ {
		put(i, i, D[i])
	}
	h.M11.ForEachExtra(func(i, j int, v float64) {
		put(i, j, v)
	})
	for f := 0; f < m.Nfaces; f++ {
		frow := m.F2c.Row(f)
		for j, c := range frow {
			q := 3 * (m.F2c.Idx[f] + j)
			for k := 0; k < 3; k++ {
				put(3*f+k, n1+c, m12f[q+k])
			}
		}
	}

	// pressure rows: M21 row minus alpha times the Dinv-scaled combination
	// of the velocity rows seen by the cell
	b2t := make([]float64, o.N2)
	rowmap := make(map[int]float64)
	for c := 0; c < o.N2; c++ {
		for k := range rowmap {
			delete(rowmap, k)
		}
		bacc := b2[c]
		crow := m.C2f.Row(c)
		for i, f := range crow {
			p := 3 * (m.C2f.Idx[c] + i)
			for k := 0; k < 3; k++ {
				val := h.M21Vals[p+k]
				row := 3*f + k
				rowmap[row] += val
				if alpha == 0 || val == 0 {
					continue
				}
				cv := alpha * val / D[row]
				bacc -= cv * b1[row]

				// minus cv times velocity row: diagonal, extras and the
				// gradient couplings of that row
				rowmap[row] -= cv * D[row]
				cols, vals := h.M11.RowExtra(row)
				for e, gj := range cols {
					rowmap[int(gj)] -= cv * vals[e]
				}
				frow := m.F2c.Row(f)
				for j, cc := range frow {
					q := 3 * (m.F2c.Idx[f] + j)
					rowmap[n1+cc] -= cv * m12f[q+k]
				}
			}
		}
		if h.AddPressureDiag && h.PressureDiag != nil {
			rowmap[n1+c] += h.PressureDiag[c]
		}
		for j, v := range rowmap {
			put(n1+c, j, v)
		}
		b2t[c] = bacc
	}

	t := new(la.Triplet)
	t.Init(n, n, len(tv))
	for k := range tv {
		t.Put(ti[k], tj[k], tv[k])
	}

	x := make([]float64, n)
	b := make([]float64, n)
	copy(b[:n1], b1)
	copy(b[n1:], b2t)
	o.Algo.SetNormalization(blas.Norm(b))

	if err = o.directSolve(t, x, b); err != nil {
		o.Algo.CvgStatus = Diverged
		return
	}
	copy(x1, x[:n1])
	copy(x2, x[n1:])
	o.Algo.AddInner(1)
	o.Algo.Update(o.residualFull(x1, x2, b1, b2))
	return
}
