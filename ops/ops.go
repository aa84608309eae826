// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ops builds reference finite-volume operators of the Stokes
// problem on a mesh: the discrete divergence along the cell-face adjacency
// and a symmetric positive definite velocity operator on the face
// unknowns. The discretization is deliberately plain; it feeds the
// saddle-point solvers with systems carrying the right structure
package ops

import (
	"github.com/cpmech/gofvm/msh"
	"github.com/cpmech/gofvm/mtx"
)

// DivergenceCoefs returns the coefficients of the discrete divergence: for
// each (cell, face) couple of the cell-face adjacency, 3 values equal to
// the face area times the outward unit normal components
func DivergenceCoefs(m *msh.Mesh) (vals []float64) {
	vals = make([]float64, 3*len(m.C2f.Ids))
	for c := 0; c < m.Ncells; c++ {
		row := m.C2f.Row(c)
		for i, f := range row {
			sign := 1.0
			if f < m.NiFaces && m.IfaceCells[f][1] == c {
				sign = -1 // normal points out of the first adjacent cell
			}
			p := 3 * (m.C2f.Idx[c] + i)
			a := m.FaceArea[f]
			vals[p] = sign * a * m.FaceNormal[3*f]
			vals[p+1] = sign * a * m.FaceNormal[3*f+1]
			vals[p+2] = sign * a * m.FaceNormal[3*f+2]
		}
	}
	return
}

// FillVelocityBlock assembles a symmetric positive definite velocity
// operator into M11: a face mass lump scaled by massCoef plus mu times the
// grad-div product of the divergence coefficients, which couples the faces
// sharing a cell and fits the face-neighborhood structure exactly
func FillVelocityBlock(m *msh.Mesh, M11 *mtx.MSR, divVals []float64, mu, massCoef float64) {
	M11.Start()
	for f := 0; f < m.Nfaces; f++ {
		for k := 0; k < 3; k++ {
			g := int64(3*f + k)
			M11.AddValue(g, g, massCoef*m.FaceArea[f])
		}
	}
	for c := 0; c < m.Ncells; c++ {
		row := m.C2f.Row(c)
		for i, f := range row {
			p := 3 * (m.C2f.Idx[c] + i)
			for j, g := range row {
				q := 3 * (m.C2f.Idx[c] + j)
				for k := 0; k < 3; k++ {
					for l := 0; l < 3; l++ {
						v := mu * divVals[p+k] * divVals[q+l] / m.CellVol[c]
						if v != 0 {
							M11.AddValue(int64(3*f+k), int64(3*g+l), v)
						}
					}
				}
			}
		}
	}
}
