// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saddle

import (
	"github.com/cpmech/gofvm/dof"
	"github.com/cpmech/gofvm/msh"
	"github.com/cpmech/gofvm/mtx"
	"github.com/cpmech/gofvm/sles"
	"github.com/cpmech/gosl/chk"
)

// GetM11InvDiag returns the pointwise inverse of the diagonal of the
// velocity block in scatter view: the gather-view diagonal is inverted and
// scattered back, ghosts included. The inversion is done per scalar row,
// so the stride-3 layout of the block needs no special care
func GetM11InvDiag(m11 mtx.Matrix, rs *dof.RangeSet) (inv []float64) {
	d := m11.Diag()
	ga := make([]float64, len(d))
	for i, v := range d {
		if v != 0 {
			ga[i] = 1.0 / v
		} else {
			ga[i] = 1.0
		}
	}
	inv = make([]float64, rs.N)
	rs.Scatter(1, ga, inv)
	return
}

// GetM22ScaledDiagMassMatrix returns the diagonal of the scaled pressure
// mass matrix: the cell viscosity divided by the cell volume
func GetM22ScaledDiagMassMatrix(m *msh.Mesh, visc []float64) (diag []float64) {
	diag = make([]float64, m.Ncells)
	for c := 0; c < m.Ncells; c++ {
		diag[c] = visc[c] / m.CellVol[c]
	}
	return
}

// SchurScaling returns the coefficient multiplying the Schur matrix in the
// mass-scaled approximations: the reference density times the inverse time
// step, or a viscosity-based surrogate for steady computations
func SchurScaling(rho0, muRef, dt float64, steady bool) float64 {
	if steady {
		return rho0 * 0.01 * muRef
	}
	return rho0 / dt
}

// SchurMatrixFromM11InvApprox builds the approximate Schur matrix
// S ~ M21 * D * M12 with D a per-face-component diagonal approximation of
// the inverse of the velocity block, indexed as D[3*face+k]. The result is
// a native cell matrix with one coefficient per side of each interior face
func SchurMatrixFromM11InvApprox(m *msh.Mesh, D []float64) *mtx.Native {
	if len(D) < 3*m.Nfaces {
		chk.Panic("schur: len(D)=%d must cover the %d face components", len(D), 3*m.Nfaces)
	}
	diag := make([]float64, m.NcellsWithGhost)
	xtra := make([]float64, 2*m.NiFaces)

	for f := 0; f < m.NiFaces; f++ {
		a := m.FaceArea[f]
		nx := m.FaceNormal[3*f]
		ny := m.FaceNormal[3*f+1]
		nz := m.FaceNormal[3*f+2]
		contrib := -a * a * (D[3*f]*nx*nx + D[3*f+1]*ny*ny + D[3*f+2]*nz*nz)
		xtra[2*f] = contrib
		xtra[2*f+1] = contrib
		ci, cj := m.IfaceCells[f][0], m.IfaceCells[f][1]
		diag[ci] -= contrib
		diag[cj] -= contrib
	}
	for fb := 0; fb < m.NbFaces; fb++ {
		f := m.NiFaces + fb
		a := m.FaceArea[f]
		nx := m.FaceNormal[3*f]
		ny := m.FaceNormal[3*f+1]
		nz := m.FaceNormal[3*f+2]
		contrib := a * a * (D[3*f]*nx*nx + D[3*f+1]*ny*ny + D[3*f+2]*nz*nz)
		diag[m.BfaceCells[fb]] += contrib
	}

	// registered as non-symmetric even though both sides match
	S := mtx.NewNative(false)
	S.SetMeshAssociation(m.Ncells, m.NcellsWithGhost, m.NiFaces, m.IfaceCells)
	S.SetCoefficients(diag, xtra)
	return S
}

// schurApply applies the inverse of the selected Schur approximation to a
// pressure-space residual: z2 := S^{-1} * r2. The mass-scaled variants
// combine the scaled mass diagonal with a solve on the assembled Schur
// matrix, Cahouet-Chabard style
type schurApply struct {
	kind     SchurT
	massDiag []float64   // scaled mass diagonal, mu/V
	scaling  float64     // coefficient of the Schur solve in combined variants
	mat      *mtx.Native // assembled approximation, when the kind needs one
	handle   *sles.Handle
	work     []float64
}

// newSchurApply prepares the application of the approximation named in pa.
// massDiag and S may be nil when the kind does not need them
func newSchurApply(pa *Param, massDiag []float64, scaling float64, S *mtx.Native) (o *schurApply, err error) {
	o = new(schurApply)
	o.kind = pa.Schur
	o.massDiag = massDiag
	o.scaling = scaling
	o.mat = S
	switch pa.Schur {
	case SchurMassScaled, SchurMassScaledDiagInv, SchurMassScaledLumpedInv:
		if massDiag == nil {
			return nil, chk.Err("saddle %q: mass-scaled approximation needs the mass diagonal", pa.Name)
		}
	}
	switch pa.Schur {
	case SchurDiagInv, SchurLumpedInv, SchurMassScaledDiagInv, SchurMassScaledLumpedInv:
		if S == nil {
			return nil, chk.Err("saddle %q: approximation needs the assembled Schur matrix", pa.Name)
		}
		if pa.SchurSles == nil {
			return nil, chk.Err("saddle %q: schur solver settings are missing", pa.Name)
		}
		o.handle = &sles.Handle{Pa: pa.SchurSles}
		o.work = make([]float64, S.Nrows())
	}
	return
}

// apply computes z2 := S^{-1} r2 and returns the inner iterations spent
func (o *schurApply) apply(z2, r2 []float64) (nit int, err error) {
	switch o.kind {
	case NoSchur, SchurIdentity:
		copy(z2, r2)
	case SchurMassScaled:
		for i := range z2 {
			z2[i] = o.massDiag[i] * r2[i]
		}
	case SchurDiagInv, SchurLumpedInv:
		for i := range z2 {
			z2[i] = 0
		}
		nit, _, err = o.handle.Solve(o.mat, z2, r2, 0)
	case SchurMassScaledDiagInv, SchurMassScaledLumpedInv:
		for i := range o.work {
			o.work[i] = 0
		}
		nit, _, err = o.handle.Solve(o.mat, o.work, r2, 0)
		for i := range z2 {
			z2[i] = o.massDiag[i]*r2[i] + o.scaling*o.work[i]
		}
	default:
		err = chk.Err("saddle: unknown schur approximation %d", o.kind)
	}
	return
}
