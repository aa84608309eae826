// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package msh implements the read-only mesh view consumed by the solver
// core: entity counts, face/cell adjacencies and geometric quantities of a
// cell-centered / face-based finite volume discretization
package msh

import (
	"encoding/json"

	"github.com/cpmech/gofvm/dof"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Adjacency holds a graph in compressed-row form: the entities adjacent to
// entity i are Ids[Idx[i]:Idx[i+1]]
type Adjacency struct {
	Idx []int // [n+1] index ranges
	Ids []int // [Idx[n]] adjacent entity ids
}

// Deg returns the number of entities adjacent to i
func (o *Adjacency) Deg(i int) int { return o.Idx[i+1] - o.Idx[i] }

// Row returns the entities adjacent to i
func (o *Adjacency) Row(i int) []int { return o.Ids[o.Idx[i]:o.Idx[i+1]] }

// Mesh holds the mesh view required by the saddle-point solver core. Faces
// are ordered with the interior faces first: face ids in [0,NifInterior)
// are interior and ids in [NifInterior,Nfaces) lie on the boundary
type Mesh struct {

	// counts
	Ncells          int // number of cells owned by this processor
	NcellsWithGhost int // cells including the ghost layer of neighbouring partitions
	Nfaces          int // number of faces (interior first, then boundary)
	NiFaces         int // number of interior faces
	NbFaces         int // number of boundary faces

	// adjacencies
	F2f *Adjacency // face -> neighbour faces (faces sharing a cell; diagonal excluded)
	F2c *Adjacency // face -> incident cells (1 or 2)
	C2f *Adjacency // cell -> faces

	// oriented face-cell maps
	IfaceCells [][2]int // [NiFaces] (cell_i, cell_j) adjacent to each interior face
	BfaceCells []int    // [NbFaces] cell adjacent to each boundary face

	// geometric quantities
	FaceNormal []float64 // [3*Nfaces] unit normals
	FaceArea   []float64 // [Nfaces] areas
	CellVol    []float64 // [NcellsWithGhost] volumes
	CellCentre []float64 // [3*Ncells] centres

	// parallel data
	FaceItf *dof.InterfaceSet // single-component face interface set (may be nil)
}

// CheckConsistency panics if the mesh view is not self-consistent. This is a
// setup-time check only; the solve path trusts the mesh
func (o *Mesh) CheckConsistency() {
	if o.Nfaces != o.NiFaces+o.NbFaces {
		chk.Panic("inconsistent face counts: %d != %d + %d", o.Nfaces, o.NiFaces, o.NbFaces)
	}
	if len(o.IfaceCells) != o.NiFaces {
		chk.Panic("i_face_cells has wrong length: %d != %d", len(o.IfaceCells), o.NiFaces)
	}
	if len(o.BfaceCells) != o.NbFaces {
		chk.Panic("b_face_cells has wrong length: %d != %d", len(o.BfaceCells), o.NbFaces)
	}
	if len(o.FaceNormal) != 3*o.Nfaces || len(o.FaceArea) != o.Nfaces {
		chk.Panic("face quantities have wrong length")
	}
	if len(o.CellVol) < o.Ncells {
		chk.Panic("cell volumes have wrong length: %d < %d", len(o.CellVol), o.Ncells)
	}
}

// ReadMesh reads a mesh from a JSON (.msh) file
func ReadMesh(dir, fn string) (o *Mesh, err error) {
	b, err := io.ReadFile(io.Sf("%s/%s", dir, fn))
	if err != nil {
		return nil, chk.Err("msh: cannot read mesh file %q", fn)
	}
	o = new(Mesh)
	err = json.Unmarshal(b, o)
	if err != nil {
		return nil, chk.Err("msh: cannot unmarshal mesh file %q:\n%v", fn, err)
	}
	if o.NcellsWithGhost == 0 {
		o.NcellsWithGhost = o.Ncells
	}
	o.CheckConsistency()
	return
}
