// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msh

import (
	"sort"

	"github.com/cpmech/gosl/chk"
)

// NewGrid builds a structured hexahedral mesh over the box [0,lx]×[0,ly]×[0,lz]
// with nx×ny×nz cells. The face ordering follows the mesh convention:
// interior faces first, boundary faces afterwards
func NewGrid(nx, ny, nz int, lx, ly, lz float64) (o *Mesh) {

	if nx < 1 || ny < 1 || nz < 1 {
		chk.Panic("grid needs at least one cell per direction. nx=%d ny=%d nz=%d", nx, ny, nz)
	}

	dx, dy, dz := lx/float64(nx), ly/float64(ny), lz/float64(nz)
	ncells := nx * ny * nz
	cid := func(i, j, k int) int { return i + nx*(j+ny*k) }

	// enumerate faces per direction; a face is interior when it separates
	// two cells
	type face struct {
		ci, cj int     // incident cells; cj < 0 on the boundary
		nrm    [3]float64
		area   float64
	}
	var ifaces, bfaces []face

	addFace := func(ci, cj, dir int, sgn, area float64) {
		var f face
		f.ci, f.cj = ci, cj
		f.nrm[dir] = sgn
		f.area = area
		if cj >= 0 {
			ifaces = append(ifaces, f)
		} else {
			bfaces = append(bfaces, f)
		}
	}

	// x-normal faces
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i <= nx; i++ {
				switch {
				case i == 0:
					addFace(cid(0, j, k), -1, 0, -1, dy*dz)
				case i == nx:
					addFace(cid(nx-1, j, k), -1, 0, 1, dy*dz)
				default:
					addFace(cid(i-1, j, k), cid(i, j, k), 0, 1, dy*dz)
				}
			}
		}
	}

	// y-normal faces
	for k := 0; k < nz; k++ {
		for i := 0; i < nx; i++ {
			for j := 0; j <= ny; j++ {
				switch {
				case j == 0:
					addFace(cid(i, 0, k), -1, 1, -1, dx*dz)
				case j == ny:
					addFace(cid(i, ny-1, k), -1, 1, 1, dx*dz)
				default:
					addFace(cid(i, j-1, k), cid(i, j, k), 1, 1, dx*dz)
				}
			}
		}
	}

	// z-normal faces
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			for k := 0; k <= nz; k++ {
				switch {
				case k == 0:
					addFace(cid(i, j, 0), -1, 2, -1, dx*dy)
				case k == nz:
					addFace(cid(i, j, nz-1), -1, 2, 1, dx*dy)
				default:
					addFace(cid(i, j, k-1), cid(i, j, k), 2, 1, dx*dy)
				}
			}
		}
	}

	// assemble the mesh view
	o = new(Mesh)
	o.Ncells = ncells
	o.NcellsWithGhost = ncells
	o.NiFaces = len(ifaces)
	o.NbFaces = len(bfaces)
	o.Nfaces = o.NiFaces + o.NbFaces

	o.IfaceCells = make([][2]int, o.NiFaces)
	o.BfaceCells = make([]int, o.NbFaces)
	o.FaceNormal = make([]float64, 3*o.Nfaces)
	o.FaceArea = make([]float64, o.Nfaces)

	c2fmap := make([][]int, ncells)
	addC2f := func(c, f int) { c2fmap[c] = append(c2fmap[c], f) }

	for f, fc := range ifaces {
		o.IfaceCells[f] = [2]int{fc.ci, fc.cj}
		for d := 0; d < 3; d++ {
			o.FaceNormal[3*f+d] = fc.nrm[d]
		}
		o.FaceArea[f] = fc.area
		addC2f(fc.ci, f)
		addC2f(fc.cj, f)
	}
	for b, fc := range bfaces {
		f := o.NiFaces + b
		o.BfaceCells[b] = fc.ci
		for d := 0; d < 3; d++ {
			o.FaceNormal[3*f+d] = fc.nrm[d]
		}
		o.FaceArea[f] = fc.area
		addC2f(fc.ci, f)
	}

	// geometric quantities at cells
	o.CellVol = make([]float64, ncells)
	o.CellCentre = make([]float64, 3*ncells)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				c := cid(i, j, k)
				o.CellVol[c] = dx * dy * dz
				o.CellCentre[3*c] = (float64(i) + 0.5) * dx
				o.CellCentre[3*c+1] = (float64(j) + 0.5) * dy
				o.CellCentre[3*c+2] = (float64(k) + 0.5) * dz
			}
		}
	}

	// cell -> face adjacency
	o.C2f = buildAdjacency(ncells, func(c int) []int { return c2fmap[c] })

	// face -> cell adjacency
	o.F2c = buildAdjacency(o.Nfaces, func(f int) []int {
		if f < o.NiFaces {
			return []int{o.IfaceCells[f][0], o.IfaceCells[f][1]}
		}
		return []int{o.BfaceCells[f-o.NiFaces]}
	})

	// face -> face adjacency: faces sharing a cell, self excluded
	o.F2f = buildAdjacency(o.Nfaces, func(f int) []int {
		var nbs []int
		for _, c := range o.F2c.Row(f) {
			for _, g := range o.C2f.Row(c) {
				if g != f {
					nbs = append(nbs, g)
				}
			}
		}
		sort.Ints(nbs)
		// remove duplicates (two faces may share both cells on periodic
		// meshes; harmless to keep the scan general)
		out := nbs[:0]
		for i, g := range nbs {
			if i == 0 || g != nbs[i-1] {
				out = append(out, g)
			}
		}
		return out
	})

	o.CheckConsistency()
	return
}

// buildAdjacency assembles a compressed-row adjacency from a per-entity row
// function
func buildAdjacency(n int, row func(i int) []int) (adj *Adjacency) {
	adj = new(Adjacency)
	adj.Idx = make([]int, n+1)
	for i := 0; i < n; i++ {
		r := row(i)
		adj.Idx[i+1] = adj.Idx[i] + len(r)
		adj.Ids = append(adj.Ids, r...)
	}
	return
}
