// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msh

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func init() {
	io.Verbose = false
}

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

func Test_grid01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("grid01. counts and geometry")

	m := NewGrid(3, 2, 1, 3, 2, 1)
	m.CheckConsistency()

	chk.IntAssert(m.Ncells, 6)
	chk.IntAssert(m.NiFaces, 7)  // 4 x-normal + 3 y-normal
	chk.IntAssert(m.NbFaces, 22) // 4 + 6 + 12
	chk.IntAssert(m.Nfaces, 29)

	for c := 0; c < m.Ncells; c++ {
		chk.Scalar(tst, io.Sf("vol %d", c), 1e-15, m.CellVol[c], 1)
		chk.IntAssert(m.C2f.Deg(c), 6)
	}
	for f := 0; f < m.Nfaces; f++ {
		chk.Scalar(tst, io.Sf("area %d", f), 1e-15, m.FaceArea[f], 1)
		n := m.FaceNormal[3*f : 3*f+3]
		nrm := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		chk.Scalar(tst, io.Sf("|n| %d", f), 1e-15, nrm, 1)
	}
}

func Test_grid02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("grid02. adjacency consistency")

	m := NewGrid(2, 2, 2, 1, 1, 1)
	m.CheckConsistency()

	// face-cell adjacency against the oriented maps
	for f := 0; f < m.Nfaces; f++ {
		row := m.F2c.Row(f)
		if f < m.NiFaces {
			chk.IntAssert(len(row), 2)
			a, b := m.IfaceCells[f][0], m.IfaceCells[f][1]
			if !(row[0] == a && row[1] == b) && !(row[0] == b && row[1] == a) {
				tst.Errorf("face %d: F2c %v does not match i_face_cells (%d,%d)\n", f, row, a, b)
				return
			}
		} else {
			chk.IntAssert(len(row), 1)
			chk.IntAssert(row[0], m.BfaceCells[f-m.NiFaces])
		}
	}

	// every cell sees its faces back
	for c := 0; c < m.Ncells; c++ {
		for _, f := range m.C2f.Row(c) {
			found := false
			for _, cc := range m.F2c.Row(f) {
				if cc == c {
					found = true
				}
			}
			if !found {
				tst.Errorf("cell %d: face %d does not see the cell back\n", c, f)
				return
			}
		}
	}

	// face neighbourhood excludes the face itself and is symmetric
	for f := 0; f < m.Nfaces; f++ {
		for _, g := range m.F2f.Row(f) {
			if g == f {
				tst.Errorf("face %d appears in its own neighbourhood\n", f)
				return
			}
			back := false
			for _, h := range m.F2f.Row(g) {
				if h == f {
					back = true
				}
			}
			if !back {
				tst.Errorf("face neighbourhood is not symmetric: %d -> %d\n", f, g)
				return
			}
		}
	}
}

func Test_grid03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("grid03. closed cells")

	// the outward area vectors of a closed cell sum to zero
	m := NewGrid(3, 3, 3, 2, 1, 1)
	for c := 0; c < m.Ncells; c++ {
		var sum [3]float64
		for _, f := range m.C2f.Row(c) {
			sign := 1.0
			if f < m.NiFaces && m.IfaceCells[f][1] == c {
				sign = -1
			}
			for d := 0; d < 3; d++ {
				sum[d] += sign * m.FaceArea[f] * m.FaceNormal[3*f+d]
			}
		}
		for d := 0; d < 3; d++ {
			chk.Scalar(tst, io.Sf("cell %d sum[%d]", c, d), 1e-14, sum[d], 0)
		}
	}
}

func Test_read01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("read01. mesh file round trip")

	m := NewGrid(2, 1, 1, 2, 1, 1)
	b, err := json.Marshal(m)
	if err != nil {
		tst.Errorf("cannot encode mesh: %v\n", err)
		return
	}
	io.WriteStringToFileD("/tmp/gofvm/msh", "grid211.msh", string(b))

	r, err := ReadMesh("/tmp/gofvm/msh", "grid211.msh")
	if err != nil {
		tst.Errorf("cannot read mesh back:\n%v", err)
		return
	}
	chk.IntAssert(r.Ncells, m.Ncells)
	chk.IntAssert(r.NcellsWithGhost, m.Ncells)
	chk.IntAssert(r.Nfaces, m.Nfaces)
	chk.IntAssert(r.NiFaces, m.NiFaces)
	chk.Vector(tst, "areas", 1e-15, r.FaceArea, m.FaceArea)
	chk.Ints(tst, "c2f", r.C2f.Ids, m.C2f.Ids)

	_, err = ReadMesh("/tmp/gofvm/msh", "missing.msh")
	if err == nil {
		tst.Errorf("missing mesh file must be reported\n")
	}
}
