// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package dof implements the numbering of degrees-of-freedom shared by
// neighbouring processors: interface sets identify equal DoFs across ranks
// and range sets map the local (scatter) numbering, ghosts included, onto a
// globally unique contiguous (gather) numbering
package dof

// InterfaceSet holds the identification of local DoFs with DoFs living on
// other processors. Each entry is a triple (rank, here, there): the DoF with
// local id 'here' on this processor is the same as the DoF with local id
// 'there' on processor 'rank'
type InterfaceSet struct {
	N     int   // span of local ids referenced by this set
	Ranks []int // [nshared] other processor
	Here  []int // [nshared] local id on this processor
	There []int // [nshared] local id on the other processor
}

// NewInterfaceSet returns a new (empty) interface set spanning n local DoFs
func NewInterfaceSet(n int) *InterfaceSet {
	return &InterfaceSet{N: n}
}

// Add appends one identification triple
func (o *InterfaceSet) Add(rank, here, there int) {
	o.Ranks = append(o.Ranks, rank)
	o.Here = append(o.Here, here)
	o.There = append(o.There, there)
}

// Len returns the number of identification triples
func (o *InterfaceSet) Len() int { return len(o.Here) }

// DupBlocks duplicates a single-component interface set 'stride' times
// assuming a blocked layout of the unknowns; i.e. component c of element i is
// stored at c*nElem + i. This is the layout of the combined saddle-point
// block where the three velocity components are stored one after another
func (o *InterfaceSet) DupBlocks(nElem, stride int) *InterfaceSet {
	dup := NewInterfaceSet(stride * nElem)
	for k := 0; k < o.Len(); k++ {
		for c := 0; c < stride; c++ {
			dup.Add(o.Ranks[k], o.Here[k]+c*nElem, o.There[k]+c*nElem)
		}
	}
	return dup
}

// DupInterlaced duplicates a single-component interface set 'stride' times
// assuming an interlaced layout; i.e. component c of element i is stored at
// stride*i + c. This is the layout of the (1,1)-block of the saddle-point
// system where the three velocity components of a face sit side by side
func (o *InterfaceSet) DupInterlaced(stride int) *InterfaceSet {
	dup := NewInterfaceSet(stride * o.N)
	for k := 0; k < o.Len(); k++ {
		for c := 0; c < stride; c++ {
			dup.Add(o.Ranks[k], stride*o.Here[k]+c, stride*o.There[k]+c)
		}
	}
	return dup
}
