// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dof

import (
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/mpi"
)

// RangeSet maps local DoF indices (scatter view, ghosts included) onto a
// globally unique contiguous numbering (gather view). Invariants:
//  1. every DoF has exactly one owner processor
//  2. Scatter(Gather(a)) == a on owned DoFs
//  3. ghosts appear in the scatter view only
type RangeSet struct {

	// configuration
	N      int  // scatter size: number of local DoFs, ghosts included
	Distr  bool // distributed/parallel run
	Proc   int  // this processor number
	Nprocs int  // number of processors

	// numbering
	GID    []int64  // [N] global id of each local DoF
	Owned  []bool   // [N] whether this processor owns the DoF
	Nowned int      // gather size: number of owned DoFs
	LRange [2]int64 // global range [first, past-end) owned by this processor

	// identification of shared DoFs; nil on a single processor
	Ifs *InterfaceSet

	// derived
	ownIdx    []int         // [Nowned] scatter index of each owned DoF, in gather order
	nbr       []int         // neighbour processors, increasing
	nbrIdx    map[int][]int // triples per neighbour, in the matched pair ordering
	ownerRank []int         // [N] owner processor of each local DoF
}

// NewRangeSet builds a range set over n local DoFs. On a single processor
// the scatter and gather views coincide and the global numbering is the
// identity. On many processors the ownership follows the lowest-rank rule
// applied to the interface set: a shared DoF belongs to the smallest rank
// that sees it
func NewRangeSet(ifs *InterfaceSet, n int) (o *RangeSet) {
	o = new(RangeSet)
	o.N = n
	o.Proc = 0
	o.Nprocs = 1
	if mpi.IsOn() {
		o.Proc = mpi.Rank()
		o.Nprocs = mpi.Size()
		o.Distr = o.Nprocs > 1
	}

	// ownership
	o.Owned = make([]bool, n)
	for i := 0; i < n; i++ {
		o.Owned[i] = true
	}
	if o.Distr && ifs != nil {
		for k := 0; k < ifs.Len(); k++ {
			if ifs.Ranks[k] < o.Proc {
				o.Owned[ifs.Here[k]] = false // lower rank owns it
			}
		}
	}
	for i := 0; i < n; i++ {
		if o.Owned[i] {
			o.Nowned++
		}
	}

	// global numbering: exchange per-processor counts, then number owned
	// DoFs contiguously from this processor's base
	base := int64(0)
	if o.Distr {
		counts := make([]float64, o.Nprocs)
		work := make([]float64, o.Nprocs)
		counts[o.Proc] = float64(o.Nowned)
		mpi.AllReduceSum(counts, work)
		for r := 0; r < o.Proc; r++ {
			base += int64(counts[r])
		}
	}
	o.LRange[0] = base
	o.LRange[1] = base + int64(o.Nowned)

	o.GID = make([]int64, n)
	o.ownIdx = make([]int, 0, o.Nowned)
	gid := base
	for i := 0; i < n; i++ {
		if o.Owned[i] {
			o.GID[i] = gid
			o.ownIdx = append(o.ownIdx, i)
			gid++
		} else {
			o.GID[i] = -1 // resolved below
		}
	}

	// ghost global ids come from the owning processor, exchanged along the
	// identification triples
	if o.Distr && ifs != nil {
		o.buildExchange(ifs)
		o.syncGhostGIDs()
	}
	return
}

// NewRangeSetGlobal builds a range set from an explicit global numbering,
// e.g. the one carried by a partitioned mesh file. gids and owned must have
// the same length. Cross-processor synchronisation additionally needs the
// interface set, attached with SetInterfaceSet
func NewRangeSetGlobal(gids []int64, owned []bool) (o *RangeSet) {
	if len(gids) != len(owned) {
		chk.Panic("global ids and ownership flags must have the same length. %d != %d", len(gids), len(owned))
	}
	o = new(RangeSet)
	o.N = len(gids)
	o.Nprocs = 1
	if mpi.IsOn() {
		o.Proc = mpi.Rank()
		o.Nprocs = mpi.Size()
		o.Distr = o.Nprocs > 1
	}
	o.GID = gids
	o.Owned = owned
	first := int64(-1)
	for i := 0; i < o.N; i++ {
		if owned[i] {
			if first < 0 || gids[i] < first {
				first = gids[i]
			}
			o.Nowned++
			o.ownIdx = append(o.ownIdx, i)
		}
	}
	o.LRange[0] = first
	o.LRange[1] = first + int64(o.Nowned)
	return
}

// SetInterfaceSet attaches the identification of shared DoFs to a range set
// built from an explicit numbering
func (o *RangeSet) SetInterfaceSet(ifs *InterfaceSet) {
	o.buildExchange(ifs)
}

// buildExchange groups the identification triples by neighbour processor
// and fixes a pair-wise ordering both sides agree on: within a pair the
// triples are sorted by the local id on the lower rank, which the lower
// rank reads from Here and the higher one from There
func (o *RangeSet) buildExchange(ifs *InterfaceSet) {
	o.Ifs = ifs
	o.nbrIdx = make(map[int][]int)
	for k := 0; k < ifs.Len(); k++ {
		r := ifs.Ranks[k]
		o.nbrIdx[r] = append(o.nbrIdx[r], k)
	}
	o.nbr = make([]int, 0, len(o.nbrIdx))
	for r := range o.nbrIdx {
		o.nbr = append(o.nbr, r)
	}
	sort.Ints(o.nbr)
	for _, r := range o.nbr {
		idx := o.nbrIdx[r]
		lowSide := ifs.Here
		if r < o.Proc {
			lowSide = ifs.There
		}
		sort.Slice(idx, func(a, b int) bool { return lowSide[idx[a]] < lowSide[idx[b]] })
	}

	// the owner of a shared DoF is the smallest rank seeing it
	o.ownerRank = make([]int, o.N)
	for i := range o.ownerRank {
		o.ownerRank[i] = o.Proc
	}
	for k := 0; k < ifs.Len(); k++ {
		if ifs.Ranks[k] < o.ownerRank[ifs.Here[k]] {
			o.ownerRank[ifs.Here[k]] = ifs.Ranks[k]
		}
	}
}

// exchangePairs swaps the values of the shared DoFs with every neighbour:
// each buffer carries one value per identification triple, in the matched
// pair ordering. The lower rank of each pair sends first
func (o *RangeSet) exchangePairs(stride int, sc []float64) (recv map[int][]float64) {
	recv = make(map[int][]float64, len(o.nbr))
	for _, r := range o.nbr {
		idx := o.nbrIdx[r]
		snd := make([]float64, stride*len(idx))
		rcv := make([]float64, stride*len(idx))
		for j, k := range idx {
			h := o.Ifs.Here[k]
			for c := 0; c < stride; c++ {
				snd[stride*j+c] = sc[stride*h+c]
			}
		}
		if o.Proc < r {
			mpi.DblSend(snd, r)
			mpi.DblRecv(rcv, r)
		} else {
			mpi.DblRecv(rcv, r)
			mpi.DblSend(snd, r)
		}
		recv[r] = rcv
	}
	return
}

// syncGhostGIDs resolves the global ids of ghost DoFs with the value held
// by the owning processor
func (o *RangeSet) syncGhostGIDs() {
	w := make([]float64, o.N)
	for i := 0; i < o.N; i++ {
		w[i] = float64(o.GID[i])
	}
	recv := o.exchangePairs(1, w)
	for _, r := range o.nbr {
		rcv := recv[r]
		for j, k := range o.nbrIdx[r] {
			h := o.Ifs.Here[k]
			if !o.Owned[h] && o.ownerRank[h] == r {
				o.GID[h] = int64(rcv[j])
			}
		}
	}
}

// Gather compacts a scatter-view array into the gather view, keeping owned
// entries only. sc has length stride*N and ga must have length at least
// stride*Nowned. sc and ga may alias the same array
func (o *RangeSet) Gather(stride int, sc, ga []float64) {
	for k, i := range o.ownIdx {
		for c := 0; c < stride; c++ {
			ga[stride*k+c] = sc[stride*i+c]
		}
	}
}

// Scatter spreads a gather-view array back onto the scatter view. Owned
// entries receive their value; ghost entries are overwritten with the
// owner's value. ga and sc may alias the same array provided the loop runs
// backwards over owned entries (which it does)
func (o *RangeSet) Scatter(stride int, ga, sc []float64) {
	for k := o.Nowned - 1; k >= 0; k-- {
		i := o.ownIdx[k]
		for c := 0; c < stride; c++ {
			sc[stride*i+c] = ga[stride*k+c]
		}
	}
	if o.Distr {
		o.SyncGhosts(stride, sc)
	}
}

// SyncGhosts overwrites ghost entries of a scatter-view array with the
// value held by the owning processor
func (o *RangeSet) SyncGhosts(stride int, sc []float64) {
	if !o.Distr {
		return
	}
	if o.Ifs == nil {
		chk.Panic("ghost synchronisation needs the interface set")
	}
	recv := o.exchangePairs(stride, sc)
	for _, r := range o.nbr {
		rcv := recv[r]
		for j, k := range o.nbrIdx[r] {
			h := o.Ifs.Here[k]
			if !o.Owned[h] && o.ownerRank[h] == r {
				for c := 0; c < stride; c++ {
					sc[stride*h+c] = rcv[stride*j+c]
				}
			}
		}
	}
}

// Reduce sums the contributions of the neighbour processors into the shared
// entries of a scatter-view array; e.g. partial right-hand sides assembled
// along shared faces. The interface set must be complete: every pair of
// processors sharing a DoF carries the matching triple. On a single
// processor this is a no-op
func (o *RangeSet) Reduce(stride int, sc []float64) {
	if !o.Distr {
		return
	}
	if o.Ifs == nil {
		chk.Panic("cross-processor reduction needs the interface set")
	}
	recv := o.exchangePairs(stride, sc)
	for _, r := range o.nbr {
		rcv := recv[r]
		for j, k := range o.nbrIdx[r] {
			h := o.Ifs.Here[k]
			for c := 0; c < stride; c++ {
				sc[stride*h+c] += rcv[stride*j+c]
			}
		}
	}
}
