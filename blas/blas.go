// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package blas implements the few dense kernels shared by the saddle-point
// iteration drivers: square norms and inner products over distributed
// scatter-view arrays. Local products run through gonum; the cross-rank
// reduction follows the usual all-reduce pattern
package blas

import (
	"math"

	"github.com/cpmech/gofvm/dof"
	"github.com/cpmech/gosl/mpi"
	"gonum.org/v1/gonum/floats"
)

// SquareNorm returns the square of the Euclidean norm of a local array
// (single processor, or an array already in gather view)
func SquareNorm(v []float64) float64 {
	return floats.Dot(v, v)
}

// Dot returns the inner product of two local arrays
func Dot(u, v []float64) float64 {
	return floats.Dot(u, v)
}

// SquareNormRset returns the square of the Euclidean norm of a scatter-view
// array, counting owned DoFs once across all processors
func SquareNormRset(v []float64, rs *dof.RangeSet, stride int) float64 {
	if rs == nil || !rs.Distr {
		return floats.Dot(v, v)
	}
	sum := 0.0
	for i := 0; i < rs.N; i++ {
		if rs.Owned[i] {
			for c := 0; c < stride; c++ {
				x := v[stride*i+c]
				sum += x * x
			}
		}
	}
	return AllReduceSum(sum)
}

// DotRset returns the inner product of two scatter-view arrays, counting
// owned DoFs once across all processors
func DotRset(u, v []float64, rs *dof.RangeSet, stride int) float64 {
	if rs == nil || !rs.Distr {
		return floats.Dot(u, v)
	}
	sum := 0.0
	for i := 0; i < rs.N; i++ {
		if rs.Owned[i] {
			for c := 0; c < stride; c++ {
				sum += u[stride*i+c] * v[stride*i+c]
			}
		}
	}
	return AllReduceSum(sum)
}

// Norm returns the Euclidean norm of a local array
func Norm(v []float64) float64 {
	return math.Sqrt(floats.Dot(v, v))
}

// AllReduceSum sums one scalar over all processors
func AllReduceSum(x float64) float64 {
	if !mpi.IsOn() || mpi.Size() < 2 {
		return x
	}
	v := []float64{x}
	w := []float64{0}
	mpi.AllReduceSum(v, w)
	return v[0]
}

// HasNaN tells whether an array carries a NaN; used to detect backend
// floating-point failures before they propagate
func HasNaN(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}
