// Copyright 2017 The Gofvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sles

import (
	"github.com/cpmech/gosl/chk"
)

// Handle binds the parameters of one system to its runtime state: the
// preconditioner setup and the cumulated iteration counters
type Handle struct {
	Pa      *Param
	Pc      Preconditioner // built on first solve, rebuilt after Reset
	Nsolves int            // number of solves performed
	Niters  int            // cumulated iterations
	LastRes float64        // residual of the last solve
}

// Reset drops the preconditioner setup, forcing a rebuild on the next
// solve; to be called whenever the matrix coefficients change
func (o *Handle) Reset() {
	o.Pc = nil
}

// registry of handles, one per field id plus anonymous extra systems
var handles []*Handle

// FindOrAdd returns the handle attached to the given field id, creating it
// with default parameters when absent. A negative id always creates a new
// detached handle
func FindOrAdd(fieldID int, name string) *Handle {
	if fieldID >= 0 {
		for _, h := range handles {
			if h.Pa.FieldID == fieldID {
				return h
			}
		}
	}
	h := &Handle{Pa: NewParam(fieldID, name)}
	handles = append(handles, h)
	return h
}

// Find returns the handle attached to the given field id or nil
func Find(fieldID int) *Handle {
	for _, h := range handles {
		if h.Pa.FieldID == fieldID {
			return h
		}
	}
	return nil
}

// RemoveAll clears the registry; used between simulations and by tests
func RemoveAll() {
	handles = nil
}

// MustFind returns the handle attached to the given field id, panicking
// when absent
func MustFind(fieldID int) *Handle {
	h := Find(fieldID)
	if h == nil {
		chk.Panic("sles: no handle for field %d", fieldID)
	}
	return h
}
