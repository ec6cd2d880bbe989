// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package shm provisions memory regions that can be shared between
// processes.
//
// A Region is a read-write MAP_SHARED mapping. Named regions live in the
// system's shared-memory directory (/dev/shm on Linux, the temp directory on
// other unix systems) and can be opened by unrelated processes; anonymous
// regions are shared only with the current process.
//
// Regions carry no structure of their own. Place an spsc.Shared queue
// over Bytes to communicate through them:
//
//	region, err := shm.Create("ticks", spsc.SharedSize[Tick](1024))
//	if err != nil {
//	    return err
//	}
//	defer region.Unlink()
//	defer region.Close()
//
//	q, err := spsc.BuildShared[Tick](spsc.New(1024), region.Bytes())
package shm

import "errors"

// ErrInvalidName reports a region name that is empty or contains a slash
// other than a single leading one.
var ErrInvalidName = errors.New("shm: invalid region name")

// ErrInvalidSize reports a non-positive size, or a named region that is
// smaller than the size requested when opening it.
var ErrInvalidSize = errors.New("shm: invalid region size")

// Region is a mapped shared-memory segment.
//
// The mapping stays valid until Close. Closing does not remove a named
// segment; call Unlink once no process needs to open it again.
type Region struct {
	name string
	path string
	data []byte
}

// Bytes returns the mapped memory. The slice is invalid after Close.
func (r *Region) Bytes() []byte {
	return r.data
}

// Name returns the region name, or "" for an anonymous region.
func (r *Region) Name() string {
	return r.name
}

// Path returns the file backing a named region, or "" for an anonymous one.
func (r *Region) Path() string {
	return r.path
}

// Size returns the mapped length in bytes, or 0 after Close.
func (r *Region) Size() int {
	return len(r.data)
}
