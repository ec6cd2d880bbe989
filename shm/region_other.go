// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !unix

package shm

import (
	"errors"
	"fmt"
)

// Create is not supported on this platform.
func Create(name string, size int) (*Region, error) {
	return nil, fmt.Errorf("shm: create %s: %w", name, errors.ErrUnsupported)
}

// Open is not supported on this platform.
func Open(name string, size int) (*Region, error) {
	return nil, fmt.Errorf("shm: open %s: %w", name, errors.ErrUnsupported)
}

// Anonymous is not supported on this platform.
func Anonymous(size int) (*Region, error) {
	return nil, fmt.Errorf("shm: anonymous: %w", errors.ErrUnsupported)
}

// Close is a no-op.
func (r *Region) Close() error { return nil }

// Unlink is a no-op.
func (r *Region) Unlink() error { return nil }
