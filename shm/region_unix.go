// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package shm

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

// Create creates, or truncates, the named segment, sizes it to size bytes
// and maps it. The memory is zero-filled.
func Create(name string, size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	path, err := segmentPath(name)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		return nil, fmt.Errorf("shm: ftruncate %s: %w", path, err)
	}
	return mapFile(name, path, fd, size)
}

// Open maps the first size bytes of an existing named segment.
func Open(name string, size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	path, err := segmentPath(name)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, fmt.Errorf("shm: fstat %s: %w", path, err)
	}
	if st.Size < int64(size) {
		return nil, fmt.Errorf("%w: %s has %d bytes, want %d", ErrInvalidSize, path, st.Size, size)
	}
	return mapFile(name, path, fd, size)
}

// Anonymous maps size bytes of zero-filled memory that is not backed by a
// named segment.
func Anonymous(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("shm: mmap anonymous: %w", err)
	}
	return &Region{data: data}, nil
}

// Close unmaps the region. Calling Close again is a no-op.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("shm: munmap %s: %w", r.name, err)
	}
	return nil
}

// Unlink removes a named segment. Existing mappings stay valid.
// Unlink on an anonymous region is a no-op.
func (r *Region) Unlink() error {
	if r.path == "" {
		return nil
	}
	if err := unix.Unlink(r.path); err != nil {
		return fmt.Errorf("shm: unlink %s: %w", r.path, err)
	}
	return nil
}

func mapFile(name, path string, fd, size int) (*Region, error) {
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: mmap %s: %w", path, err)
	}
	return &Region{name: name, path: path, data: data}, nil
}

// segmentPath maps a POSIX-style segment name ("/name" or "name") to the
// file that backs it.
func segmentPath(name string) (string, error) {
	base := strings.TrimPrefix(name, "/")
	if base == "" || strings.ContainsRune(base, '/') || base == "." || base == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(segmentDir(), base), nil
}

func segmentDir() string {
	if runtime.GOOS == "linux" {
		return "/dev/shm"
	}
	return os.TempDir()
}
