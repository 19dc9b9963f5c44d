//go:build unix

// Package region maps the files a pipeline run reads and writes.
package region

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// Input is a read-only mapping of an input file.
type Input struct {
	f    *os.File
	data []byte
}

// OpenInput maps path read-only. An empty file maps to an empty slice.
func OpenInput(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !st.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("region: %s is not a regular file", path)
	}
	in := &Input{f: f}
	if size := st.Size(); size > 0 {
		in.data, err = unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("region: mmap %s: %w", path, err)
		}
	}
	return in, nil
}

// Bytes returns the mapped contents. They are valid until Close.
func (in *Input) Bytes() []byte {
	return in.data
}

// Close unmaps and closes the file.
func (in *Input) Close() error {
	var err error
	if in.data != nil {
		err = unix.Munmap(in.data)
		in.data = nil
	}
	return errors.Join(err, in.f.Close())
}

// Output is a shared, writable mapping of an output file sized up front.
type Output struct {
	f    *os.File
	path string
	data []byte
}

// CreateOutput creates or truncates path, resizes it to size bytes and maps
// it shared so that writes land in the file.
func CreateOutput(path string, size int) (*Output, error) {
	if size < 0 {
		return nil, fmt.Errorf("region: negative size %d", size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return nil, err
	}
	if err := unix.Ftruncate(int(f.Fd()), int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("region: ftruncate %s: %w", path, err)
	}
	out := &Output{f: f, path: path}
	if size > 0 {
		out.data, err = unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("region: mmap %s: %w", path, err)
		}
	}
	return out, nil
}

// Bytes returns the writable region.
func (o *Output) Bytes() []byte {
	return o.data
}

// Commit flushes the region to durable storage.
func (o *Output) Commit() error {
	if o.data != nil {
		if err := unix.Msync(o.data, unix.MS_SYNC); err != nil {
			return fmt.Errorf("region: msync %s: %w", o.path, err)
		}
	}
	return o.f.Sync()
}

// Close unmaps and closes the file without committing.
func (o *Output) Close() error {
	var err error
	if o.data != nil {
		err = unix.Munmap(o.data)
		o.data = nil
	}
	return errors.Join(err, o.f.Close())
}

// Discard closes the output and removes the file, for runs whose output
// must not be mistaken for a result.
func (o *Output) Discard() error {
	return errors.Join(o.Close(), os.Remove(o.path))
}

// SameFile reports whether a and b name the same file. A b that does not
// exist yet is never the same file.
func SameFile(a, b string) (bool, error) {
	sa, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	sb, err := os.Stat(b)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return os.SameFile(sa, sb), nil
}
