// Copyright ©2020 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ioutil adapts memory-mapped file handles to the io.ReadSeeker
// interface the bgzf and bam readers are built against.
package ioutil

import (
	"errors"
	"io"
)

// ReadSeekerAt is the subset of golang.org/x/exp/mmap.ReaderAt this
// package depends on.
type ReadSeekerAt interface {
	io.ReaderAt
	io.Closer
	Len() int
}

// ReadSeeker presents a ReadSeekerAt as an io.ReadSeeker, tracking a
// cursor over the underlying mapped memory. It is grounded on the
// mmap.ReaderAt usage in the fai package, generalised to a plain
// io.ReadSeeker rather than a domain-specific Seq type.
type ReadSeeker struct {
	ra  ReadSeekerAt
	off int64
}

// NewReadSeeker wraps ra for sequential and random access via Read/Seek.
func NewReadSeeker(ra ReadSeekerAt) *ReadSeeker {
	return &ReadSeeker{ra: ra}
}

func (r *ReadSeeker) Read(p []byte) (int, error) {
	if r.off >= int64(r.ra.Len()) {
		return 0, io.EOF
	}
	n, err := r.ra.ReadAt(p, r.off)
	r.off += int64(n)
	return n, err
}

func (r *ReadSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.off + offset
	case io.SeekEnd:
		abs = int64(r.ra.Len()) + offset
	default:
		return 0, errors.New("ioutil: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("ioutil: negative position")
	}
	r.off = abs
	return abs, nil
}

// Close closes the underlying mapped file.
func (r *ReadSeeker) Close() error { return r.ra.Close() }
