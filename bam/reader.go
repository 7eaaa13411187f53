// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"io"

	"github.com/6br/bam/bgzf"
)

// Reader reads a BAM stream sequentially, record by record, from the
// first byte following the header block onward (§4.5).
type Reader struct {
	bg  *bgzf.Reader
	h   *Header
	err error
}

// NewReader wraps r as a BAM stream, decoding and returning its header.
// If checkCRC is true, every BGZF block's trailer CRC32 is verified.
func NewReader(r io.Reader, checkCRC bool) (*Reader, error) {
	bg, err := bgzf.NewReader(r, checkCRC)
	if err != nil {
		return nil, err
	}
	h, err := readHeader(bg)
	if err != nil {
		return nil, err
	}
	return &Reader{bg: bg, h: h}, nil
}

// Header returns the BAM header decoded when the Reader was opened.
func (br *Reader) Header() *Header { return br.h }

// Read decodes and returns the next record in the stream. It returns
// NoMoreRecords once the stream is exhausted cleanly.
func (br *Reader) Read() (*Record, error) {
	rec := NewRecord()
	if err := br.ReadInto(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ReadInto decodes the next record into rec, reusing its buffers when
// they have sufficient capacity (§4.3, Reuse). Once it has returned an
// error, including NoMoreRecords, every later call returns that error.
func (br *Reader) ReadInto(rec *Record) error {
	if br.err != nil {
		return br.err
	}
	if err := rec.fillFromStream(br.bg); err != nil {
		br.err = err
		return err
	}
	return nil
}

// Close releases the underlying BGZF reader's resources.
func (br *Reader) Close() error { return br.bg.Close() }
