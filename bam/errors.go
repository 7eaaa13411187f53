// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import "errors"

var (
	// NoMoreRecords is a terminal sentinel, not a failure: it is
	// returned by Read/ReadInto once a reader or a fetch has been
	// exhausted cleanly. Consumers loop until they see it.
	NoMoreRecords = errors.New("bam: no more records")

	ErrInvalidMagic  = errors.New("bam: magic number mismatch")
	ErrCorruptHeader = errors.New("bam: corrupt header")
	ErrTruncated     = errors.New("bam: truncated record")
	ErrInvalidCigar  = errors.New("bam: invalid cigar")
	ErrCrcMismatch   = errors.New("bam: block CRC32 mismatch")
	ErrIndexMismatch = errors.New("bam: index reference count does not match header")

	errUnmappedRegionQuery = errors.New("bam: cannot fetch a region on the unmapped reference")
	errRefIDOutOfRange     = errors.New("bam: reference id out of range")
)
