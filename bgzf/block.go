// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// Offset is a BGZF virtual file offset: a compressed file offset of the
// start of a block concatenated with an uncompressed offset within that
// block's decompressed payload.
type Offset struct {
	File  int64
	Block uint16
}

// Virtual returns the 64-bit virtual offset used for total ordering and
// for the values stored in a BAI index.
func (o Offset) Virtual() uint64 {
	return uint64(o.File)<<16 | uint64(o.Block)
}

// MakeOffset splits a packed 64-bit virtual offset into an Offset.
func MakeOffset(v uint64) Offset {
	return Offset{File: int64(v >> 16), Block: uint16(v)}
}

// Chunk is a half-open range [Begin, End) of virtual offsets, as stored
// in the chunk lists of a BAI index.
type Chunk struct {
	Begin Offset
	End   Offset
}

// Block is a single decompressed BGZF member.
type Block interface {
	// Base is the compressed file offset of the start of the gzip
	// member the Block was decompressed from.
	Base() int64

	// Size is the number of compressed bytes the gzip member occupied,
	// header and trailer included.
	Size() int

	// Data is the decompressed payload of the block.
	Data() []byte
}

type block struct {
	base  int64
	size  int
	data  []byte
	isEOF bool
}

func (b *block) Base() int64   { return b.base }
func (b *block) Size() int     { return b.size }
func (b *block) Data() []byte  { return b.data }

// readBlock decodes one gzip member from r, whose first byte is expected
// at file offset base. If checkCRC is true, the trailer CRC32 is verified
// against the decompressed payload.
func readBlock(r io.Reader, base int64, checkCRC bool) (*block, error) {
	var fixed [12]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		return nil, err
	}
	if fixed[0] != 31 || fixed[1] != 139 || fixed[2] != 8 {
		return nil, fmt.Errorf("bgzf: invalid gzip header at offset %d", base)
	}
	if fixed[3]&0x04 == 0 {
		return nil, ErrNoBlockSize
	}
	xlen := int(binary.LittleEndian.Uint16(fixed[10:12]))
	extra := make([]byte, xlen)
	if _, err := io.ReadFull(r, extra); err != nil {
		return nil, ErrTruncated
	}
	bsize := expectedBlockSize(extra)
	if bsize < 0 {
		return nil, ErrNoBlockSize
	}

	headerLen := 12 + xlen
	compressedLen := bsize - headerLen - 8
	if compressedLen < 0 {
		return nil, fmt.Errorf("bgzf: corrupt block size at offset %d", base)
	}

	compressed := make([]byte, compressedLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, ErrTruncated
	}

	fr := flate.NewReader(bytes.NewReader(compressed))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, fr); err != nil {
		fr.Close()
		return nil, fmt.Errorf("bgzf: inflate failed at offset %d: %w", base, err)
	}
	fr.Close()

	var trailer [8]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return nil, ErrTruncated
	}
	crc := binary.LittleEndian.Uint32(trailer[0:4])
	isize := binary.LittleEndian.Uint32(trailer[4:8])

	data := buf.Bytes()
	if int(isize) != len(data) {
		return nil, fmt.Errorf("bgzf: isize mismatch at offset %d: have %d want %d", base, len(data), isize)
	}
	if checkCRC {
		if crc32.ChecksumIEEE(data) != crc {
			return nil, ErrCrcMismatch
		}
	}

	return &block{
		base:  base,
		size:  bsize,
		data:  data,
		isEOF: isize == 0 && len(data) == 0,
	}, nil
}
