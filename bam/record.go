// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"errors"
	"fmt"
	"io"

	"github.com/6br/bam/bgzf"
)

// Record is the in-memory decoding of one BAM alignment record (§3). A
// Record decoded by ReadInto owns its backing storage in raw and is safe
// to reuse across calls: Seq, Qual and AuxFields alias raw and are only
// valid until the next decode into the same Record; Name and Cigar are
// freshly allocated copies on every decode.
type Record struct {
	RefID     int32
	Pos       int32
	MapQ      uint8
	Bin       uint16
	Flags     Flags
	NextRefID int32
	NextPos   int32
	TempLen   int32

	Name      string
	Cigar     Cigar
	Seq       Seq
	Qual      []byte
	AuxFields []Aux

	raw []byte
}

// NewRecord returns an empty Record ready to be passed to ReadInto.
func NewRecord() *Record { return &Record{} }

// AlignedLength is the sum of CIGAR operation lengths that consume the
// reference sequence (M, D, N, =, X); it is 0 for a record with no
// CIGAR operations.
func (r *Record) AlignedLength() int { return r.Cigar.AlignedLength() }

// EndPos returns the exclusive end of the alignment on the reference.
// For an unmapped record it is equal to Pos.
func (r *Record) EndPos() int {
	if r.RefID < 0 {
		return int(r.Pos)
	}
	return int(r.Pos) + r.AlignedLength()
}

// CalculateBin recomputes the UCSC bin from Pos and EndPos. For a
// conformant file this equals the stored Bin field.
func (r *Record) CalculateBin() uint16 {
	if r.RefID < 0 {
		return uint16(reg2bin(int(r.Pos), int(r.Pos)+1))
	}
	return uint16(reg2bin(int(r.Pos), r.EndPos()))
}

// Start returns the 0-based leftmost mapped position, mirroring
// CalculateBin/EndPos's terminology.
func (r *Record) Start() int { return int(r.Pos) }

// fillFromStream reads one length-prefixed record from r into the
// Record's reused buffers, truncating and refilling rather than
// reallocating when the existing buffer has sufficient capacity.
func (r *Record) fillFromStream(rd io.Reader) error {
	var lenBuf [4]byte
	n, err := io.ReadFull(rd, lenBuf[:])
	if err != nil {
		if err == io.EOF && n == 0 {
			return NoMoreRecords
		}
		if errors.Is(err, bgzf.ErrCrcMismatch) {
			return ErrCrcMismatch
		}
		return fmt.Errorf("%w: reading block_size: %v", ErrTruncated, err)
	}
	blockSize := int(leInt32(lenBuf[:]))
	if blockSize < 32 {
		return fmt.Errorf("%w: block_size %d smaller than fixed prefix", ErrCorruptHeader, blockSize)
	}

	if cap(r.raw) < blockSize {
		r.raw = make([]byte, blockSize)
	} else {
		r.raw = r.raw[:blockSize]
	}
	if _, err := io.ReadFull(rd, r.raw); err != nil {
		if errors.Is(err, bgzf.ErrCrcMismatch) {
			return ErrCrcMismatch
		}
		return fmt.Errorf("%w: reading record body: %v", ErrTruncated, err)
	}

	return r.decode()
}

// decode parses r.raw, which must hold exactly one record's fixed prefix
// followed by its variable-length sections (§3, Record).
func (r *Record) decode() error {
	b := &buffer{data: r.raw}
	if len(r.raw) < 32 {
		return fmt.Errorf("%w: record shorter than the 32 byte fixed prefix", ErrTruncated)
	}

	r.RefID = b.readInt32()
	r.Pos = b.readInt32()
	lReadName := b.readUint8()
	r.MapQ = b.readUint8()
	r.Bin = b.readUint16()
	nCigarOp := b.readUint16()
	r.Flags = Flags(b.readUint16())
	lSeq := b.readInt32()
	r.NextRefID = b.readInt32()
	r.NextPos = b.readInt32()
	r.TempLen = b.readInt32()

	if lReadName < 1 {
		return fmt.Errorf("%w: l_read_name must be >= 1", ErrCorruptHeader)
	}
	if lSeq < 0 {
		return fmt.Errorf("%w: negative l_seq", ErrCorruptHeader)
	}

	seqBytes := int(lSeq+1) / 2
	need := int(lReadName) + int(nCigarOp)*4 + seqBytes + int(lSeq)
	if b.len() < need {
		return fmt.Errorf("%w: variable-length section shorter than declared", ErrTruncated)
	}

	name := b.bytes(int(lReadName))
	r.Name = string(name[:len(name)-1])

	cigarBytes := b.bytes(int(nCigarOp) * 4)
	r.Cigar = readCigarOps(cigarBytes)
	if !validCigar(r.Cigar) {
		return fmt.Errorf("%w: operation code out of range", ErrInvalidCigar)
	}

	r.Seq = Seq{Length: int(lSeq), packed: b.bytes(seqBytes)}
	r.Qual = b.bytes(int(lSeq))

	aux, err := parseAux(b.bytes(b.len()))
	if err != nil {
		return err
	}
	r.AuxFields = aux

	return nil
}

func validCigar(c Cigar) bool {
	for _, op := range c {
		if op.Type() >= lastCigarOpType {
			return false
		}
	}
	return true
}
