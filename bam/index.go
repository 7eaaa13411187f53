// Copyright ©2014 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/6br/bam/bgzf"
)

var baiMagic = [4]byte{'B', 'A', 'I', 0x1}

const tileWidth = 0x4000

// Index is a parsed BAI index (§4.4). It is read-only: index construction
// and mutation are out of scope, matching the reader-only contract of the
// package.
type Index struct {
	refs     []refIndex
	unmapped *uint64
}

type refIndex struct {
	bins      []bin
	stats     *ReferenceStats
	intervals []bgzf.Offset
}

type bin struct {
	bin    uint32
	chunks []bgzf.Chunk
}

// ReferenceStats holds the pseudo-bin (37450) mapping statistics for one
// reference sequence.
type ReferenceStats struct {
	Chunk    bgzf.Chunk
	Mapped   uint64
	Unmapped uint64
}

// NumRefs returns the number of references described by the index.
func (idx *Index) NumRefs() int { return len(idx.refs) }

// ReferenceStats returns the pseudo-bin statistics for reference id, if
// present.
func (idx *Index) ReferenceStats(id int) (stats ReferenceStats, ok bool) {
	if id < 0 || id >= len(idx.refs) {
		return ReferenceStats{}, false
	}
	s := idx.refs[id].stats
	if s == nil {
		return ReferenceStats{}, false
	}
	return *s, true
}

// Unmapped returns the count of reads with no reference (RefID == -1), and
// whether the index recorded that count at all.
func (idx *Index) Unmapped() (n uint64, ok bool) {
	if idx.unmapped == nil {
		return 0, false
	}
	return *idx.unmapped, true
}

// ReadIndex parses a BAI index stream (§4.4).
func ReadIndex(r io.Reader) (*Index, error) {
	var magic [4]byte
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("%w: reading BAI magic: %v", ErrTruncated, err)
	}
	if magic != baiMagic {
		return nil, ErrInvalidMagic
	}

	var idx Index
	var err error
	idx.refs, err = readRefIndices(r)
	if err != nil {
		return nil, err
	}

	var nUnmapped uint64
	if err := binary.Read(r, binary.LittleEndian, &nUnmapped); err == nil {
		idx.unmapped = &nUnmapped
	} else if err != io.EOF {
		return nil, fmt.Errorf("%w: reading n_no_coor: %v", ErrIndexMismatch, err)
	}

	return &idx, nil
}

func readRefIndices(r io.Reader) ([]refIndex, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("%w: reading n_ref: %v", ErrIndexMismatch, err)
	}
	if n == 0 {
		return nil, nil
	}
	refs := make([]refIndex, n)
	for i := range refs {
		var err error
		refs[i].bins, refs[i].stats, err = readBins(r)
		if err != nil {
			return nil, err
		}
		refs[i].intervals, err = readIntervals(r)
		if err != nil {
			return nil, err
		}
	}
	return refs, nil
}

func readBins(r io.Reader) ([]bin, *ReferenceStats, error) {
	var nBin int32
	if err := binary.Read(r, binary.LittleEndian, &nBin); err != nil {
		return nil, nil, fmt.Errorf("%w: reading n_bin: %v", ErrIndexMismatch, err)
	}
	if nBin == 0 {
		return nil, nil, nil
	}
	var stats *ReferenceStats
	bins := make([]bin, nBin)
	for i := 0; i < len(bins); i++ {
		if err := binary.Read(r, binary.LittleEndian, &bins[i].bin); err != nil {
			return nil, nil, fmt.Errorf("%w: reading bin number: %v", ErrIndexMismatch, err)
		}
		var nChunk int32
		if err := binary.Read(r, binary.LittleEndian, &nChunk); err != nil {
			return nil, nil, fmt.Errorf("%w: reading n_chunk: %v", ErrIndexMismatch, err)
		}
		if bins[i].bin == pseudoBin {
			if nChunk != 2 {
				return nil, nil, fmt.Errorf("%w: malformed pseudo-bin header", ErrIndexMismatch)
			}
			var err error
			stats, err = readStats(r)
			if err != nil {
				return nil, nil, err
			}
			bins = bins[:len(bins)-1]
			i--
			continue
		}
		chunks, err := readChunks(r, nChunk)
		if err != nil {
			return nil, nil, err
		}
		bins[i].chunks = chunks
	}
	sort.Sort(byBinNumber(bins))
	return bins, stats, nil
}

func readChunks(r io.Reader, n int32) ([]bgzf.Chunk, error) {
	if n == 0 {
		return nil, nil
	}
	chunks := make([]bgzf.Chunk, n)
	for i := range chunks {
		var vOff uint64
		if err := binary.Read(r, binary.LittleEndian, &vOff); err != nil {
			return nil, fmt.Errorf("%w: reading chunk_beg: %v", ErrIndexMismatch, err)
		}
		chunks[i].Begin = bgzf.MakeOffset(vOff)
		if err := binary.Read(r, binary.LittleEndian, &vOff); err != nil {
			return nil, fmt.Errorf("%w: reading chunk_end: %v", ErrIndexMismatch, err)
		}
		chunks[i].End = bgzf.MakeOffset(vOff)
	}
	sort.Sort(byBeginOffset(chunks))
	return chunks, nil
}

func readStats(r io.Reader) (*ReferenceStats, error) {
	var stats ReferenceStats
	var vOff uint64
	if err := binary.Read(r, binary.LittleEndian, &vOff); err != nil {
		return nil, fmt.Errorf("%w: reading pseudo-bin chunk_beg: %v", ErrIndexMismatch, err)
	}
	stats.Chunk.Begin = bgzf.MakeOffset(vOff)
	if err := binary.Read(r, binary.LittleEndian, &vOff); err != nil {
		return nil, fmt.Errorf("%w: reading pseudo-bin chunk_end: %v", ErrIndexMismatch, err)
	}
	stats.Chunk.End = bgzf.MakeOffset(vOff)
	if err := binary.Read(r, binary.LittleEndian, &stats.Mapped); err != nil {
		return nil, fmt.Errorf("%w: reading n_mapped: %v", ErrIndexMismatch, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &stats.Unmapped); err != nil {
		return nil, fmt.Errorf("%w: reading n_unmapped: %v", ErrIndexMismatch, err)
	}
	return &stats, nil
}

func readIntervals(r io.Reader) ([]bgzf.Offset, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("%w: reading n_intv: %v", ErrIndexMismatch, err)
	}
	if n == 0 {
		return nil, nil
	}
	offsets := make([]bgzf.Offset, n)
	for i := range offsets {
		var vOff uint64
		if err := binary.Read(r, binary.LittleEndian, &vOff); err != nil {
			return nil, fmt.Errorf("%w: reading ioffset: %v", ErrIndexMismatch, err)
		}
		offsets[i] = bgzf.MakeOffset(vOff)
	}
	return offsets, nil
}

// Chunks returns the bgzf.Chunks that may hold records overlapping
// [beg, end) on reference refID, selected per the hierarchical binning
// scheme (§4.4) and pruned against the linear index. The pseudo-bin
// (37450) is never a candidate: it holds only summary statistics.
func (idx *Index) Chunks(refID, beg, end int) ([]bgzf.Chunk, error) {
	if refID < 0 || refID >= len(idx.refs) {
		return nil, fmt.Errorf("%w: reference id %d out of range", errRefIDOutOfRange, refID)
	}
	ref := idx.refs[refID]

	iv := beg / tileWidth
	if iv >= len(ref.intervals) {
		return nil, nil
	}

	var chunks []bgzf.Chunk
	for _, b := range reg2bins(beg, end) {
		i := sort.Search(len(ref.bins), func(i int) bool { return ref.bins[i].bin >= b })
		if i >= len(ref.bins) || ref.bins[i].bin != b {
			continue
		}
		for _, c := range ref.bins[i].chunks {
			for j, tile := range ref.intervals[iv:] {
				if isZeroOffset(tile) {
					continue
				}
				tbeg := (j + iv) * tileWidth
				tend := tbeg + tileWidth
				if tend >= beg && tbeg <= end && c.End.Virtual() > tile.Virtual() {
					chunks = append(chunks, c)
					break
				}
			}
		}
	}

	sort.Sort(byBeginOffset(chunks))
	return mergeAdjacent(chunks), nil
}

// mergeAdjacent merges chunks whose end virtual offset is at or past the
// next chunk's begin, matching the teacher's zero-slack Adjacent strategy
// (SPEC_FULL.md §9, chunk-merge threshold).
func mergeAdjacent(chunks []bgzf.Chunk) []bgzf.Chunk {
	if len(chunks) == 0 {
		return nil
	}
	for c := 1; c < len(chunks); c++ {
		left := chunks[c-1]
		right := &chunks[c]
		leftEnd := left.End.Virtual()
		if leftEnd >= right.Begin.Virtual() {
			right.Begin = left.Begin
			if leftEnd > right.End.Virtual() {
				right.End = left.End
			}
			chunks = append(chunks[:c-1], chunks[c:]...)
			c--
		}
	}
	return chunks
}

func isZeroOffset(o bgzf.Offset) bool { return o == (bgzf.Offset{}) }

type byBinNumber []bin

func (b byBinNumber) Len() int           { return len(b) }
func (b byBinNumber) Less(i, j int) bool { return b[i].bin < b[j].bin }
func (b byBinNumber) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }

type byBeginOffset []bgzf.Chunk

func (c byBeginOffset) Len() int           { return len(c) }
func (c byBeginOffset) Less(i, j int) bool { return c[i].Begin.Virtual() < c[j].Begin.Virtual() }
func (c byBeginOffset) Swap(i, j int)      { c[i], c[j] = c[j], c[i] }
