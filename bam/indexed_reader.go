// Copyright ©2014 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/mmap"

	"github.com/6br/bam/bgzf"
	"github.com/6br/bam/bgzf/cache"
	internalio "github.com/6br/bam/internal/ioutil"
)

// ModificationTimeCheck controls how a Builder reacts to a BAM file whose
// modification time is newer than its BAI index (§4.10, supplemented from
// the original ModificationTime::{Error,Ignore,Warn} enum).
type ModificationTimeCheck int

const (
	// ModTimeIgnore performs no comparison at all.
	ModTimeIgnore ModificationTimeCheck = iota
	// ModTimeWarn prints a warning to standard error but still opens the
	// file.
	ModTimeWarn
	// ModTimeError refuses to open the file, returning an error.
	ModTimeError
)

// Builder configures and opens an IndexedReader, mirroring the original
// implementation's builder-style IndexedReaderBuilder (§4.10).
type Builder struct {
	baiPath       string
	cacheCapacity int
	checkCRC      bool
	modTimeCheck  ModificationTimeCheck
}

// NewBuilder returns a Builder with the package defaults: no explicit BAI
// path (derived from the BAM path plus ".bai"), a block cache holding up
// to 1000 blocks, CRC checking disabled, and modification time
// mismatches ignored.
func NewBuilder() *Builder { return &Builder{cacheCapacity: 1000} }

// BAIPath overrides the default "<bam path>.bai" index location.
func (b *Builder) BAIPath(path string) *Builder { b.baiPath = path; return b }

// CacheCapacity sets the number of decompressed BGZF blocks kept in an
// LRU cache across Seeks. A capacity of 0 disables caching.
func (b *Builder) CacheCapacity(n int) *Builder { b.cacheCapacity = n; return b }

// CheckCRC enables per-block CRC32 verification. It is off by default.
func (b *Builder) CheckCRC(v bool) *Builder { b.checkCRC = v; return b }

// ModificationTimeCheck sets how a stale index relative to the BAM file
// is handled.
func (b *Builder) ModificationTimeCheck(m ModificationTimeCheck) *Builder {
	b.modTimeCheck = m
	return b
}

// Open opens the BAM file at bamPath, together with its BAI index, and
// returns a ready IndexedReader. Both files are memory-mapped.
func (b *Builder) Open(bamPath string) (*IndexedReader, error) {
	baiPath := b.baiPath
	if baiPath == "" {
		baiPath = bamPath + ".bai"
	}

	if b.modTimeCheck != ModTimeIgnore {
		bamInfo, err := os.Stat(bamPath)
		if err != nil {
			return nil, err
		}
		baiInfo, err := os.Stat(baiPath)
		if err != nil {
			return nil, err
		}
		if bamInfo.ModTime().After(baiInfo.ModTime()) {
			switch b.modTimeCheck {
			case ModTimeError:
				return nil, fmt.Errorf("bam: index %s is older than %s", baiPath, bamPath)
			case ModTimeWarn:
				fmt.Fprintf(os.Stderr, "bam: warning: index %s is older than %s\n", baiPath, bamPath)
			}
		}
	}

	bamMap, err := mmap.Open(bamPath)
	if err != nil {
		return nil, err
	}
	bamFile := internalio.NewReadSeeker(bamMap)

	baiMap, err := mmap.Open(baiPath)
	if err != nil {
		bamFile.Close()
		return nil, err
	}
	defer baiMap.Close()

	idx, err := ReadIndex(internalio.NewReadSeeker(baiMap))
	if err != nil {
		bamFile.Close()
		return nil, err
	}

	bg, err := bgzf.NewReader(bamFile, b.checkCRC)
	if err != nil {
		bamFile.Close()
		return nil, err
	}
	if b.cacheCapacity > 0 {
		bg.SetCache(cache.New(b.cacheCapacity))
	}

	h, err := readHeader(bg)
	if err != nil {
		bamFile.Close()
		return nil, err
	}
	if idx.NumRefs() != h.NRefs() {
		bamFile.Close()
		return nil, fmt.Errorf("%w: index has %d references, header has %d", ErrIndexMismatch, idx.NumRefs(), h.NRefs())
	}

	return &IndexedReader{
		bg:     bg,
		closer: bamFile,
		h:      h,
		idx:    idx,
	}, nil
}

// IndexedReader is a BAM file opened together with its BAI index,
// supporting random-access region queries (§4.6).
type IndexedReader struct {
	bg     *bgzf.Reader
	closer io.Closer
	h      *Header
	idx    *Index
}

// Header returns the BAM header.
func (ir *IndexedReader) Header() *Header { return ir.h }

// Index returns the parsed BAI index backing this reader.
func (ir *IndexedReader) Index() *Index { return ir.idx }

// Close releases the underlying memory-mapped file.
func (ir *IndexedReader) Close() error { return ir.closer.Close() }

// Fetch returns a Viewer over every record on reference refID overlapping
// the half-open interval [beg, end). It is FetchBy with a predicate that
// accepts every record.
func (ir *IndexedReader) Fetch(refID, beg, end int) (*Viewer, error) {
	return ir.FetchBy(refID, beg, end, nil)
}

// FetchBy is Fetch restricted to records for which predicate returns true.
// A nil predicate accepts every record. The predicate is evaluated before
// the overlap test (§4.6, step 3), so callers can reject records cheaply
// without the reader computing their aligned end position.
func (ir *IndexedReader) FetchBy(refID, beg, end int, predicate func(*Record) bool) (*Viewer, error) {
	if refID < 0 {
		return nil, fmt.Errorf("%w: reference id %d", errUnmappedRegionQuery, refID)
	}
	if refID >= ir.h.NRefs() {
		return nil, fmt.Errorf("%w: reference id %d out of range", errRefIDOutOfRange, refID)
	}
	chunks, err := ir.idx.Chunks(refID, beg, end)
	if err != nil {
		return nil, err
	}
	return &Viewer{
		bg:        ir.bg,
		chunks:    chunks,
		refID:     int32(refID),
		beg:       beg,
		end:       end,
		predicate: predicate,
	}, nil
}

// FetchByName is Fetch by reference name rather than id.
func (ir *IndexedReader) FetchByName(refName string, beg, end int) (*Viewer, error) {
	id, ok := ir.h.ReferenceID(refName)
	if !ok {
		return nil, fmt.Errorf("bam: unknown reference %q", refName)
	}
	return ir.Fetch(int(id), beg, end)
}

// Viewer iterates the records of one Fetch/FetchBy call, walking the
// selected chunks in order and filtering out records that do not overlap
// the requested region (§4.6). It progresses Idle -> Fetching -> Exhausted
// and never revisits a chunk once past its end.
type Viewer struct {
	bg     *bgzf.Reader
	chunks []bgzf.Chunk
	idx    int
	seeked bool

	refID     int32
	beg, end  int
	predicate func(*Record) bool

	err error
}

// Read decodes and returns the next overlapping record, or NoMoreRecords
// once the region has been fully consumed.
func (v *Viewer) Read() (*Record, error) {
	rec := NewRecord()
	if err := v.ReadInto(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ReadInto decodes the next overlapping record into rec, reusing its
// buffers when possible (§4.3, Reuse).
func (v *Viewer) ReadInto(rec *Record) error {
	if v.err != nil {
		return v.err
	}
	for {
		if v.idx >= len(v.chunks) {
			v.err = NoMoreRecords
			return v.err
		}
		chunk := v.chunks[v.idx]
		if !v.seeked {
			if err := v.bg.Seek(chunk.Begin); err != nil {
				v.err = err
				return err
			}
			v.seeked = true
		}
		if v.bg.VirtualOffset().Virtual() >= chunk.End.Virtual() {
			v.idx++
			v.seeked = false
			continue
		}

		err := rec.fillFromStream(v.bg)
		if err != nil {
			if err == NoMoreRecords {
				v.idx++
				v.seeked = false
				continue
			}
			v.err = err
			return err
		}

		// Unmapped records can appear alongside a mapped mate in the same
		// reference's chunks; they carry no alignment interval to test.
		if rec.IsUnmapped() || rec.RefID != v.refID {
			continue
		}
		// Records are stored in position-sorted order per reference, so
		// once one starts at or past the query end, none that follow it
		// in this chunk (or later chunks) can overlap either.
		if rec.Start() >= v.end {
			v.err = NoMoreRecords
			return v.err
		}
		if v.predicate != nil && !v.predicate(rec) {
			continue
		}
		if rec.EndPos() <= v.beg {
			continue
		}
		return nil
	}
}

// Close releases resources held by the Viewer. The underlying
// IndexedReader remains usable.
func (v *Viewer) Close() error {
	v.err = NoMoreRecords
	return nil
}
