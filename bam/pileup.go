// Copyright ©2021 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import "fmt"

// RecordReader is satisfied by both Reader and Viewer: anything that can
// decode the next Record into a caller-supplied value, ending the stream
// with NoMoreRecords. Pileup is built as a pure consumer of this
// interface, so it works unchanged over a full file or a single Fetch
// region (§4.10, supplemented from the original pileup module).
type RecordReader interface {
	ReadInto(rec *Record) error
}

// AlnType classifies how a PileupEntry's record relates to a single
// reference position.
type AlnType int

const (
	// AlnDeletion marks a position absent from the record (inside a D or
	// N operation).
	AlnDeletion AlnType = iota
	// AlnMatch marks a single base aligned to the position.
	AlnMatch
	// AlnInsertion marks a base aligned to the position immediately
	// followed by an insertion; Len()-1 gives the insertion length.
	AlnInsertion
)

// PileupEntry is one record's contribution to a PileupColumn: the span
// of its query sequence aligned to the column's reference position.
type PileupEntry struct {
	record *Record

	queryStart, queryEnd int
	alnQueryEnd          int

	refPos         int
	cigarIndex     int
	cigarRemaining int
}

func alignedQueryEnd(rec *Record) int {
	var end, last int
	for _, op := range rec.Cigar {
		c := op.Type().Consumes()
		if c.Query != 0 {
			end += op.Len()
		}
		if c.Reference != 0 {
			last = end
		}
	}
	return last
}

func newPileupEntry(rec *Record) (*PileupEntry, error) {
	if rec.RefID < 0 || rec.Pos < 0 {
		return nil, fmt.Errorf("bam: pileup entry requires a mapped record")
	}

	var cigarIndex, queryPos int
	var cigarRemaining int
	for {
		if cigarIndex >= len(rec.Cigar) {
			return nil, fmt.Errorf("bam: cigar cannot contain only insertions")
		}
		op := rec.Cigar[cigarIndex]
		c := op.Type().Consumes()
		if c.Reference != 0 {
			cigarRemaining = op.Len()
			break
		}
		if c.Query != 0 {
			queryPos += op.Len()
		}
		cigarIndex++
	}

	e := &PileupEntry{
		record:         rec,
		queryStart:     queryPos,
		queryEnd:       queryPos,
		alnQueryEnd:    alignedQueryEnd(rec),
		refPos:         int(rec.Pos),
		cigarIndex:     cigarIndex,
		cigarRemaining: cigarRemaining,
	}
	e.updateQueryEnd()
	return e, nil
}

func (e *PileupEntry) updateQueryEnd() {
	op := e.record.Cigar[e.cigarIndex]
	c := op.Type().Consumes()
	switch {
	case c.Query == 0:
		e.queryEnd = e.queryStart
	case e.cigarRemaining == 1:
		queryEnd := e.queryStart + 1
		for i := e.cigarIndex + 1; i < len(e.record.Cigar) && queryEnd < e.alnQueryEnd; i++ {
			next := e.record.Cigar[i].Type().Consumes()
			if next.Reference != 0 {
				break
			}
			if next.Query != 0 {
				queryEnd += e.record.Cigar[i].Len()
			}
		}
		if queryEnd > e.alnQueryEnd {
			queryEnd = e.alnQueryEnd
		}
		e.queryEnd = queryEnd
	default:
		e.queryEnd = e.queryStart + 1
	}
}

// moveForward advances the entry to the next reference position,
// reporting whether the record still covers a position after this one.
func (e *PileupEntry) moveForward() bool {
	c := e.record.Cigar[e.cigarIndex].Type().Consumes()
	e.cigarRemaining--
	if c.Reference != 0 {
		e.refPos++
	}
	if c.Query != 0 {
		e.queryStart++
	}

	for e.cigarRemaining == 0 {
		e.cigarIndex++
		if e.cigarIndex == len(e.record.Cigar) || e.queryStart >= e.alnQueryEnd {
			return false
		}
		next := e.record.Cigar[e.cigarIndex].Type().Consumes()
		if next.Reference != 0 {
			e.cigarRemaining = e.record.Cigar[e.cigarIndex].Len()
		} else if next.Query != 0 {
			e.queryStart += e.record.Cigar[e.cigarIndex].Len()
		}
	}
	e.updateQueryEnd()
	return true
}

// Record returns the entry's underlying record.
func (e *PileupEntry) Record() *Record { return e.record }

// QueryStart returns the 0-based index, in the record's sequence, of the
// first base aligned to the column's reference position. If the position
// is deleted in this record, QueryStart equals QueryEnd.
func (e *PileupEntry) QueryStart() int { return e.queryStart }

// QueryEnd returns the index after the last base aligned to the
// reference position.
func (e *PileupEntry) QueryEnd() int { return e.queryEnd }

// Len returns QueryEnd - QueryStart.
func (e *PileupEntry) Len() int { return e.queryEnd - e.queryStart }

// AlnType classifies the entry's relation to the reference position.
func (e *PileupEntry) AlnType() AlnType {
	switch e.Len() {
	case 0:
		return AlnDeletion
	case 1:
		return AlnMatch
	default:
		return AlnInsertion
	}
}

// Sequence returns the bases aligned to the reference position, or nil
// if the record has no stored sequence.
func (e *PileupEntry) Sequence() []byte {
	if e.record.Seq.Length == 0 {
		return nil
	}
	out := make([]byte, e.Len())
	for i := range out {
		out[i] = e.record.Seq.Base(e.queryStart + i)
	}
	return out
}

// Qualities returns the raw (non-+33) quality values aligned to the
// reference position, or nil if the record has no stored qualities.
func (e *PileupEntry) Qualities() []byte {
	if len(e.record.Qual) == 0 {
		return nil
	}
	return e.record.Qual[e.queryStart:e.queryEnd]
}

// PileupColumn holds every PileupEntry covering one reference position.
type PileupColumn struct {
	entries []*PileupEntry
	refID   int
	refPos  int
}

// Entries returns the column's pileup entries.
func (c *PileupColumn) Entries() []*PileupEntry { return c.entries }

// RefID returns the 0-based reference id of the column.
func (c *PileupColumn) RefID() int { return c.refID }

// RefPos returns the 0-based reference position of the column.
func (c *PileupColumn) RefPos() int { return c.refPos }

// Pileup walks a position-sorted RecordReader column by column, grouping
// overlapping records by reference position (§4.10). It buffers only the
// records currently overlapping the active column, matching the source
// streaming design rather than loading a whole region into memory.
type Pileup struct {
	r      RecordReader
	filter func(*Record) bool

	entries []*PileupEntry
	err     error

	lastRefID  int
	lastRefPos int
	inputDone  bool
}

// NewPileup returns a Pileup over every mapped record read from r.
func NewPileup(r RecordReader) *Pileup {
	return NewFilteredPileup(r, nil)
}

// NewFilteredPileup returns a Pileup over the mapped records read from r
// for which filter returns true. A nil filter accepts every mapped
// record.
func NewFilteredPileup(r RecordReader, filter func(*Record) bool) *Pileup {
	if filter == nil {
		filter = func(*Record) bool { return true }
	}
	p := &Pileup{r: r, filter: filter}
	p.readNext()
	return p
}

func (p *Pileup) recordPasses(rec *Record) bool {
	if rec.IsUnmapped() {
		return false
	}
	return p.filter(rec)
}

func (p *Pileup) readNext() {
	if p.inputDone || p.err != nil {
		return
	}
	for {
		rec := NewRecord()
		if err := p.r.ReadInto(rec); err != nil {
			if err == NoMoreRecords {
				p.inputDone = true
			} else {
				p.err = err
				p.inputDone = true
			}
			return
		}
		if !p.recordPasses(rec) {
			continue
		}

		refID, pos := int(rec.RefID), int(rec.Pos)
		if refID < p.lastRefID || (refID == p.lastRefID && pos < p.lastRefPos) {
			p.err = fmt.Errorf("bam: pileup input is not position sorted")
			p.inputDone = true
			return
		}
		p.lastRefID, p.lastRefPos = refID, pos

		entry, err := newPileupEntry(rec)
		if err != nil {
			p.err = err
			p.inputDone = true
			return
		}
		p.entries = append(p.entries, entry)
		return
	}
}

// Next returns the next PileupColumn in reference order, or NoMoreRecords
// once every buffered and unread record has been consumed.
func (p *Pileup) Next() (*PileupColumn, error) {
	if p.err != nil {
		err := p.err
		p.err = nil
		p.entries = nil
		p.inputDone = true
		return nil, err
	}

	var newRefID, newRefPos int
	for {
		found := false
		for _, e := range p.entries {
			rid := int(e.record.RefID)
			if !found || rid < newRefID || (rid == newRefID && e.refPos < newRefPos) {
				newRefID, newRefPos = rid, e.refPos
				found = true
			}
		}
		if !found && p.inputDone {
			return nil, NoMoreRecords
		}

		needMore := !found || (!p.inputDone &&
			(p.lastRefID < newRefID || (p.lastRefID == newRefID && p.lastRefPos <= newRefPos)))
		if !needMore {
			break
		}
		p.readNext()
		if p.err != nil {
			err := p.err
			p.err = nil
			p.entries = nil
			p.inputDone = true
			return nil, err
		}
	}

	var col []*PileupEntry
	live := p.entries[:0]
	for _, e := range p.entries {
		rid := int(e.record.RefID)
		if rid == newRefID && e.refPos == newRefPos {
			col = append(col, e)
			if e.moveForward() {
				live = append(live, e)
			}
		} else {
			live = append(live, e)
		}
	}
	p.entries = live

	return &PileupColumn{entries: col, refID: newRefID, refPos: newRefPos}, nil
}
