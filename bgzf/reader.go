// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"io"
)

// Reader decodes a BGZF byte stream: a concatenation of independently
// deflated gzip members, exposing it as a single byte stream addressable
// by virtual offset. Reader is single-threaded and pull-based; it
// performs no read-ahead beyond the block currently being consumed.
type Reader struct {
	r     io.Reader
	cache Cache

	checkCRC bool

	cur      *block
	cursor   int
	nextBase int64

	err error
}

// NewReader returns a Reader that decodes the BGZF stream read from r.
// If checkCRC is true, every block's CRC32 trailer is verified against
// its decompressed payload.
func NewReader(r io.Reader, checkCRC bool) (*Reader, error) {
	bg := &Reader{r: r, checkCRC: checkCRC}
	return bg, nil
}

// SetCache installs a block cache used by Seek. Sequential reads never
// populate or consult the cache; only Seek does.
func (bg *Reader) SetCache(c Cache) { bg.cache = c }

// VirtualOffset returns the virtual offset of the next byte to be read.
func (bg *Reader) VirtualOffset() Offset {
	base := bg.nextBase
	if bg.cur != nil {
		base = bg.cur.base
	}
	return Offset{File: base, Block: uint16(bg.cursor)}
}

// Read implements io.Reader. It returns ErrTruncated, ErrCrcMismatch, or
// an underlying I/O error on failure, and io.EOF once the canonical BGZF
// EOF marker has been consumed.
func (bg *Reader) Read(p []byte) (int, error) {
	if bg.err != nil {
		return 0, bg.err
	}
	var n int
	for n < len(p) {
		if bg.cur == nil || bg.cursor >= len(bg.cur.data) {
			if err := bg.advance(); err != nil {
				if n > 0 && err == io.EOF {
					return n, nil
				}
				bg.err = err
				return n, err
			}
			if bg.cur.isEOF {
				bg.err = io.EOF
				if n > 0 {
					return n, nil
				}
				return 0, io.EOF
			}
		}
		c := copy(p[n:], bg.cur.data[bg.cursor:])
		n += c
		bg.cursor += c
	}
	return n, nil
}

// advance decodes the next block in stream order, following directly on
// from the current stream position.
func (bg *Reader) advance() error {
	if bg.cur != nil {
		bg.nextBase = bg.cur.base + int64(bg.cur.size)
	}
	blk, err := readBlock(bg.r, bg.nextBase, bg.checkCRC)
	if err != nil {
		return err
	}
	bg.cur = blk
	bg.cursor = 0
	return nil
}

// Seek positions the Reader at the given virtual offset, consulting and
// populating the block cache. The underlying reader must implement
// io.Seeker, or ErrNotASeeker is returned.
func (bg *Reader) Seek(off Offset) error {
	if bg.cur != nil && bg.cur.base == off.File {
		bg.cursor = int(off.Block)
		bg.err = nil
		return nil
	}

	if bg.cur != nil && bg.cache != nil {
		bg.cache.Put(bg.cur)
	}

	var blk *block
	if bg.cache != nil {
		if b := bg.cache.Get(off.File); b != nil {
			blk = b.(*block)
		}
	}
	if blk == nil {
		rs, ok := bg.r.(io.Seeker)
		if !ok {
			return ErrNotASeeker
		}
		if _, err := rs.Seek(off.File, io.SeekStart); err != nil {
			bg.err = err
			return err
		}
		b, err := readBlock(bg.r, off.File, bg.checkCRC)
		if err != nil {
			bg.err = err
			return err
		}
		blk = b
	}

	bg.cur = blk
	bg.cursor = int(off.Block)
	bg.nextBase = blk.base + int64(blk.size)
	bg.err = nil
	return nil
}

// Close releases the Reader's cache, if any. The underlying io.Reader is
// not closed.
func (bg *Reader) Close() error {
	if c, ok := bg.cache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
