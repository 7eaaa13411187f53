// Copyright ©2014 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"bytes"
	"encoding/binary"

	"gopkg.in/check.v1"

	"github.com/6br/bam/bgzf"
)

func writeIndexBytes(c *check.C, refs [][]struct {
	bin    uint32
	chunks []bgzf.Chunk
}, intervals [][]bgzf.Offset) []byte {
	var buf bytes.Buffer
	buf.Write(baiMagic[:])
	binary.Write(&buf, binary.LittleEndian, int32(len(refs)))
	for i, ref := range refs {
		binary.Write(&buf, binary.LittleEndian, int32(len(ref)))
		for _, b := range ref {
			binary.Write(&buf, binary.LittleEndian, b.bin)
			binary.Write(&buf, binary.LittleEndian, int32(len(b.chunks)))
			for _, ch := range b.chunks {
				binary.Write(&buf, binary.LittleEndian, ch.Begin.Virtual())
				binary.Write(&buf, binary.LittleEndian, ch.End.Virtual())
			}
		}
		binary.Write(&buf, binary.LittleEndian, int32(len(intervals[i])))
		for _, o := range intervals[i] {
			binary.Write(&buf, binary.LittleEndian, o.Virtual())
		}
	}
	return buf.Bytes()
}

func (s *S) TestReadIndexRoundTrip(c *check.C) {
	chunk := bgzf.Chunk{Begin: bgzf.Offset{File: 0, Block: 0}, End: bgzf.Offset{File: 100, Block: 0}}
	data := writeIndexBytes(c, [][]struct {
		bin    uint32
		chunks []bgzf.Chunk
	}{
		{{bin: reg2bin(0, 100), chunks: []bgzf.Chunk{chunk}}},
	}, [][]bgzf.Offset{
		{{File: 0, Block: 1}},
	})

	idx, err := ReadIndex(bytes.NewReader(data))
	c.Assert(err, check.IsNil)
	c.Check(idx.NumRefs(), check.Equals, 1)

	chunks, err := idx.Chunks(0, 0, 100)
	c.Assert(err, check.IsNil)
	c.Assert(len(chunks), check.Equals, 1)
	c.Check(chunks[0].End.File, check.Equals, int64(100))
}

func (s *S) TestReadIndexBadMagic(c *check.C) {
	_, err := ReadIndex(bytes.NewReader([]byte("XXXX")))
	c.Assert(err, check.Equals, ErrInvalidMagic)
}

func (s *S) TestChunksOutOfRange(c *check.C) {
	idx := &Index{refs: []refIndex{{}}}
	_, err := idx.Chunks(5, 0, 10)
	c.Assert(err, check.NotNil)
}

func (s *S) TestMergeAdjacent(c *check.C) {
	chunks := []bgzf.Chunk{
		{Begin: bgzf.Offset{File: 0}, End: bgzf.Offset{File: 10}},
		{Begin: bgzf.Offset{File: 10}, End: bgzf.Offset{File: 20}},
		{Begin: bgzf.Offset{File: 30}, End: bgzf.Offset{File: 40}},
	}
	merged := mergeAdjacent(chunks)
	c.Assert(len(merged), check.Equals, 2)
	c.Check(merged[0].End.File, check.Equals, int64(20))
}

func (s *S) TestPseudoBinExcludedFromChunks(c *check.C) {
	chunk := bgzf.Chunk{Begin: bgzf.Offset{File: 0}, End: bgzf.Offset{File: 100}}
	data := writeIndexBytes(c, [][]struct {
		bin    uint32
		chunks []bgzf.Chunk
	}{
		{
			{bin: reg2bin(0, 100), chunks: []bgzf.Chunk{chunk}},
			// The pseudo-bin's two "chunks" are written as the stats chunk
			// followed by the mapped (5) and unmapped (1) read counts.
			{bin: pseudoBin, chunks: []bgzf.Chunk{chunk, {Begin: bgzf.MakeOffset(5), End: bgzf.MakeOffset(1)}}},
		},
	}, [][]bgzf.Offset{
		{{File: 0, Block: 1}},
	})
	idx, err := ReadIndex(bytes.NewReader(data))
	c.Assert(err, check.IsNil)
	// ReadIndex moves the pseudo-bin (n_chunk == 2, two stats offsets +
	// two counts) into ReferenceStats, so it never appears in
	// idx.refs[i].bins.
	c.Check(len(idx.refs[0].bins), check.Equals, 1)
	for _, b := range idx.refs[0].bins {
		c.Check(b.bin == pseudoBin, check.Equals, false)
	}
	stats, ok := idx.ReferenceStats(0)
	c.Assert(ok, check.Equals, true)
	c.Check(stats.Mapped, check.Equals, uint64(5))
	c.Check(stats.Unmapped, check.Equals, uint64(1))
}
