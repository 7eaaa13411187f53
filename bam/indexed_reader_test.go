// Copyright ©2014 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"hash/crc32"

	"gopkg.in/check.v1"

	"github.com/6br/bam/bgzf"
)

// makeBgzfBlock wraps payload in a single BGZF gzip member, mirroring the
// bgzf package's own test helper since its internals are unexported.
func makeBgzfBlock(c *check.C, payload []byte) []byte {
	var deflated bytes.Buffer
	fw, err := flate.NewWriter(&deflated, flate.DefaultCompression)
	c.Assert(err, check.IsNil)
	_, err = fw.Write(payload)
	c.Assert(err, check.IsNil)
	c.Assert(fw.Close(), check.IsNil)

	bsize := 12 + 6 + deflated.Len() + 8 - 1
	var buf bytes.Buffer
	buf.Write([]byte{31, 139, 8, 0x04, 0, 0, 0, 0, 0, 0xff})
	binary.Write(&buf, binary.LittleEndian, uint16(6))
	buf.Write([]byte{'B', 'C'})
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(bsize))
	buf.Write(deflated.Bytes())
	binary.Write(&buf, binary.LittleEndian, crc32.ChecksumIEEE(payload))
	binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	return buf.Bytes()
}

func buildIndexedHeaderBytes(refName string, refLen int32) []byte {
	var buf bytes.Buffer
	buf.Write(bamMagic[:])
	binary.Write(&buf, binary.LittleEndian, int32(0))
	binary.Write(&buf, binary.LittleEndian, int32(1))
	name := refName + "\x00"
	binary.Write(&buf, binary.LittleEndian, int32(len(name)))
	buf.WriteString(name)
	binary.Write(&buf, binary.LittleEndian, refLen)
	return buf.Bytes()
}

func appendIndexedRecord(buf *bytes.Buffer, body []byte) {
	binary.Write(buf, binary.LittleEndian, int32(len(body)))
	buf.Write(body)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// buildTestIndexedReader assembles a single-reference, single-block BAM
// stream plus a matching BAI whose one bin (0, the level0/whole-reference
// bin, which every reg2bins query includes) holds one chunk spanning the
// whole record section, and whose linear index is populated densely
// enough to never prune that chunk. Records, in position order:
//
//	pos 0,      10M, mapq 40 (scenarios 1, 4)
//	pos 100,    10M, mapq 20 (scenario 1)
//	pos 200,    unmapped, refID 0 (must never appear in any fetch result)
//	pos 100000, 30M, mapq 35 (scenarios 1-4)
//	pos 100050, 10M, mapq 10 (scenarios 2-3)
func buildTestIndexedReader(c *check.C) *IndexedReader {
	header := buildIndexedHeaderBytes("chr1", 2000000)

	var payload bytes.Buffer
	payload.Write(header)

	rec1 := buildRecordBody(recordFields{
		pos: 0, mapQ: 40, bin: uint16(reg2bin(0, 10)),
		cigar: []CigarOp{NewCigarOp(CigarMatch, 10)},
		name:  "r1", seq: "AAAAAAAAAA", nextRefID: -1, nextPos: -1,
	})
	rec2 := buildRecordBody(recordFields{
		pos: 100, mapQ: 20, bin: uint16(reg2bin(100, 110)),
		cigar: []CigarOp{NewCigarOp(CigarMatch, 10)},
		name:  "r2", seq: "AAAAAAAAAA", nextRefID: -1, nextPos: -1,
	})
	unmapped := buildRecordBody(recordFields{
		pos: 200, mapQ: 0, flags: uint16(Unmapped),
		name: "r3", nextRefID: -1, nextPos: -1,
	})
	rec3 := buildRecordBody(recordFields{
		pos: 100000, mapQ: 35, bin: uint16(reg2bin(100000, 100030)),
		cigar: []CigarOp{NewCigarOp(CigarMatch, 30)},
		name:  "r4", seq: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", nextRefID: -1, nextPos: -1,
	})
	rec4 := buildRecordBody(recordFields{
		pos: 100050, mapQ: 10, bin: uint16(reg2bin(100050, 100060)),
		cigar: []CigarOp{NewCigarOp(CigarMatch, 10)},
		name:  "r5", seq: "AAAAAAAAAA", nextRefID: -1, nextPos: -1,
	})

	headerLen := payload.Len()
	for _, body := range [][]byte{rec1, rec2, unmapped, rec3, rec4} {
		appendIndexedRecord(&payload, body)
	}
	totalLen := payload.Len()

	var stream bytes.Buffer
	stream.Write(makeBgzfBlock(c, payload.Bytes()))
	stream.Write(makeBgzfBlock(c, nil))

	bg, err := bgzf.NewReader(bytes.NewReader(stream.Bytes()), false)
	c.Assert(err, check.IsNil)
	h, err := readHeader(bg)
	c.Assert(err, check.IsNil)

	chunk := bgzf.Chunk{
		Begin: bgzf.Offset{File: 0, Block: uint16(headerLen)},
		End:   bgzf.Offset{File: 0, Block: uint16(totalLen)},
	}
	intervals := make([]bgzf.Offset, 10)
	for i := range intervals {
		intervals[i] = bgzf.Offset{File: 0, Block: 1}
	}
	idxData := writeIndexBytes(c, [][]struct {
		bin    uint32
		chunks []bgzf.Chunk
	}{
		{{bin: 0, chunks: []bgzf.Chunk{chunk}}},
	}, [][]bgzf.Offset{intervals})
	idx, err := ReadIndex(bytes.NewReader(idxData))
	c.Assert(err, check.IsNil)

	return &IndexedReader{bg: bg, closer: nopCloser{}, h: h, idx: idx}
}

func readAllPositions(c *check.C, v *Viewer) []int32 {
	var out []int32
	for {
		rec, err := v.Read()
		if err == NoMoreRecords {
			break
		}
		c.Assert(err, check.IsNil)
		out = append(out, rec.Pos)
	}
	return out
}

// TestIndexedReaderFetchScenarios exercises spec.md §8's seeded end-to-end
// scenarios 1-4, plus the boundary case that an unmapped record sharing a
// mapped reference's chunks is never emitted.
func (s *S) TestIndexedReaderFetchScenarios(c *check.C) {
	ir := buildTestIndexedReader(c)

	// Scenario 1: fetch(0, 0, 50_000) -> records at {0, 100}. The unmapped
	// record at 200 also falls in this window and must be excluded.
	v, err := ir.Fetch(0, 0, 50000)
	c.Assert(err, check.IsNil)
	c.Check(readAllPositions(c, v), check.DeepEquals, []int32{0, 100})

	// Scenario 2: fetch(0, 100_000, 100_001) -> record at {100_000} only,
	// not 100_050 since 100_050 >= 100_001.
	v, err = ir.Fetch(0, 100000, 100001)
	c.Assert(err, check.IsNil)
	c.Check(readAllPositions(c, v), check.DeepEquals, []int32{100000})

	// Scenario 3: fetch(0, 100_020, 100_060) -> records at {100_000,
	// 100_050}: the first overlaps by its tail, the second by its head.
	v, err = ir.Fetch(0, 100020, 100060)
	c.Assert(err, check.IsNil)
	c.Check(readAllPositions(c, v), check.DeepEquals, []int32{100000, 100050})

	// Scenario 4: fetch_by(0, 0, 1_000_000, mapq >= 30) -> subset
	// restricted to mapq >= 30, i.e. fetch_by(.., pred) == filter(pred,
	// fetch(..)).
	v, err = ir.FetchBy(0, 0, 1000000, func(rec *Record) bool { return rec.MapQ >= 30 })
	c.Assert(err, check.IsNil)
	c.Check(readAllPositions(c, v), check.DeepEquals, []int32{0, 100000})
}

func (s *S) TestIndexedReaderFetchUnmappedRegionError(c *check.C) {
	ir := buildTestIndexedReader(c)
	_, err := ir.Fetch(-1, 0, 100)
	c.Assert(err, check.NotNil)
	c.Check(errors.Is(err, errUnmappedRegionQuery), check.Equals, true)
}

func (s *S) TestIndexedReaderFetchOutOfRange(c *check.C) {
	ir := buildTestIndexedReader(c)
	_, err := ir.Fetch(5, 0, 100)
	c.Assert(err, check.NotNil)
}

func (s *S) TestIndexedReaderFetchByName(c *check.C) {
	ir := buildTestIndexedReader(c)
	v, err := ir.FetchByName("chr1", 0, 50000)
	c.Assert(err, check.IsNil)
	c.Check(readAllPositions(c, v), check.DeepEquals, []int32{0, 100})

	_, err = ir.FetchByName("nosuch", 0, 50000)
	c.Assert(err, check.NotNil)
}
