// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bam implements read access to the BAM binary alignment format
// and its BAI index, following the SAM/BAM specification's hierarchical
// binning scheme for indexed region queries.
package bam

const (
	indexWordBits = 29
	nextBinShift  = 3

	// pseudoBin is the BAI placeholder bin holding per-reference mapped
	// and unmapped read counts. It must never be treated as a real
	// alignment bin during a fetch.
	pseudoBin = 37450
)

func validIndexPos(i int) bool { return -1 <= i && i <= (1<<indexWordBits-1)-1 }

const (
	level0 = uint32(((1 << (iota * nextBinShift)) - 1) / 7)
	level1
	level2
	level3
	level4
	level5
)

const (
	level0Shift = indexWordBits - (iota * nextBinShift)
	level1Shift
	level2Shift
	level3Shift
	level4Shift
	level5Shift
)

// reg2bin returns the deepest UCSC bin fully containing the half-open
// interval [beg, end).
func reg2bin(beg, end int) uint32 {
	end--
	switch {
	case beg>>level5Shift == end>>level5Shift:
		return level5 + uint32(beg>>level5Shift)
	case beg>>level4Shift == end>>level4Shift:
		return level4 + uint32(beg>>level4Shift)
	case beg>>level3Shift == end>>level3Shift:
		return level3 + uint32(beg>>level3Shift)
	case beg>>level2Shift == end>>level2Shift:
		return level2 + uint32(beg>>level2Shift)
	case beg>>level1Shift == end>>level1Shift:
		return level1 + uint32(beg>>level1Shift)
	}
	return level0
}

// reg2bins returns every bin that may hold a record overlapping the
// half-open interval [beg, end). The returned set is a superset of the
// deepest bin returned by reg2bin for any sub-interval.
func reg2bins(beg, end int) []uint32 {
	if end <= beg {
		return nil
	}
	end--
	list := []uint32{level0}
	for _, r := range []struct {
		offset, shift uint32
	}{
		{level1, level1Shift},
		{level2, level2Shift},
		{level3, level3Shift},
		{level4, level4Shift},
		{level5, level5Shift},
	} {
		lo := r.offset + uint32(beg>>r.shift)
		hi := r.offset + uint32(end>>r.shift)
		for k := lo; k <= hi; k++ {
			list = append(list, k)
		}
	}
	return list
}
