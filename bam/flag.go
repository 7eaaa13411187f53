// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

// Flags represents a BAM record's alignment FLAG field.
type Flags uint16

const (
	Paired        Flags = 1 << iota // The read is paired in sequencing, no matter whether it is mapped in a pair.
	ProperPair                      // The read is mapped in a proper pair.
	Unmapped                        // The read itself is unmapped.
	MateUnmapped                    // The mate is unmapped.
	Reverse                         // The read is mapped to the reverse strand.
	MateReverse                     // The mate is mapped to the reverse strand.
	Read1                           // This is read1.
	Read2                           // This is read2.
	Secondary                       // Not primary alignment.
	QCFail                          // QC failure.
	Duplicate                       // Optical or PCR duplicate.
	Supplementary                   // Supplementary alignment.
)

// String gives the samtools-style single character flag representation,
// e.g. "pPuUrR12sfdS" with unset bits shown as '-'.
func (f Flags) String() string {
	const pairedMask = ProperPair | MateUnmapped | MateReverse | Read1 | Read2
	if f&1 == 0 {
		f &^= pairedMask
	}

	const flags = "pPuUrR12sfdS"
	b := make([]byte, len(flags))
	for i, c := range flags {
		if f&(1<<uint(i)) != 0 {
			b[i] = byte(c)
		} else {
			b[i] = '-'
		}
	}
	return string(b)
}

func (r *Record) IsPaired() bool        { return r.Flags&Paired != 0 }
func (r *Record) IsProperPair() bool    { return r.Flags&ProperPair != 0 }
func (r *Record) IsUnmapped() bool      { return r.Flags&Unmapped != 0 }
func (r *Record) IsMateUnmapped() bool  { return r.Flags&MateUnmapped != 0 }
func (r *Record) IsReverse() bool       { return r.Flags&Reverse != 0 }
func (r *Record) IsMateReverse() bool   { return r.Flags&MateReverse != 0 }
func (r *Record) IsRead1() bool         { return r.Flags&Read1 != 0 }
func (r *Record) IsRead2() bool         { return r.Flags&Read2 != 0 }
func (r *Record) IsSecondary() bool     { return r.Flags&Secondary != 0 }
func (r *Record) IsQCFail() bool        { return r.Flags&QCFail != 0 }
func (r *Record) IsDuplicate() bool     { return r.Flags&Duplicate != 0 }
func (r *Record) IsSupplementary() bool { return r.Flags&Supplementary != 0 }
