// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

// seqBases is the BAM 4-bit nucleotide alphabet, indexed by nibble value
// (§3: {0=…,1=A,2=C,4=G,8=T,15=N,…}).
var seqBases = [16]byte{'=', 'A', 'C', 'M', 'G', 'R', 'S', 'V', 'T', 'W', 'Y', 'H', 'K', 'D', 'B', 'N'}

// Seq is the packed 4-bit-per-base representation of a record's SEQ
// field, exactly as it appears on the wire.
type Seq struct {
	Length int
	packed []byte
}

// Base returns the base call at 0-based position i.
func (s Seq) Base(i int) byte {
	nb := s.packed[i>>1]
	if i&1 == 0 {
		return seqBases[nb>>4]
	}
	return seqBases[nb&0xf]
}

// Expand returns the sequence as a plain ASCII byte slice.
func (s Seq) Expand() []byte {
	out := make([]byte, s.Length)
	for i := range out {
		out[i] = s.Base(i)
	}
	return out
}

func (s Seq) String() string { return string(s.Expand()) }
