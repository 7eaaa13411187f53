// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import "gopkg.in/check.v1"

func (s *S) TestCigarString(c *check.C) {
	cig := Cigar{NewCigarOp(CigarMatch, 10), NewCigarOp(CigarInsertion, 2), NewCigarOp(CigarDeletion, 3)}
	c.Check(cig.String(), check.Equals, "10M2I3D")
	c.Check(cig.AlignedLength(), check.Equals, 13)
	c.Check(Cigar(nil).String(), check.Equals, "*")
}

func (s *S) TestFlagsString(c *check.C) {
	f := Paired | ProperPair | Read1
	str := f.String()
	c.Check(len(str), check.Equals, 12)
	c.Check(str[0], check.Equals, byte('p'))
	c.Check(str[1], check.Equals, byte('P'))
}

func (s *S) TestSeqBaseAndExpand(c *check.C) {
	seq := Seq{Length: 4, packed: packSeq("ACGT")}
	c.Check(seq.Base(0), check.Equals, byte('A'))
	c.Check(seq.Base(3), check.Equals, byte('T'))
	c.Check(seq.String(), check.Equals, "ACGT")
}

func (s *S) TestHeaderReferenceLookup(c *check.C) {
	h := &Header{refs: []Reference{{name: "chr1", lRef: 1000}, {name: "chr2", lRef: 2000}}}
	id, ok := h.ReferenceID("chr2")
	c.Assert(ok, check.Equals, true)
	c.Check(id, check.Equals, int32(1))
	c.Check(h.ReferenceName(-1), check.Equals, "*")
	c.Check(h.ReferenceLen(1), check.Equals, int32(2000))
}
