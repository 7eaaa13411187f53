// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"bytes"
	"fmt"
)

// CigarOpType is one of the nine BAM CIGAR operation codes.
type CigarOpType byte

const (
	CigarMatch       CigarOpType = iota // M
	CigarInsertion                      // I
	CigarDeletion                       // D
	CigarSkipped                        // N
	CigarSoftClipped                    // S
	CigarHardClipped                    // H
	CigarPadded                         // P
	CigarEqual                          // =
	CigarMismatch                       // X
	lastCigarOpType
)

var cigarOpCodes = [...]byte{'M', 'I', 'D', 'N', 'S', 'H', 'P', '=', 'X'}

func (t CigarOpType) String() string {
	if t >= lastCigarOpType {
		return "?"
	}
	return string(cigarOpCodes[t])
}

// Consume describes how many reference and query bases a CIGAR operation
// type consumes.
type Consume struct {
	Reference int
	Query     int
}

var consumes = [...]Consume{
	CigarMatch:       {1, 1},
	CigarInsertion:   {0, 1},
	CigarDeletion:    {1, 0},
	CigarSkipped:     {1, 0},
	CigarSoftClipped: {0, 1},
	CigarHardClipped: {0, 0},
	CigarPadded:      {0, 0},
	CigarEqual:       {1, 1},
	CigarMismatch:    {1, 1},
}

// Consumes returns the reference/query base consumption of t.
func (t CigarOpType) Consumes() Consume {
	if t >= lastCigarOpType {
		return Consume{}
	}
	return consumes[t]
}

// CigarOp is a single CIGAR operation: an operation type and its length,
// packed exactly as it appears in a BAM record (op_len<<4 | op_code).
type CigarOp uint32

// NewCigarOp returns a CigarOp of the given type and length.
func NewCigarOp(t CigarOpType, n int) CigarOp {
	return CigarOp(t) | CigarOp(n)<<4
}

// Type returns the operation's type.
func (c CigarOp) Type() CigarOpType { return CigarOpType(c & 0xf) }

// Len returns the operation's length.
func (c CigarOp) Len() int { return int(c >> 4) }

func (c CigarOp) String() string { return fmt.Sprintf("%d%v", c.Len(), c.Type()) }

// Cigar is a sequence of CIGAR operations.
type Cigar []CigarOp

func (c Cigar) String() string {
	if len(c) == 0 {
		return "*"
	}
	var b bytes.Buffer
	for _, op := range c {
		fmt.Fprint(&b, op)
	}
	return b.String()
}

// AlignedLength returns the sum of operation lengths that consume the
// reference sequence (M, D, N, =, X); it is 0 if the CIGAR is empty.
func (c Cigar) AlignedLength() int {
	var n int
	for _, op := range c {
		n += op.Len() * op.Type().Consumes().Reference
	}
	return n
}

func readCigarOps(b []byte) Cigar {
	co := make(Cigar, len(b)/4)
	for i := range co {
		co[i] = CigarOp(leUint32(b[i*4 : i*4+4]))
	}
	return co
}
