// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"encoding/binary"
	"math"
)

func leUint16(b []byte) uint16   { return binary.LittleEndian.Uint16(b) }
func leUint32(b []byte) uint32   { return binary.LittleEndian.Uint32(b) }
func leInt32(b []byte) int32     { return int32(binary.LittleEndian.Uint32(b)) }
func leFloat32(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }

// buffer is a light-weight cursor over a single record's byte payload,
// grounded on the teacher's read buffer of the same name.
type buffer struct {
	off  int
	data []byte
}

func (b *buffer) bytes(n int) []byte {
	s := b.off
	b.off += n
	return b.data[s:b.off]
}

func (b *buffer) len() int { return len(b.data) - b.off }

func (b *buffer) discard(n int) { b.off += n }

func (b *buffer) readUint8() uint8 {
	b.off++
	return b.data[b.off-1]
}

func (b *buffer) readUint16() uint16 { return leUint16(b.bytes(2)) }
func (b *buffer) readInt32() int32   { return leInt32(b.bytes(4)) }
func (b *buffer) readUint32() uint32 { return leUint32(b.bytes(4)) }
