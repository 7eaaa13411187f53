// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"fmt"
)

// Aux is a single auxiliary ("tag") field from a BAM record, backed by
// the record's original decoded bytes: two tag bytes, a type byte, and
// the type-specific value, exactly as laid out on the wire (§3, tags).
type Aux []byte

// Tag returns the two-byte tag identifier, e.g. "NM".
func (a Aux) Tag() [2]byte { return [2]byte{a[0], a[1]} }

// Type returns the single-character BAM type code for the value.
func (a Aux) Type() byte { return a[2] }

// Value returns the decoded Go value held by the tag: byte for 'A',
// int64 for the integer types, float64 for 'f', string for 'Z' and 'H',
// and a slice of the appropriate numeric type for 'B'.
func (a Aux) Value() interface{} {
	switch a.Type() {
	case 'A':
		return a[3]
	case 'c':
		return int64(int8(a[3]))
	case 'C':
		return int64(a[3])
	case 's':
		return int64(int16(leUint16(a[3:5])))
	case 'S':
		return int64(leUint16(a[3:5]))
	case 'i':
		return int64(leInt32(a[3:7]))
	case 'I':
		return int64(leUint32(a[3:7]))
	case 'f':
		return float64(leFloat32(a[3:7]))
	case 'Z':
		return string(a[3 : len(a)-1])
	case 'H':
		return string(a[3 : len(a)-1])
	case 'B':
		return a.arrayValue()
	default:
		return nil
	}
}

func (a Aux) arrayValue() interface{} {
	sub := a[3]
	n := int(leUint32(a[4:8]))
	data := a[8:]
	switch sub {
	case 'c':
		v := make([]int8, n)
		for i := range v {
			v[i] = int8(data[i])
		}
		return v
	case 'C':
		v := make([]uint8, n)
		copy(v, data[:n])
		return v
	case 's':
		v := make([]int16, n)
		for i := range v {
			v[i] = int16(leUint16(data[i*2 : i*2+2]))
		}
		return v
	case 'S':
		v := make([]uint16, n)
		for i := range v {
			v[i] = leUint16(data[i*2 : i*2+2])
		}
		return v
	case 'i':
		v := make([]int32, n)
		for i := range v {
			v[i] = leInt32(data[i*4 : i*4+4])
		}
		return v
	case 'I':
		v := make([]uint32, n)
		for i := range v {
			v[i] = leUint32(data[i*4 : i*4+4])
		}
		return v
	case 'f':
		v := make([]float32, n)
		for i := range v {
			v[i] = leFloat32(data[i*4 : i*4+4])
		}
		return v
	default:
		return nil
	}
}

func (a Aux) String() string {
	tag := a.Tag()
	return fmt.Sprintf("%s:%c:%v", string(tag[:]), a.Type(), a.Value())
}

// jumps gives the fixed byte width of a scalar aux value; -1 marks the
// variable-length types (Z, H, B) which need their own scan.
var jumps = [256]int{
	'A': 1,
	'c': 1, 'C': 1,
	's': 2, 'S': 2,
	'i': 4, 'I': 4,
	'f': 4,
	'Z': -1,
	'H': -1,
	'B': -1,
}

var arrayElemSize = [256]int{
	'c': 1, 'C': 1,
	's': 2, 'S': 2,
	'i': 4, 'I': 4,
	'f': 4,
}

// parseAux splits the tail of a decoded record into individual Aux
// values, each a subslice of aux sharing its backing array.
func parseAux(aux []byte) ([]Aux, error) {
	if len(aux) == 0 {
		return nil, nil
	}
	aa := make([]Aux, 0, 4)
	for i := 0; i+2 < len(aux); {
		t := aux[i+2]
		switch j := jumps[t]; {
		case j > 0:
			j += 3
			if i+j > len(aux) {
				return nil, fmt.Errorf("%w: truncated tag %q", ErrCorruptHeader, string(aux[i:i+2]))
			}
			aa = append(aa, Aux(aux[i:i+j:i+j]))
			i += j
		case j < 0:
			switch t {
			case 'Z', 'H':
				j = -1
				for k, v := range aux[i+3:] {
					if v == 0 {
						j = k
						break
					}
				}
				if j < 0 {
					return nil, fmt.Errorf("%w: unterminated %c tag", ErrCorruptHeader, t)
				}
				end := i + 3 + j + 1
				aa = append(aa, Aux(aux[i:end:end]))
				i = end
			case 'B':
				if i+8 > len(aux) {
					return nil, fmt.Errorf("%w: truncated array tag", ErrCorruptHeader)
				}
				sub := aux[i+3]
				n := int(leInt32(aux[i+4 : i+8]))
				elemSize := arrayElemSize[sub]
				if elemSize == 0 {
					return nil, fmt.Errorf("%w: unknown array subtype %q", ErrCorruptHeader, sub)
				}
				end := i + 8 + n*elemSize
				if end > len(aux) {
					return nil, fmt.Errorf("%w: truncated array tag", ErrCorruptHeader)
				}
				aa = append(aa, Aux(aux[i:end:end]))
				i = end
			}
		default:
			return nil, fmt.Errorf("%w: unrecognised tag type %q", ErrCorruptHeader, t)
		}
	}
	return aa, nil
}
