// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

var bamMagic = [4]byte{'B', 'A', 'M', 0x1}

// Header holds the BAM header block: the magic number (verified but not
// retained), the raw SAM text header, and the reference name/length
// table. Header is immutable after construction; SAM text parsing is
// left to a formatting sink, not this package.
type Header struct {
	text []byte
	refs []Reference
}

// Reference is one entry of the BAM reference table.
type Reference struct {
	name string
	lRef int32
}

// Name returns the reference sequence name.
func (r Reference) Name() string { return r.name }

// Len returns the reference sequence length.
func (r Reference) Len() int32 { return r.lRef }

// Text returns the raw, unparsed SAM text header.
func (h *Header) Text() []byte { return h.text }

// NRefs returns the number of entries in the reference table.
func (h *Header) NRefs() int { return len(h.refs) }

// Reference returns the reference table entry for id, which must satisfy
// 0 <= id < h.NRefs().
func (h *Header) Reference(id int) Reference { return h.refs[id] }

// ReferenceName returns the name of reference id, or "*" if id is -1.
func (h *Header) ReferenceName(id int32) string {
	if id < 0 {
		return "*"
	}
	return h.refs[id].name
}

// ReferenceLen returns the length of reference id.
func (h *Header) ReferenceLen(id int32) int32 {
	if id < 0 {
		return 0
	}
	return h.refs[id].lRef
}

// ReferenceID returns the 0-based id of the reference with the given
// name, and false if no such reference exists.
func (h *Header) ReferenceID(name string) (int32, bool) {
	for i, r := range h.refs {
		if r.name == name {
			return int32(i), true
		}
	}
	return -1, false
}

// readHeader parses the BAM header block described in §4.2: a magic
// number, a length-prefixed SAM text header, and the reference table.
func readHeader(r io.Reader) (*Header, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("bam: failed to read magic: %w", err)
	}
	if magic != bamMagic {
		return nil, ErrInvalidMagic
	}

	var lText int32
	if err := binary.Read(r, binary.LittleEndian, &lText); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptHeader, err)
	}
	if lText < 0 {
		return nil, ErrCorruptHeader
	}
	text := make([]byte, lText)
	if _, err := io.ReadFull(r, text); err != nil {
		return nil, fmt.Errorf("%w: truncated text header: %v", ErrCorruptHeader, err)
	}

	var nRef int32
	if err := binary.Read(r, binary.LittleEndian, &nRef); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptHeader, err)
	}
	if nRef < 0 {
		return nil, ErrCorruptHeader
	}

	refs := make([]Reference, nRef)
	for i := range refs {
		var lName int32
		if err := binary.Read(r, binary.LittleEndian, &lName); err != nil {
			return nil, fmt.Errorf("%w: reference %d name length: %v", ErrCorruptHeader, i, err)
		}
		if lName < 1 {
			return nil, fmt.Errorf("%w: reference %d has empty name", ErrCorruptHeader, i)
		}
		name := make([]byte, lName)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, fmt.Errorf("%w: reference %d name: %v", ErrCorruptHeader, i, err)
		}
		name = bytes.TrimRight(name, "\x00")

		var lRef int32
		if err := binary.Read(r, binary.LittleEndian, &lRef); err != nil {
			return nil, fmt.Errorf("%w: reference %d length: %v", ErrCorruptHeader, i, err)
		}
		if lRef < 0 {
			return nil, fmt.Errorf("%w: reference %d has negative length", ErrCorruptHeader, i)
		}
		refs[i] = Reference{name: string(name), lRef: lRef}
	}

	return &Header{text: text, refs: refs}, nil
}
