// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrappers

import (
	"encoding/binary"
	"errors"
	"math"
)

const (
	// MaxStringLen is the longest string a Packer will encode.
	MaxStringLen = math.MaxUint16
)

var (
	ErrInsufficientLength = errors.New("packer has insufficient length for input")
	errBadBool            = errors.New("unexpected value when unpacking bool")
	errOversized          = errors.New("size is larger than limit")
	errStringTooLong      = errors.New("string too long")
)

// Packer packs and unpacks values to and from a big-endian byte array.
// Packing appends to Bytes; unpacking advances Offset. All widths are
// fixed, so a given value sequence always produces identical bytes.
type Packer struct {
	Errs

	// The largest allowed size of the byte array
	MaxSize int
	// The current byte array
	Bytes []byte
	// The offset that is being read from in the byte array
	Offset int
}

// PackByte appends a single byte.
func (p *Packer) PackByte(val byte) {
	if !p.room(ByteLen) {
		return
	}
	p.Bytes = append(p.Bytes, val)
}

// UnpackByte reads a single byte.
func (p *Packer) UnpackByte() byte {
	p.checkSpace(ByteLen)
	if p.Errored() {
		return 0
	}
	val := p.Bytes[p.Offset]
	p.Offset += ByteLen
	return val
}

// PackShort appends a uint16.
func (p *Packer) PackShort(val uint16) {
	if !p.room(ShortLen) {
		return
	}
	p.Bytes = binary.BigEndian.AppendUint16(p.Bytes, val)
}

// UnpackShort reads a uint16.
func (p *Packer) UnpackShort() uint16 {
	p.checkSpace(ShortLen)
	if p.Errored() {
		return 0
	}
	val := binary.BigEndian.Uint16(p.Bytes[p.Offset:])
	p.Offset += ShortLen
	return val
}

// PackInt appends a uint32.
func (p *Packer) PackInt(val uint32) {
	if !p.room(IntLen) {
		return
	}
	p.Bytes = binary.BigEndian.AppendUint32(p.Bytes, val)
}

// UnpackInt reads a uint32.
func (p *Packer) UnpackInt() uint32 {
	p.checkSpace(IntLen)
	if p.Errored() {
		return 0
	}
	val := binary.BigEndian.Uint32(p.Bytes[p.Offset:])
	p.Offset += IntLen
	return val
}

// PackLong appends a uint64.
func (p *Packer) PackLong(val uint64) {
	if !p.room(LongLen) {
		return
	}
	p.Bytes = binary.BigEndian.AppendUint64(p.Bytes, val)
}

// UnpackLong reads a uint64.
func (p *Packer) UnpackLong() uint64 {
	p.checkSpace(LongLen)
	if p.Errored() {
		return 0
	}
	val := binary.BigEndian.Uint64(p.Bytes[p.Offset:])
	p.Offset += LongLen
	return val
}

// PackInt64 appends a signed 64-bit integer as its two's complement
// bit pattern. Raw fixed-point values are packed this way; they are
// never encoded as decimal text.
func (p *Packer) PackInt64(val int64) {
	p.PackLong(uint64(val))
}

// UnpackInt64 reads a signed 64-bit integer.
func (p *Packer) UnpackInt64() int64 {
	return int64(p.UnpackLong())
}

// PackBool appends a bool as a single 0 or 1 byte.
func (p *Packer) PackBool(b bool) {
	if b {
		p.PackByte(1)
	} else {
		p.PackByte(0)
	}
}

// UnpackBool reads a bool, rejecting any byte other than 0 or 1.
func (p *Packer) UnpackBool() bool {
	switch p.UnpackByte() {
	case 0:
		return false
	case 1:
		return true
	default:
		p.Add(errBadBool)
		return false
	}
}

// PackFixedBytes appends a byte slice with no length descriptor.
func (p *Packer) PackFixedBytes(bytes []byte) {
	if !p.room(len(bytes)) {
		return
	}
	p.Bytes = append(p.Bytes, bytes...)
}

// UnpackFixedBytes reads size bytes with no length descriptor.
func (p *Packer) UnpackFixedBytes(size int) []byte {
	p.checkSpace(size)
	if p.Errored() {
		return nil
	}
	bytes := p.Bytes[p.Offset : p.Offset+size]
	p.Offset += size
	return bytes
}

// PackBytes appends a length-prefixed byte slice.
func (p *Packer) PackBytes(bytes []byte) {
	p.PackInt(uint32(len(bytes)))
	p.PackFixedBytes(bytes)
}

// UnpackBytes reads a length-prefixed byte slice.
func (p *Packer) UnpackBytes() []byte {
	size := p.UnpackInt()
	return p.UnpackFixedBytes(int(size))
}

// UnpackLimitedBytes reads a length-prefixed byte slice, rejecting
// declared sizes above limit.
func (p *Packer) UnpackLimitedBytes(limit uint32) []byte {
	size := p.UnpackInt()
	if size > limit {
		p.Add(errOversized)
		return nil
	}
	return p.UnpackFixedBytes(int(size))
}

// PackStr appends a length-prefixed string.
func (p *Packer) PackStr(str string) {
	if len(str) > MaxStringLen {
		p.Add(errStringTooLong)
		return
	}
	p.PackShort(uint16(len(str)))
	p.PackFixedBytes([]byte(str))
}

// UnpackStr reads a length-prefixed string.
func (p *Packer) UnpackStr() string {
	size := p.UnpackShort()
	return string(p.UnpackFixedBytes(int(size)))
}

// Remaining reports whether unread bytes are left. A canonical decode
// must consume its input exactly.
func (p *Packer) Remaining() int {
	return len(p.Bytes) - p.Offset
}

func (p *Packer) checkSpace(bytes int) {
	if bytes < 0 || len(p.Bytes)-p.Offset < bytes {
		p.Add(ErrInsufficientLength)
	}
}

func (p *Packer) room(bytes int) bool {
	if p.Errored() {
		return false
	}
	if p.MaxSize > 0 && len(p.Bytes)+bytes > p.MaxSize {
		p.Add(ErrInsufficientLength)
		return false
	}
	return true
}
