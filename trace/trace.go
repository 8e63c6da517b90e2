// Package trace reads and writes binary instruction traces.
//
// A trace is a flat sequence of fixed-size little-endian records:
//
//	offset size field
//	0      1    type
//	1      1    sReg_a
//	2      1    sReg_b
//	3      1    dReg
//	4      4    PC
//	8      4    Addr
//
// Only LOAD and STORE records touch the data cache.
package trace

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/cachesim/cache"
)

// RecordSize is the size of one encoded record in bytes.
const RecordSize = 12

// Type is the instruction class of a record.
type Type uint8

// Record types, numbered as in the trace files.
const (
	TypeNOP Type = iota
	TypeRType
	TypeIType
	TypeLoad
	TypeStore
	TypeBranch
	TypeJType
	TypeSpecial
	TypeJRType
)

var typeNames = [...]string{
	TypeNOP:     "NOP",
	TypeRType:   "RTYPE",
	TypeIType:   "ITYPE",
	TypeLoad:    "LOAD",
	TypeStore:   "STORE",
	TypeBranch:  "BRANCH",
	TypeJType:   "JTYPE",
	TypeSpecial: "SPECIAL",
	TypeJRType:  "JRTYPE",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}

	return fmt.Sprintf("TYPE(%d)", uint8(t))
}

// Item is one decoded trace record.
type Item struct {
	Type  Type
	SRegA uint8
	SRegB uint8
	DReg  uint8
	PC    uint32
	Addr  uint32
}

// Load returns a LOAD record for addr.
func Load(addr uint32) Item {
	return Item{Type: TypeLoad, Addr: addr}
}

// Store returns a STORE record for addr.
func Store(addr uint32) Item {
	return Item{Type: TypeStore, Addr: addr}
}

// AccessKind maps a record to a cache access. ok is false for every record
// that does not access data memory.
func (it Item) AccessKind() (kind cache.Kind, ok bool) {
	switch it.Type {
	case TypeLoad:
		return cache.Load, true
	case TypeStore:
		return cache.Store, true
	default:
		return 0, false
	}
}

// Encode writes the record into buf, which must hold RecordSize bytes.
func (it Item) Encode(buf []byte) {
	_ = buf[RecordSize-1]
	buf[0] = byte(it.Type)
	buf[1] = it.SRegA
	buf[2] = it.SRegB
	buf[3] = it.DReg
	binary.LittleEndian.PutUint32(buf[4:8], it.PC)
	binary.LittleEndian.PutUint32(buf[8:12], it.Addr)
}

// Decode parses one record from buf, which must hold RecordSize bytes.
func Decode(buf []byte) Item {
	_ = buf[RecordSize-1]

	return Item{
		Type:  Type(buf[0]),
		SRegA: buf[1],
		SRegB: buf[2],
		DReg:  buf[3],
		PC:    binary.LittleEndian.Uint32(buf[4:8]),
		Addr:  binary.LittleEndian.Uint32(buf[8:12]),
	}
}
