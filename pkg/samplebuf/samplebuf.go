// Package samplebuf holds the per-receive-worker sample buffer: a contiguous
// slab of packet slots paired with atomic in-use flags. The receive worker
// that owns the buffer is the sole producer; the recorder that owns a given
// antenna is the sole consumer of that antenna's slots.
package samplebuf

import (
	"encoding/binary"
	"sync/atomic"
)

// HeaderSize is the fixed packet header length in bytes:
// frame, slot, cell and antenna ids, each a little-endian uint32.
const HeaderSize = 16

// Buffer is a fixed-size array of packet slots. Each slot carries one
// captured symbol (header + raw IQ payload) and a flag that is 0 while the
// slot is free and 1 while a recorder owns it.
type Buffer struct {
	data    []byte
	inuse   []uint32
	pktSize int
	numPkts int
}

// New allocates a buffer of numPkts slots, each holding a packet header plus
// payloadBytes of IQ data. The flag array is rounded up to a whole number of
// machine words so scans stay word-aligned.
func New(numPkts, payloadBytes int) *Buffer {
	pktSize := HeaderSize + payloadBytes
	flagWords := (numPkts + 1) &^ 1
	return &Buffer{
		data:    make([]byte, numPkts*pktSize),
		inuse:   make([]uint32, flagWords),
		pktSize: pktSize,
		numPkts: numPkts,
	}
}

// NumPackets returns the slot count.
func (b *Buffer) NumPackets() int { return b.numPkts }

// PacketSize returns the byte length of one slot (header + payload).
func (b *Buffer) PacketSize() int { return b.pktSize }

// Claim atomically takes ownership of slot pkt, flipping its flag 0 -> 1.
// It reports false if the slot is still held by a recorder or out of range.
func (b *Buffer) Claim(pkt int) bool {
	if pkt < 0 || pkt >= b.numPkts {
		return false
	}
	return atomic.CompareAndSwapUint32(&b.inuse[pkt], 0, 1)
}

// Release returns slot pkt to the free state, flipping its flag 1 -> 0.
func (b *Buffer) Release(pkt int) {
	if pkt < 0 || pkt >= b.numPkts {
		return
	}
	atomic.StoreUint32(&b.inuse[pkt], 0)
}

// InUse reports whether slot pkt is currently owned.
func (b *Buffer) InUse(pkt int) bool {
	if pkt < 0 || pkt >= b.numPkts {
		return false
	}
	return atomic.LoadUint32(&b.inuse[pkt]) != 0
}

// InUseCount returns the number of slots currently owned. Used by shutdown
// checks; not meant for the hot path.
func (b *Buffer) InUseCount() int {
	n := 0
	for i := 0; i < b.numPkts; i++ {
		if atomic.LoadUint32(&b.inuse[i]) != 0 {
			n++
		}
	}
	return n
}

// Slot returns the bytes of slot pkt, or nil when pkt is out of range.
func (b *Buffer) Slot(pkt int) []byte {
	if pkt < 0 || pkt >= b.numPkts {
		return nil
	}
	off := pkt * b.pktSize
	return b.data[off : off+b.pktSize]
}

// PutHeader writes the packet header into slot bytes.
func PutHeader(slot []byte, frame, slotID, cell, ant uint32) {
	binary.LittleEndian.PutUint32(slot[0:], frame)
	binary.LittleEndian.PutUint32(slot[4:], slotID)
	binary.LittleEndian.PutUint32(slot[8:], cell)
	binary.LittleEndian.PutUint32(slot[12:], ant)
}

// ParseHeader reads the packet header from slot bytes.
func ParseHeader(slot []byte) (frame, slotID, cell, ant uint32) {
	frame = binary.LittleEndian.Uint32(slot[0:])
	slotID = binary.LittleEndian.Uint32(slot[4:])
	cell = binary.LittleEndian.Uint32(slot[8:])
	ant = binary.LittleEndian.Uint32(slot[12:])
	return
}

// PutPayload writes interleaved IQ samples after the header.
func PutPayload(slot []byte, iq []int16) {
	p := slot[HeaderSize:]
	for i, s := range iq {
		binary.LittleEndian.PutUint16(p[2*i:], uint16(s))
	}
}

// Payload reads the interleaved IQ samples after the header.
func Payload(slot []byte) []int16 {
	p := slot[HeaderSize:]
	iq := make([]int16, len(p)/2)
	for i := range iq {
		iq[i] = int16(binary.LittleEndian.Uint16(p[2*i:]))
	}
	return iq
}
