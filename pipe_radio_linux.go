//go:build linux

package main

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// PipeRadio reads raw interleaved IQ from a character device or named pipe
// (an XDMA-style stream) and frames it against the configured schedule.
// The stream carries no timestamps, so frame and slot ids are synthesized
// by stepping through the recordable slots in order.
type PipeRadio struct {
	cfg      *Config
	fd       int
	recSlots [][]int
	states   []simAntState
}

// NewPipeRadio opens the device and tunes the pipe buffer for throughput.
func NewPipeRadio(cfg *Config, devicePath string) (*PipeRadio, error) {
	fd, err := unix.Open(devicePath, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("could not open device %s: %w", devicePath, err)
	}
	const maxPipeSize = 1024 * 1024
	_, _ = unix.FcntlInt(uintptr(fd), unix.F_SETPIPE_SZ, maxPipeSize)

	rec := make([][]int, len(cfg.Frames))
	for f, frame := range cfg.Frames {
		for s := 0; s < len(frame); s++ {
			switch frame[s] {
			case 'P', 'U', 'N':
				rec[f] = append(rec[f], s)
			}
		}
	}
	return &PipeRadio{
		cfg:      cfg,
		fd:       fd,
		recSlots: rec,
		states:   make([]simAntState, cfg.getTotNumAntennas()),
	}, nil
}

// RxSymbol reads one symbol's worth of bytes for ant, retrying on EINTR
// and idling briefly on an empty pipe.
func (p *PipeRadio) RxSymbol(ant int, iq []int16) (uint32, uint32, bool) {
	if len(p.recSlots) == 0 {
		return 0, 0, false
	}
	buf := make([]byte, 2*len(iq))
	total := 0
	for total < len(buf) {
		if !p.cfg.Running() {
			return 0, 0, false
		}
		n, err := unix.Read(p.fd, buf[total:])
		if n > 0 {
			total += n
		}
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return 0, 0, false
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	for i := range iq {
		iq[i] = int16(uint16(buf[2*i]) | uint16(buf[2*i+1])<<8)
	}

	st := &p.states[ant]
	for {
		slots := p.recSlots[st.frame%len(p.recSlots)]
		if st.slotPos < len(slots) {
			break
		}
		st.frame++
		st.slotPos = 0
	}
	slots := p.recSlots[st.frame%len(p.recSlots)]
	slot := slots[st.slotPos]
	st.slotPos++
	return uint32(st.frame), uint32(slot), true
}

// ClientLoop idles; a pipe source has no client transmit path.
func (p *PipeRadio) ClientLoop(i int) {
	for p.cfg.Running() {
		time.Sleep(time.Millisecond)
	}
}

// Beamsweep idles; a pipe source has no transmit path.
func (p *PipeRadio) Beamsweep() {
	for p.cfg.Running() {
		time.Sleep(time.Millisecond)
	}
}

func (p *PipeRadio) Close() error {
	return unix.Close(p.fd)
}
