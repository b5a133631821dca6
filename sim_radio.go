package main

import (
	"math"
	"time"
)

// SimRadio synthesizes captures without hardware: a DDS tone with a
// per-antenna phase offset, stepped through the recordable slots of the
// configured schedule. Used by the -sim run mode and by the tests.
type SimRadio struct {
	cfg        *Config
	frameLimit int
	interval   time.Duration

	recSlots [][]int
	states   []simAntState
	tuning   uint32
}

type simAntState struct {
	frame   int
	slotPos int
	phase   uint32
}

// NewSimRadio builds a simulator that stops delivering after frameLimit
// frames per antenna (0 means unlimited). interval paces each capture to
// mimic a blocking radio read.
func NewSimRadio(cfg *Config, frameLimit int, interval time.Duration) *SimRadio {
	// recordable slots per frame string: pilots, uplink and noise
	rec := make([][]int, len(cfg.Frames))
	for f, frame := range cfg.Frames {
		for s := 0; s < len(frame); s++ {
			switch frame[s] {
			case 'P', 'U', 'N':
				rec[f] = append(rec[f], s)
			}
		}
	}

	var toneFreq float64 = 26e6
	var sampleRate float64 = 244.5e6
	return &SimRadio{
		cfg:        cfg,
		frameLimit: frameLimit,
		interval:   interval,
		recSlots:   rec,
		states:     make([]simAntState, cfg.getTotNumAntennas()),
		tuning:     uint32(toneFreq / sampleRate * 4294967296.0),
	}
}

// RxSymbol delivers the next recordable symbol for ant.
func (s *SimRadio) RxSymbol(ant int, iq []int16) (uint32, uint32, bool) {
	if len(s.recSlots) == 0 {
		return 0, 0, false
	}
	st := &s.states[ant]
	for {
		if s.frameLimit > 0 && st.frame >= s.frameLimit {
			return 0, 0, false
		}
		slots := s.recSlots[st.frame%len(s.recSlots)]
		if st.slotPos < len(slots) {
			break
		}
		st.frame++
		st.slotPos = 0
	}

	slots := s.recSlots[st.frame%len(s.recSlots)]
	slot := slots[st.slotPos]
	st.slotPos++

	s.fill(ant, st, iq)
	if s.interval > 0 {
		time.Sleep(s.interval)
	}
	return uint32(st.frame), uint32(slot), true
}

// fill renders the tone with an integer phase accumulator, same DDS shape
// as the hardware simulator's.
func (s *SimRadio) fill(ant int, st *simAntState, iq []int16) {
	const amplitude = 8192.0
	offset := uint32(ant) * (4294967296 / 16)
	for i := 0; i < len(iq)/2; i++ {
		rads := float64(st.phase+offset) * (2.0 * math.Pi / 4294967296.0)
		iq[2*i] = int16(amplitude * math.Cos(rads))
		iq[2*i+1] = int16(amplitude * math.Sin(rads))
		st.phase += s.tuning
	}
}

// ClientLoop idles in place of a client transmit schedule.
func (s *SimRadio) ClientLoop(i int) {
	for s.cfg.Running() {
		time.Sleep(time.Millisecond)
	}
}

// Beamsweep idles in place of the transmit-only sweep.
func (s *SimRadio) Beamsweep() {
	for s.cfg.Running() {
		time.Sleep(time.Millisecond)
	}
}

func (s *SimRadio) Close() error { return nil }
