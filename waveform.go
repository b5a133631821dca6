package main

import (
	"fmt"
	"log"
)

// composeBeacon builds the beacon subframe transmitted each frame:
// an STS run for AGC settling followed by the gold-IFFT sync sequence,
// 15 reps of STS(16) + 2 reps of gold_ifft(128).
func (c *Config) composeBeacon() error {
	gold := goldIFFTSequence()
	goldCI16 := floatToCint16(gold)
	c.GoldCF32 = make([]complex64, len(gold))
	for i, v := range gold {
		c.GoldCF32[i] = complex(float32(real(v)), float32(imag(v)))
	}

	stsCI16 := floatToCint16(stsSequence())

	beacon := make([]Cint16, 0, 15*len(stsCI16)+2*len(goldCI16))
	for i := 0; i < 15; i++ {
		beacon = append(beacon, stsCI16...)
	}
	for i := 0; i < 2; i++ {
		beacon = append(beacon, goldCI16...)
	}
	c.BeaconSize = len(beacon)

	if c.SampsPerSymbol < c.BeaconSize+c.Prefix+c.Postfix {
		return fmt.Errorf("minimum supported subframe_size is %d", c.BeaconSize)
	}

	c.Beacon = cint16ToUint32(beacon, false, "QI")
	c.Coeffs = cint16ToUint32(goldCI16, true, "QI")

	// sandwich with the zero pads to fill one full symbol
	padded := make([]Cint16, 0, c.SampsPerSymbol)
	padded = append(padded, make([]Cint16, c.Prefix)...)
	padded = append(padded, beacon...)
	padded = append(padded, make([]Cint16, c.SubframeSize-c.BeaconSize)...)
	padded = append(padded, make([]Cint16, c.Postfix)...)
	c.BeaconCI16 = padded
	return nil
}

// composePilot builds the pilot subframe: the chosen reference sequence
// with a cyclic prefix, replicated across the subframe and padded. The
// packed form is zero-extended to the radio's transmit RAM size.
func (c *Config) composePilot() {
	if c.FFTSize == 64 {
		c.PilotSymF = ltsFreq()
		c.PilotSym = ltsTime()
	} else if c.PilotSeqName == "zadoff-chu" {
		c.PilotSymF = zadoffChuFreq(c.FFTSize, c.SymbolDataScNum)
		c.PilotSym = zadoffChuTime(c.FFTSize, c.SymbolDataScNum)
	} else {
		log.Printf("[WARN] %s is not supported! Choose either LTS (64-fft) or zadoff-chu", c.PilotSeqName)
		c.PilotSymF = zadoffChuFreq(c.FFTSize, c.SymbolDataScNum)
		c.PilotSym = zadoffChuTime(c.FFTSize, c.SymbolDataScNum)
	}

	iq := floatToCint16(c.PilotSym)
	cp := c.CPSize
	if cp > len(iq) {
		cp = len(iq)
	}
	withCP := make([]Cint16, 0, cp+len(iq))
	withCP = append(withCP, iq[len(iq)-cp:]...)
	withCP = append(withCP, iq...)

	pilot := make([]Cint16, 0, c.SampsPerSymbol)
	pilot = append(pilot, make([]Cint16, c.Prefix)...)
	for i := 0; i < c.SymbolsPerSubframe; i++ {
		pilot = append(pilot, withCP...)
	}
	pilot = append(pilot, make([]Cint16, c.Postfix)...)
	c.PilotCI16 = pilot

	c.Pilot = cint16ToUint32(pilot, false, "QI")
	c.PilotCF32 = uint32ToCfloat(c.Pilot, "QI")
	for len(c.Pilot) < kFpgaTxRamSize {
		c.Pilot = append(c.Pilot, 0)
	}
}
