package main

import "testing"

func unpackQI(words []uint32) []Cint16 {
	out := make([]Cint16, len(words))
	for i, w := range words {
		out[i] = Cint16{Re: int16(uint16(w)), Im: int16(uint16(w >> 16))}
	}
	return out
}

func TestSequenceLengths(t *testing.T) {
	if got := len(stsSequence()); got != 16 {
		t.Errorf("STS period = %d samples, want 16", got)
	}
	if got := len(goldIFFTSequence()); got != 128 {
		t.Errorf("gold sequence = %d samples, want 128", got)
	}
	if got := len(ltsTime()); got != 64 {
		t.Errorf("LTS = %d samples, want 64", got)
	}
	if got := len(goldSequence()); got != 127 {
		t.Errorf("gold code = %d chips, want 127", got)
	}
	if got := len(zadoffChuTime(256, 52)); got != 256 {
		t.Errorf("ZC time symbol = %d samples, want fft size 256", got)
	}
}

func TestBeaconComposition(t *testing.T) {
	cfg, err := makeConfig(t, 1, "BGPG", nil, nil)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	// 15 reps of STS(16) + 2 reps of gold_ifft(128)
	if cfg.BeaconSize != 15*16+2*128 {
		t.Fatalf("BeaconSize = %d, want 496", cfg.BeaconSize)
	}
	if len(cfg.Beacon) != 496 {
		t.Fatalf("packed beacon = %d words, want 496", len(cfg.Beacon))
	}

	beacon := unpackQI(cfg.Beacon)
	sts := floatToCint16(stsSequence())
	for i := 0; i < 16; i++ {
		if beacon[i] != sts[i] {
			t.Fatalf("beacon[%d] = %v, want STS sample %v", i, beacon[i], sts[i])
		}
	}
	gold := floatToCint16(goldIFFTSequence())
	for i := 0; i < 128; i++ {
		if beacon[240+i] != gold[i] {
			t.Fatalf("beacon[%d] = %v, want gold sample %v", 240+i, beacon[240+i], gold[i])
		}
	}

	// padded beacon fills exactly one symbol
	if len(cfg.BeaconCI16) != cfg.SampsPerSymbol {
		t.Errorf("padded beacon = %d samples, want %d", len(cfg.BeaconCI16), cfg.SampsPerSymbol)
	}
	for i := 0; i < cfg.Prefix; i++ {
		if cfg.BeaconCI16[i] != (Cint16{}) {
			t.Fatalf("prefix pad sample %d not zero", i)
		}
	}

	// conjugated correlator coefficients
	coeffs := unpackQI(cfg.Coeffs)
	for i := range coeffs {
		if coeffs[i].Re != gold[i].Re || coeffs[i].Im != -gold[i].Im {
			t.Fatalf("coeff[%d] = %v not conjugate of %v", i, coeffs[i], gold[i])
		}
	}
}

func TestPilotComposition(t *testing.T) {
	cfg, err := makeConfig(t, 1, "BGPG", nil, nil)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	// packed pilot fills the radio's transmit RAM
	if len(cfg.Pilot) != kFpgaTxRamSize {
		t.Errorf("packed pilot = %d words, want %d", len(cfg.Pilot), kFpgaTxRamSize)
	}

	// fft 64, cp 16: cf32 form is prefix + reps*(fft+cp) + postfix
	want := cfg.Prefix + cfg.SymbolsPerSubframe*(cfg.FFTSize+cfg.CPSize) + cfg.Postfix
	if len(cfg.PilotCF32) != want {
		t.Errorf("pilot cf32 = %d samples, want %d", len(cfg.PilotCF32), want)
	}

	// the cyclic prefix is a copy of the symbol tail
	lts := floatToCint16(ltsTime())
	body := cfg.PilotCI16[cfg.Prefix:]
	for i := 0; i < cfg.CPSize; i++ {
		if body[i] != lts[len(lts)-cfg.CPSize+i] {
			t.Fatalf("cp sample %d does not match symbol tail", i)
		}
	}
	for i := 0; i < len(lts); i++ {
		if body[cfg.CPSize+i] != lts[i] {
			t.Fatalf("pilot body sample %d does not match LTS", i)
		}
	}
}

func TestPackingRoundTrip(t *testing.T) {
	in := []Cint16{{100, -200}, {-32768, 32767}, {0, 1}}
	packed := cint16ToUint32(in, false, "QI")
	for i, v := range in {
		want := uint32(uint16(v.Im))<<16 | uint32(uint16(v.Re))
		if packed[i] != want {
			t.Errorf("packed[%d] = %#x, want %#x", i, packed[i], want)
		}
	}
	cf := uint32ToCfloat(packed, "QI")
	for i, v := range in {
		if cf[i] != complex(float32(v.Re)/32768, float32(v.Im)/32768) {
			t.Errorf("cf[%d] = %v from %v", i, cf[i], v)
		}
	}

	iq := cint16ToUint32(in, false, "IQ")
	re, im := int16(100), int16(-200)
	if iq[0] != uint32(uint16(re))<<16|uint32(uint16(im)) {
		t.Errorf("IQ order packing wrong: %#x", iq[0])
	}
}

func TestSaturation(t *testing.T) {
	out := floatToCint16([]complex128{complex(2.0, -2.0)})
	if out[0].Re != 32767 || out[0].Im != -32768 {
		t.Errorf("saturation = %v, want full scale", out[0])
	}
}
