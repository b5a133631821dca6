package main

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Cint16 is one complex sample in the radio's native 16-bit fixed point.
type Cint16 struct {
	Re int16
	Im int16
}

// ifft computes the normalized inverse FFT of bins.
func ifft(bins []complex128) []complex128 {
	n := len(bins)
	fft := fourier.NewCmplxFFT(n)
	out := fft.Sequence(nil, bins)
	for i := range out {
		out[i] /= complex(float64(n), 0)
	}
	return out
}

// stsSequence returns one 16-sample period of the 802.11 short training
// sequence, synthesized from its frequency-domain definition on a 64-point
// grid. The full STS is periodic with period 16, so the first 16 output
// samples are the canonical period.
func stsSequence() []complex128 {
	scale := complex(math.Sqrt(13.0/6.0), 0)
	pp := complex(1, 1)
	mm := complex(-1, -1)
	// subcarrier -> value, nonzero every 4th bin
	sts := map[int]complex128{
		-24: pp, -20: mm, -16: pp, -12: mm, -8: mm, -4: pp,
		4: mm, 8: mm, 12: pp, 16: pp, 20: pp, 24: pp,
	}
	bins := make([]complex128, 64)
	for sc, v := range sts {
		bins[(sc+64)%64] = scale * v
	}
	return ifft(bins)[:16]
}

// goldSequence generates a 127-chip Gold code from the preferred pair of
// degree-7 m-sequences (x^7+x^3+1 and x^7+x^3+x^2+x+1), all-ones seeds.
func goldSequence() []int {
	mseq := func(taps []uint) []int {
		state := uint(0x7f)
		out := make([]int, 127)
		for i := range out {
			out[i] = int(state & 1)
			fb := uint(0)
			for _, t := range taps {
				fb ^= (state >> (t - 1)) & 1
			}
			state = (state >> 1) | (fb << 6)
		}
		return out
	}
	m1 := mseq([]uint{7, 3})
	m2 := mseq([]uint{7, 3, 2, 1})
	gold := make([]int, 127)
	for i := range gold {
		gold[i] = m1[i] ^ m2[i]
	}
	return gold
}

// goldIFFTSequence returns the 128-sample synchronization sequence: the
// BPSK-mapped Gold code placed on bins 1..127 (DC nulled) and transformed to
// time domain.
func goldIFFTSequence() []complex128 {
	gold := goldSequence()
	bins := make([]complex128, 128)
	for i, c := range gold {
		v := 1.0
		if c == 1 {
			v = -1.0
		}
		bins[i+1] = complex(v, 0)
	}
	return ifft(bins)
}

// ltsFreq is the 802.11 long training sequence on a 64-point grid,
// subcarriers -26..26 with DC nulled.
func ltsFreq() []complex128 {
	neg := []float64{1, 1, -1, -1, 1, 1, -1, 1, -1, 1, 1, 1, 1, 1, 1, -1, -1, 1, 1, -1, 1, -1, 1, 1, 1, 1}
	pos := []float64{1, -1, -1, 1, 1, -1, 1, -1, 1, -1, -1, -1, -1, -1, 1, 1, -1, -1, 1, -1, 1, -1, 1, 1, 1, 1}
	bins := make([]complex128, 64)
	for i, v := range neg {
		sc := -26 + i
		bins[(sc+64)%64] = complex(v, 0)
	}
	for i, v := range pos {
		sc := 1 + i
		bins[sc] = complex(v, 0)
	}
	return bins
}

// ltsTime is the time-domain LTS symbol (64 samples).
func ltsTime() []complex128 {
	return ifft(ltsFreq())
}

// zadoffChu returns a length-n Zadoff-Chu sequence with the given root.
func zadoffChu(n, root int) []complex128 {
	out := make([]complex128, n)
	u := float64(root)
	for k := 0; k < n; k++ {
		var phase float64
		if n%2 == 0 {
			phase = -math.Pi * u * float64(k) * float64(k) / float64(n)
		} else {
			phase = -math.Pi * u * float64(k) * float64(k+1) / float64(n)
		}
		out[k] = cmplx.Exp(complex(0, phase))
	}
	return out
}

// dataScIndices returns the FFT bin indices of the data subcarriers:
// dataScNum bins centered on DC, with the DC bin itself skipped. Full
// occupancy uses every bin.
func dataScIndices(fftSize, dataScNum int) []int {
	if dataScNum >= fftSize {
		idx := make([]int, fftSize)
		for i := range idx {
			idx[i] = (i - fftSize/2 + fftSize) % fftSize
		}
		return idx
	}
	idx := make([]int, 0, dataScNum)
	half := dataScNum / 2
	for i := 0; i < dataScNum; i++ {
		sc := i - half
		if sc >= 0 {
			sc++
		}
		idx = append(idx, (sc+fftSize)%fftSize)
	}
	return idx
}

// zadoffChuFreq maps a Zadoff-Chu sequence of length dataScNum onto the data
// subcarriers of an fftSize grid.
func zadoffChuFreq(fftSize, dataScNum int) []complex128 {
	zc := zadoffChu(dataScNum, 25)
	bins := make([]complex128, fftSize)
	for i, bin := range dataScIndices(fftSize, dataScNum) {
		bins[bin] = zc[i]
	}
	return bins
}

// zadoffChuTime is the time-domain pilot symbol for non-64 FFT sizes.
func zadoffChuTime(fftSize, dataScNum int) []complex128 {
	return ifft(zadoffChuFreq(fftSize, dataScNum))
}

// floatToCint16 converts unit-scale complex samples to fixed point,
// saturating at the int16 range.
func floatToCint16(in []complex128) []Cint16 {
	out := make([]Cint16, len(in))
	for i, v := range in {
		out[i] = Cint16{sat16(real(v) * 32768), sat16(imag(v) * 32768)}
	}
	return out
}

func sat16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// cint16ToUint32 packs complex fixed-point samples for the radio's transmit
// RAM. order selects which component lands in the high half-word; conj
// negates the imaginary part (used for correlator coefficients).
func cint16ToUint32(in []Cint16, conj bool, order string) []uint32 {
	out := make([]uint32, len(in))
	for i, v := range in {
		im := v.Im
		if conj {
			im = -im
		}
		if order == "IQ" {
			out[i] = uint32(uint16(v.Re))<<16 | uint32(uint16(im))
		} else { // "QI"
			out[i] = uint32(uint16(im))<<16 | uint32(uint16(v.Re))
		}
	}
	return out
}

// uint32ToCfloat unpacks transmit-RAM words back to unit-scale complex
// floats.
func uint32ToCfloat(in []uint32, order string) []complex64 {
	out := make([]complex64, len(in))
	for i, w := range in {
		hi := int16(uint16(w >> 16))
		lo := int16(uint16(w))
		re, im := lo, hi
		if order == "IQ" {
			re, im = hi, lo
		}
		out[i] = complex(float32(re)/32768, float32(im)/32768)
	}
	return out
}
