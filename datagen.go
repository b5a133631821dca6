package main

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// modTable returns the constellation for the configured modulation and the
// number of bits per symbol.
func modTable(mod string) ([]complex128, int) {
	switch mod {
	case "16QAM":
		lv := []float64{-3, -1, 3, 1} // gray order
		s := 1 / math.Sqrt(10)
		tab := make([]complex128, 16)
		for b := 0; b < 16; b++ {
			tab[b] = complex(lv[b>>2]*s, lv[b&3]*s)
		}
		return tab, 4
	case "64QAM":
		lv := []float64{-7, -5, -1, -3, 7, 5, 1, 3}
		s := 1 / math.Sqrt(42)
		tab := make([]complex128, 64)
		for b := 0; b < 64; b++ {
			tab[b] = complex(lv[b>>3]*s, lv[b&7]*s)
		}
		return tab, 6
	default: // QPSK
		s := 1 / math.Sqrt2
		return []complex128{
			complex(s, s), complex(s, -s), complex(-s, s), complex(-s, -s),
		}, 2
	}
}

// GenerateULData produces the random-bits uplink transmit files that the
// record path later loads: per client SDR, one frequency-domain and one
// time-domain binary of little-endian complex<float>.
func GenerateULData(c *Config, directory string) error {
	if !c.ClientPresent {
		return fmt.Errorf("uplink data generation requires a Clients section")
	}
	if err := os.MkdirAll(directory, 0755); err != nil {
		return err
	}

	tab, bits := modTable(c.DataMod)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	scIdx := dataScIndices(c.FFTSize, c.SymbolDataScNum)

	for i := 0; i < c.NumClSdrs; i++ {
		tag := c.ulDataFileTag(i)
		fdName := filepath.Join(directory, "ul_data_f_"+tag)
		tdName := filepath.Join(directory, "ul_data_t_"+tag)

		fdFile, err := os.Create(fdName)
		if err != nil {
			return err
		}
		tdFile, err := os.Create(tdName)
		if err != nil {
			fdFile.Close()
			return err
		}

		for frame := 0; frame < c.ULDataFrameNum; frame++ {
			for u := 0; u < len(c.ClULSymbols[i]); u++ {
				for h := 0; h < c.ClSdrCh; h++ {
					freq := make([]complex128, 0, c.FFTSize*c.SymbolsPerSubframe)
					td := make([]complex128, 0, c.SampsPerSymbol)
					td = append(td, make([]complex128, c.Prefix)...)
					for s := 0; s < c.SymbolsPerSubframe; s++ {
						bins := make([]complex128, c.FFTSize)
						for _, bin := range scIdx {
							bins[bin] = tab[rng.Intn(1<<bits)]
						}
						freq = append(freq, bins...)
						sym := ifft(bins)
						cp := c.CPSize
						if cp > len(sym) {
							cp = len(sym)
						}
						td = append(td, sym[len(sym)-cp:]...)
						td = append(td, sym...)
					}
					td = append(td, make([]complex128, c.Postfix)...)

					if err := writeCfloat(fdFile, freq); err != nil {
						fdFile.Close()
						tdFile.Close()
						return err
					}
					if err := writeCfloat(tdFile, td); err != nil {
						fdFile.Close()
						tdFile.Close()
						return err
					}
				}
			}
		}
		fdFile.Close()
		tdFile.Close()
		log.Printf("[INFO] Generated UL data for radio %d: %s, %s", i, fdName, tdName)
	}
	return nil
}

func writeCfloat(f *os.File, data []complex128) error {
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[8*i:], math.Float32bits(float32(real(v))))
		binary.LittleEndian.PutUint32(buf[8*i+4:], math.Float32bits(float32(imag(v))))
	}
	_, err := f.Write(buf)
	return err
}

func f32frombits(b uint32) float32 { return math.Float32frombits(b) }
