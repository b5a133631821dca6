package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

func (c *Config) ulDataFileTag(sdr int) string {
	ulSlots := 0
	if sdr < len(c.ClULSymbols) {
		ulSlots = len(c.ClULSymbols[sdr])
	}
	return fmt.Sprintf("%s_%d_%d_%d_%d_%d_%s_%d.bin",
		c.DataMod, c.SymbolDataScNum, c.FFTSize, c.SymbolsPerSubframe,
		ulSlots, c.ULDataFrameNum, c.ClChannel, sdr)
}

// LoadULData reads the pre-generated uplink transmit samples for every
// client SDR: one file of frequency-domain data and one of time-domain
// data per SDR. A short read logs a warning and continues; a missing file
// is fatal.
func (c *Config) LoadULData(directory string) error {
	if !c.ULDataSymPresent {
		return nil
	}
	if !c.ClientPresent {
		log.Printf("[WARN] uplink slots scheduled but no clients configured; skipping UL data load")
		return nil
	}

	c.TxDataFreqDom = make([][]complex64, c.NumClAntennas)
	c.TxDataTimeDom = make([][]complex64, c.NumClAntennas)

	// one frame worth of data per antenna
	for i := 0; i < c.NumClSdrs; i++ {
		tag := c.ulDataFileTag(i)

		fdName := filepath.Join(directory, "ul_data_f_"+tag)
		log.Printf("[INFO] Loading UL frequency-domain data for radio %d from %s", i, fdName)
		c.TxFdDataFiles = append(c.TxFdDataFiles, "ul_data_f_"+tag)
		fdFile, err := os.Open(fdName)
		if err != nil {
			return fmt.Errorf("%s not found", fdName)
		}

		tdName := filepath.Join(directory, "ul_data_t_"+tag)
		log.Printf("[INFO] Loading UL time-domain data for radio %d from %s", i, tdName)
		c.TxTdDataFiles = append(c.TxTdDataFiles, "ul_data_t_"+tag)
		tdFile, err := os.Open(tdName)
		if err != nil {
			fdFile.Close()
			return fmt.Errorf("%s not found", tdName)
		}

		for u := 0; u < len(c.ClULSymbols[i]); u++ {
			for h := 0; h < c.ClSdrCh; h++ {
				antI := i*c.ClSdrCh + h

				freqLen := c.FFTSize * c.SymbolsPerSubframe
				data, n := readCfloat(fdFile, freqLen)
				if n != freqLen {
					log.Printf("[WARN] BAD Read of Uplink Freq-Domain Data: %d/%d", n, freqLen)
				}
				c.TxDataFreqDom[antI] = append(c.TxDataFreqDom[antI], data...)

				data, n = readCfloat(tdFile, c.SampsPerSymbol)
				if n != c.SampsPerSymbol {
					log.Printf("[WARN] BAD Read of Uplink Time-Domain Data: %d/%d", n, c.SampsPerSymbol)
				}
				c.TxDataTimeDom[antI] = append(c.TxDataTimeDom[antI], data...)
			}
		}
		fdFile.Close()
		tdFile.Close()
	}
	return nil
}

// readCfloat reads up to n little-endian complex<float> records, returning
// the full-length slice (zero-filled past a short read) and the count
// actually read.
func readCfloat(r io.Reader, n int) ([]complex64, int) {
	buf := make([]byte, 8*n)
	read, _ := io.ReadFull(r, buf)
	out := make([]complex64, n)
	whole := read / 8
	for i := 0; i < whole; i++ {
		re := binary.LittleEndian.Uint32(buf[8*i:])
		im := binary.LittleEndian.Uint32(buf[8*i+4:])
		out[i] = complex(f32frombits(re), f32frombits(im))
	}
	return out, whole
}
