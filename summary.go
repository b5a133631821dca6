package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// printSummary renders the parsed topology and PHY parameters before the
// pipelines start.
func printSummary(c *Config) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Parameter", "Value"})

	rows := [][]string{
		{"Frequency", fmt.Sprintf("%.3f MHz", c.Freq/1e6)},
		{"Sample rate", fmt.Sprintf("%.3f MS/s", c.Rate/1e6)},
		{"FFT size", fmt.Sprintf("%d", c.FFTSize)},
		{"CP size", fmt.Sprintf("%d", c.CPSize)},
		{"Samples per symbol", fmt.Sprintf("%d", c.SampsPerSymbol)},
		{"Symbols per frame", fmt.Sprintf("%d", c.SymbolsPerFrame)},
		{"Cells", fmt.Sprintf("%d", c.NumCells)},
		{"BS antennas", fmt.Sprintf("%d", c.getTotNumAntennas())},
		{"Client antennas", fmt.Sprintf("%d", c.NumClAntennas)},
		{"Channel", c.BSChannel},
		{"Reciprocal calibration", fmt.Sprintf("%v", c.ReciprocalCalib)},
		{"RX workers", fmt.Sprintf("%d", c.RxThreadNum)},
		{"Recorder workers", fmt.Sprintf("%d", c.TaskThreadNum)},
		{"Core pinning", fmt.Sprintf("%v", c.CoreAlloc)},
		{"Trace file", c.TraceFile},
	}
	if len(c.Frames) > 0 {
		rows = append(rows, []string{"Frame schedule", strings.Join(c.Frames, " ")})
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}
