// trace_dump prints a per-antenna summary of a recorded trace part file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/segmentio/parquet-go"

	"github.com/sounder/pkg/trace"
)

type antStats struct {
	rows     int
	minFrame uint32
	maxFrame uint32
	samples  int
}

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: trace_dump <trace.partN.parquet> ...")
		os.Exit(2)
	}

	stats := make(map[uint32]*antStats)
	totalRows := 0
	for _, path := range flag.Args() {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("open %s: %v", path, err)
		}
		st, err := f.Stat()
		if err != nil {
			log.Fatalf("stat %s: %v", path, err)
		}
		rows, err := parquet.Read[trace.Row](f, st.Size())
		f.Close()
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		totalRows += len(rows)
		for _, row := range rows {
			s, ok := stats[row.Ant]
			if !ok {
				s = &antStats{minFrame: row.Frame, maxFrame: row.Frame}
				stats[row.Ant] = s
			}
			s.rows++
			s.samples += len(row.I)
			if row.Frame < s.minFrame {
				s.minFrame = row.Frame
			}
			if row.Frame > s.maxFrame {
				s.maxFrame = row.Frame
			}
		}
	}

	ants := make([]uint32, 0, len(stats))
	for a := range stats {
		ants = append(ants, a)
	}
	sort.Slice(ants, func(i, j int) bool { return ants[i] < ants[j] })

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Antenna", "Symbols", "First frame", "Last frame", "Samples"})
	for _, a := range ants {
		s := stats[a]
		table.Append([]string{
			fmt.Sprintf("%d", a),
			fmt.Sprintf("%d", s.rows),
			fmt.Sprintf("%d", s.minFrame),
			fmt.Sprintf("%d", s.maxFrame),
			fmt.Sprintf("%d", s.samples),
		})
	}
	table.Render()
	fmt.Printf("total symbols: %d\n", totalRows)
}
