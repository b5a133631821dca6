// Package trace persists captured IQ symbols to a columnar on-disk dataset.
// Each recorder worker writes its own part file, so no coordination is
// needed between workers; a trace is the set of part files sharing a base
// path.
package trace

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/segmentio/parquet-go"
)

// Row is one captured symbol keyed by its frame coordinates. I and Q carry
// the de-interleaved samples widened to int32 for the columnar layout.
type Row struct {
	Cell  uint32  `parquet:"cell"`
	Frame uint32  `parquet:"frame"`
	Slot  uint32  `parquet:"slot"`
	Ant   uint32  `parquet:"ant"`
	I     []int32 `parquet:"i"`
	Q     []int32 `parquet:"q"`
}

// Sink is the capability the record pipeline writes through.
type Sink interface {
	Append(cell, frame, slot, ant uint32, iq []int16) error
	Flush() error
	Close() error
}

// ParquetSink appends rows to one part file of a trace. The file is created
// lazily on the first Append and carries the serialized run configuration
// and a session id as key-value metadata.
type ParquetSink struct {
	basePath   string
	shard      int
	configJSON string
	session    string

	file   *os.File
	writer *parquet.GenericWriter[Row]
}

// NewParquetSink prepares a sink for one recorder shard. basePath is the
// trace path from the configuration; the shard index is folded into the
// part-file name.
func NewParquetSink(basePath string, shard int, configJSON string) *ParquetSink {
	return &ParquetSink{
		basePath:   basePath,
		shard:      shard,
		configJSON: configJSON,
		session:    uuid.NewString(),
	}
}

// PartPath returns the on-disk path of this shard's part file.
func (s *ParquetSink) PartPath() string {
	ext := ".parquet"
	base := strings.TrimSuffix(s.basePath, ext)
	return fmt.Sprintf("%s.part%d%s", base, s.shard, ext)
}

func (s *ParquetSink) open() error {
	f, err := os.Create(s.PartPath())
	if err != nil {
		return fmt.Errorf("open trace part: %w", err)
	}
	s.file = f
	s.writer = NewWriter(f, s.configJSON, s.session)
	return nil
}

// NewWriter builds a parquet writer with the trace schema and run metadata.
func NewWriter(w io.Writer, configJSON, session string) *parquet.GenericWriter[Row] {
	if configJSON == "" {
		configJSON = "{}"
	}
	return parquet.NewGenericWriter[Row](w,
		parquet.KeyValueMetadata("config", configJSON),
		parquet.KeyValueMetadata("session", session),
	)
}

// Append writes one captured symbol. iq is interleaved I/Q int16 samples.
func (s *ParquetSink) Append(cell, frame, slot, ant uint32, iq []int16) error {
	if s.writer == nil {
		if err := s.open(); err != nil {
			return err
		}
	}
	n := len(iq) / 2
	row := Row{
		Cell:  cell,
		Frame: frame,
		Slot:  slot,
		Ant:   ant,
		I:     make([]int32, n),
		Q:     make([]int32, n),
	}
	for i := 0; i < n; i++ {
		row.I[i] = int32(iq[2*i])
		row.Q[i] = int32(iq[2*i+1])
	}
	if _, err := s.writer.Write([]Row{row}); err != nil {
		return fmt.Errorf("trace append: %w", err)
	}
	return nil
}

// Flush forces buffered rows into a row group.
func (s *ParquetSink) Flush() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Flush()
}

// Close finalizes the part file. A sink that never saw an Append closes
// without creating a file.
func (s *ParquetSink) Close() error {
	if s.writer == nil {
		return nil
	}
	if err := s.writer.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
