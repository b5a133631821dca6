package trace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/parquet-go"
)

func TestPartPath(t *testing.T) {
	s := NewParquetSink("/tmp/trace-2026-1-1_1x4x0.parquet", 3, "{}")
	want := "/tmp/trace-2026-1-1_1x4x0.part3.parquet"
	if got := s.PartPath(); got != want {
		t.Errorf("PartPath = %q, want %q", got, want)
	}
}

func TestAppendReadBack(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "trace.parquet")
	s := NewParquetSink(base, 0, `{"fft_size":64}`)

	iq := []int16{10, -20, 30, -40, 50, -60}
	if err := s.Append(0, 5, 2, 7, iq); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(0, 6, 2, 7, iq); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(s.PartPath())
	if err != nil {
		t.Fatalf("open part: %v", err)
	}
	defer f.Close()
	st, _ := f.Stat()
	rows, err := parquet.Read[Row](f, st.Size())
	if err != nil {
		t.Fatalf("read part: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("read %d rows, want 2", len(rows))
	}
	r := rows[0]
	if r.Cell != 0 || r.Frame != 5 || r.Slot != 2 || r.Ant != 7 {
		t.Errorf("row coords = (%d,%d,%d,%d)", r.Cell, r.Frame, r.Slot, r.Ant)
	}
	if len(r.I) != 3 || len(r.Q) != 3 {
		t.Fatalf("sample lengths = (%d,%d), want (3,3)", len(r.I), len(r.Q))
	}
	if r.I[0] != 10 || r.Q[0] != -20 || r.I[2] != 50 || r.Q[2] != -60 {
		t.Errorf("deinterleave wrong: I=%v Q=%v", r.I, r.Q)
	}
	if rows[1].Frame != 6 {
		t.Errorf("second row frame = %d, want 6", rows[1].Frame)
	}
}

func TestCloseWithoutAppend(t *testing.T) {
	dir := t.TempDir()
	s := NewParquetSink(filepath.Join(dir, "empty.parquet"), 1, "")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(s.PartPath()); !os.IsNotExist(err) {
		t.Error("empty sink created a part file")
	}
}
