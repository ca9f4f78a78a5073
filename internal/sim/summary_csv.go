package sim

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
)

// TableCSVWriter persists an experiment table next to its plot.
type TableCSVWriter struct {
	f *os.File
	w *csv.Writer
}

// NewTableCSVWriter names the swept column xColumn (delay_ms, error_rate, ...).
func NewTableCSVWriter(path, xColumn string) (*TableCSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)

	hdr := []string{
		"protocol",
		"n_flows",
		"dest",
		xColumn,
		"goodput_mbps",
		"runs",
	}
	if err := w.Write(hdr); err != nil {
		_ = f.Close()
		return nil, err
	}
	w.Flush()
	return &TableCSVWriter{f: f, w: w}, nil
}

func (s *TableCSVWriter) WriteRow(r Row) error {
	goodput := ""
	if !r.Missing {
		goodput = ff(r.GoodputMbps)
	}
	row := []string{
		string(r.Protocol),
		strconv.Itoa(r.Flows),
		r.Dest,
		strconv.FormatFloat(r.X, 'g', -1, 64),
		goodput,
		strconv.Itoa(r.Runs),
	}
	return s.w.Write(row)
}

func (s *TableCSVWriter) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}

// WriteTableCSV writes every row of t to path.
func WriteTableCSV(path, xColumn string, t *Table) error {
	w, err := NewTableCSVWriter(path, xColumn)
	if err != nil {
		return err
	}
	for _, r := range t.rows {
		if err := w.WriteRow(r); err != nil {
			_ = w.Close()
			return err
		}
	}
	return w.Close()
}
