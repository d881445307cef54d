package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"analog-lab/internal/domain"
)

// signalColumn names the label column in multi-column signal files.
const signalColumn = "signal"

// ReadSignalsCSV parses a supplied signal series. The input is either one
// label per line, or CSV whose header has a "signal" column (other columns,
// such as date, are ignored). A single-column file may carry the header too.
func ReadSignalsCSV(r io.Reader) ([]domain.Signal, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read signals: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: signal file is empty", domain.ErrInvalidParameter)
	}

	col, first := -1, 0
	for i, name := range records[0] {
		if strings.EqualFold(strings.TrimSpace(name), signalColumn) {
			col, first = i, 1
			break
		}
	}
	if col < 0 {
		if len(records[0]) != 1 {
			return nil, fmt.Errorf("%w: multi-column signal file needs a %q header", domain.ErrInvalidParameter, signalColumn)
		}
		col = 0
	}

	out := make([]domain.Signal, 0, len(records)-first)
	for i, rec := range records[first:] {
		line := i + first + 1
		if col >= len(rec) {
			return nil, fmt.Errorf("%w: line %d has no %s column", domain.ErrInvalidParameter, line, signalColumn)
		}
		sig, err := domain.ParseSignal(rec[col])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, sig)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: signal file has no rows", domain.ErrInvalidParameter)
	}
	return out, nil
}

// ReadSignalsFile reads a signal series from path. See ReadSignalsCSV.
func ReadSignalsFile(path string) ([]domain.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	labels, err := ReadSignalsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return labels, nil
}
