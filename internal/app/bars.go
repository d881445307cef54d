package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"analog-lab/internal/domain"
)

// barColumns is the expected CSV header, case-insensitive.
var barColumns = []string{"date", "open", "high", "low", "close", "volume"}

// ReadBarsCSV parses OHLCV rows with a date,open,high,low,close,volume header.
// Dates are YYYY-MM-DD and rows must ascend by date.
func ReadBarsCSV(r io.Reader, symbol string) (*domain.PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < len(barColumns) {
		return nil, fmt.Errorf("%w: header needs %s", domain.ErrInvalidParameter, strings.Join(barColumns, ","))
	}
	for i, col := range barColumns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", domain.ErrInvalidParameter, i, header[i], col)
		}
	}

	series := &domain.PriceSeries{Symbol: strings.ToUpper(symbol), Period: domain.PeriodMax}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		bar, err := parseBar(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrInvalidParameter, line, err)
		}
		series.Bars = append(series.Bars, bar)
	}

	if err := series.Validate(); err != nil {
		return nil, err
	}
	return series, nil
}

func parseBar(rec []string) (domain.PriceBar, error) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(rec[0]))
	if err != nil {
		return domain.PriceBar{}, fmt.Errorf("date: %w", err)
	}

	var vals [5]float64
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return domain.PriceBar{}, fmt.Errorf("%s: %w", barColumns[i+1], err)
		}
		vals[i] = v
	}

	return domain.PriceBar{
		Date:   date,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

// ImportCSV loads bars for symbol from a CSV file into the price bar store.
func (a *App) ImportCSV(ctx context.Context, symbol, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	series, err := ReadBarsCSV(f, symbol)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := a.Stores.PriceBars.InsertBulk(ctx, series.Symbol, series.Bars); err != nil {
		return 0, fmt.Errorf("store bars for %s: %w", series.Symbol, err)
	}

	a.Logger.Info().Str("symbol", series.Symbol).Int("bars", series.Len()).Str("file", path).Msg("bars imported")
	return series.Len(), nil
}

// ImportDir imports every *.csv file in dir, using the file name as the symbol.
// Returns the number of files imported.
func (a *App) ImportDir(ctx context.Context, dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return 0, err
	}
	for _, f := range files {
		symbol := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		if _, err := a.ImportCSV(ctx, symbol, f); err != nil {
			return 0, err
		}
	}
	return len(files), nil
}
