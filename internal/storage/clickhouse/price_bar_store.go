package clickhouse

import (
	"context"
	"fmt"
	"time"

	"analog-lab/internal/domain"
	"analog-lab/internal/storage"
)

// PriceBarStore implements storage.PriceBarStore using ClickHouse.
// Dates are stored as Date32, so bars are day-granular.
type PriceBarStore struct {
	conn *Conn
}

// NewPriceBarStore creates a new PriceBarStore.
func NewPriceBarStore(conn *Conn) *PriceBarStore {
	return &PriceBarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceBarStore = (*PriceBarStore)(nil)

// dayKey truncates a bar date to the stored granularity.
func dayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// InsertBulk adds bars for a symbol. Fails entire batch on duplicate (symbol, date).
func (s *PriceBarStore) InsertBulk(ctx context.Context, symbol string, bars []domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	if symbol == "" {
		return storage.ErrInvalidInput
	}

	// Check for intra-batch duplicates and collect the covered range
	seen := make(map[string]struct{}, len(bars))
	minDate, maxDate := bars[0].Date, bars[0].Date
	for _, b := range bars {
		k := dayKey(b.Date)
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		if b.Date.Before(minDate) {
			minDate = b.Date
		}
		if b.Date.After(maxDate) {
			maxDate = b.Date
		}
	}

	// Check for duplicates against existing rows in one range scan
	existing, err := s.GetByDateRange(ctx, symbol, minDate, maxDate)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for _, b := range existing.Bars {
		if _, clash := seen[dayKey(b.Date)]; clash {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_bars (
			symbol, date, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			symbol, b.Date.UTC(),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetSeries retrieves every bar for a symbol, ordered by date ASC.
func (s *PriceBarStore) GetSeries(ctx context.Context, symbol string) (*domain.PriceSeries, error) {
	query := `
		SELECT date, open, high, low, close, volume
		FROM price_bars
		WHERE symbol = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query by symbol: %w", err)
	}
	defer rows.Close()

	bars, err := scanPriceBars(rows)
	if err != nil {
		return nil, err
	}
	return &domain.PriceSeries{Symbol: symbol, Period: domain.PeriodMax, Bars: bars}, nil
}

// GetByDateRange retrieves bars for a symbol within [start, end] (inclusive).
func (s *PriceBarStore) GetByDateRange(ctx context.Context, symbol string, start, end time.Time) (*domain.PriceSeries, error) {
	query := `
		SELECT date, open, high, low, close, volume
		FROM price_bars
		WHERE symbol = ? AND date >= toDate32(?) AND date <= toDate32(?)
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, dayKey(start), dayKey(end))
	if err != nil {
		return nil, fmt.Errorf("query by date range: %w", err)
	}
	defer rows.Close()

	bars, err := scanPriceBars(rows)
	if err != nil {
		return nil, err
	}
	return &domain.PriceSeries{Symbol: symbol, Bars: bars}, nil
}

// Symbols lists every symbol with at least one bar, sorted.
func (s *PriceBarStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT DISTINCT symbol FROM price_bars ORDER BY symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		symbols = append(symbols, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symbol rows: %w", err)
	}
	return symbols, nil
}

// scanPriceBars scans multiple rows.
func scanPriceBars(rows chRows) ([]domain.PriceBar, error) {
	var bars []domain.PriceBar

	for rows.Next() {
		var b domain.PriceBar
		err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume)
		if err != nil {
			return nil, fmt.Errorf("scan price bar row: %w", err)
		}
		b.Date = b.Date.UTC()
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price bar rows: %w", err)
	}

	return bars, nil
}
