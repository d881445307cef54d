package backtest

import (
	"time"

	"github.com/shopspring/decimal"

	"analog-lab/internal/domain"
)

// position is the open long leg. Amounts are exact decimals so the ledger
// reconciles to the cent across many round trips.
type position struct {
	index      int
	date       time.Time
	fill       decimal.Decimal // entry price after slippage
	shares     int64
	cost       decimal.Decimal // fill * shares
	commission decimal.Decimal
}

// ledger tracks cash and at most one open position.
type ledger struct {
	cash       decimal.Decimal
	commission decimal.Decimal // rate on notional, per side
	slippage   decimal.Decimal // fraction of price, per side
	open       *position
}

func newLedger(cfg domain.BacktestConfig) *ledger {
	return &ledger{
		cash:       decimal.NewFromFloat(cfg.InitialCapital),
		commission: decimal.NewFromFloat(cfg.Commission),
		slippage:   decimal.NewFromFloat(cfg.Slippage),
	}
}

// long reports whether a position is open.
func (l *ledger) long() bool {
	return l.open != nil
}

// equity marks the ledger to market at price.
func (l *ledger) equity(price float64) decimal.Decimal {
	if l.open == nil {
		return l.cash
	}
	return l.cash.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(l.open.shares)))
}

// unrealized returns the open position's return at price relative to its fill.
func (l *ledger) unrealized(price float64) float64 {
	if l.open == nil || l.open.fill.IsZero() {
		return 0
	}
	r, _ := decimal.NewFromFloat(price).Sub(l.open.fill).Div(l.open.fill).Float64()
	return r
}

// enter buys as many whole shares as cash allows at price*(1+slippage),
// leaving room for the commission. Returns false if not even one share fits.
//   - fill = price * (1 + slippage)
//   - shares = floor(cash / fill), reduced until cost + commission fits in cash
//   - commission = cost * rate
func (l *ledger) enter(index int, date time.Time, price float64) bool {
	fill := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(1).Add(l.slippage))
	if !fill.IsPositive() {
		return false
	}

	// Start from the largest count that covers the commission; the loop only
	// absorbs rounding.
	shares := l.cash.Div(fill.Mul(decimal.NewFromInt(1).Add(l.commission))).Floor().IntPart()
	var cost, commission decimal.Decimal
	for ; shares > 0; shares-- {
		cost = fill.Mul(decimal.NewFromInt(shares))
		commission = cost.Mul(l.commission)
		if cost.Add(commission).LessThanOrEqual(l.cash) {
			break
		}
	}
	if shares <= 0 {
		return false
	}

	l.cash = l.cash.Sub(cost).Sub(commission)
	l.open = &position{
		index:      index,
		date:       date,
		fill:       fill,
		shares:     shares,
		cost:       cost,
		commission: commission,
	}
	return true
}

// exit sells the open position at price*(1-slippage) and returns the closed
// trade. pnl is net of both commissions; return is pnl over the entry outlay.
func (l *ledger) exit(index int, date time.Time, price float64, reason string) domain.Trade {
	p := l.open
	fill := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(1).Sub(l.slippage))
	proceeds := fill.Mul(decimal.NewFromInt(p.shares))
	commission := proceeds.Mul(l.commission)

	l.cash = l.cash.Add(proceeds).Sub(commission)
	l.open = nil

	outlay := p.cost.Add(p.commission)
	pnl := proceeds.Sub(commission).Sub(outlay)
	ret := decimal.Zero
	if outlay.IsPositive() {
		ret = pnl.Div(outlay)
	}

	return domain.Trade{
		EntryIndex:      p.index,
		EntryDate:       p.date,
		EntryPrice:      p.fill.InexactFloat64(),
		Shares:          p.shares,
		EntryCommission: p.commission.InexactFloat64(),
		ExitIndex:       index,
		ExitDate:        date,
		ExitPrice:       fill.InexactFloat64(),
		ExitCommission:  commission.InexactFloat64(),
		ExitReason:      reason,
		PnL:             pnl.InexactFloat64(),
		Return:          ret.InexactFloat64(),
	}
}
