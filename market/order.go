package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a request to trade, created by the driver from a strategy signal.
type Order struct {
	Time     time.Time
	Side     Side
	Quantity decimal.Decimal
	Symbol   string
}

func (o Order) Validate() error {
	if !o.Side.Valid() {
		return fmt.Errorf("order side %d: %w", int8(o.Side), ErrValidation)
	}
	if !o.Quantity.IsPositive() {
		return fmt.Errorf("order quantity must be > 0, got %s: %w", o.Quantity, ErrValidation)
	}
	if strings.TrimSpace(o.Symbol) == "" {
		return fmt.Errorf("order symbol cannot be empty: %w", ErrValidation)
	}
	return nil
}

// Trade is an executed order. Price already includes slippage; Slippage is the
// cost of that adjustment in cash.
type Trade struct {
	ID       string
	Time     time.Time
	Side     Side
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Fee      decimal.Decimal
	Slippage decimal.Decimal
	Symbol   string
}

func (t Trade) Validate() error {
	if !t.Side.Valid() {
		return fmt.Errorf("trade side %d: %w", int8(t.Side), ErrValidation)
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("trade quantity must be > 0, got %s: %w", t.Quantity, ErrValidation)
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("trade price must be > 0, got %s: %w", t.Price, ErrValidation)
	}
	if t.Fee.IsNegative() {
		return fmt.Errorf("trade fee must be >= 0, got %s: %w", t.Fee, ErrValidation)
	}
	if t.Slippage.IsNegative() {
		return fmt.Errorf("trade slippage must be >= 0, got %s: %w", t.Slippage, ErrValidation)
	}
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("trade symbol cannot be empty: %w", ErrValidation)
	}
	return nil
}

// NotionalValue is Quantity × Price.
func (t Trade) NotionalValue() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}

// TransactionCost is Fee + Slippage.
func (t Trade) TransactionCost() decimal.Decimal {
	return t.Fee.Add(t.Slippage)
}

// Position is a held quantity of one symbol at a weighted average price.
type Position struct {
	Symbol       string
	Quantity     decimal.Decimal
	AveragePrice decimal.Decimal
}

func (p Position) Validate() error {
	if strings.TrimSpace(p.Symbol) == "" {
		return fmt.Errorf("position symbol cannot be empty: %w", ErrValidation)
	}
	if !p.Quantity.IsPositive() {
		return fmt.Errorf("position quantity must be > 0, got %s: %w", p.Quantity, ErrValidation)
	}
	if !p.AveragePrice.IsPositive() {
		return fmt.Errorf("position average price must be > 0, got %s: %w", p.AveragePrice, ErrValidation)
	}
	return nil
}

// MarketValue values the position at price.
func (p Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return p.Quantity.Mul(price)
}

// Snapshot is the portfolio valuation at one point in time.
type Snapshot struct {
	Time           time.Time
	Cash           decimal.Decimal
	PositionsValue decimal.Decimal
}

// Equity is Cash + PositionsValue.
func (s Snapshot) Equity() decimal.Decimal {
	return s.Cash.Add(s.PositionsValue)
}
