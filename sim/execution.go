package sim

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// FillOn selects which bar price an order fills against.
type FillOn int8

const (
	FillOpen FillOn = iota
	FillClose
)

func (f FillOn) String() string {
	switch f {
	case FillOpen:
		return "open"
	case FillClose:
		return "close"
	default:
		return fmt.Sprintf("FillOn(%d)", int8(f))
	}
}

// ParseFillOn accepts "open" or "close".
func ParseFillOn(s string) (FillOn, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return FillOpen, nil
	case "close":
		return FillClose, nil
	default:
		return 0, fmt.Errorf("fill price must be 'open' or 'close', got %q: %w", s, market.ErrConfig)
	}
}

var bpsDivisor = decimal.NewFromInt(10_000)

// ExecutionModel converts orders into trades using a bar's open or close
// price, adjusted by a fixed slippage in basis points and charged a flat fee.
// It holds no mutable state and is safe to share.
type ExecutionModel struct {
	fee         decimal.Decimal
	slippageBps decimal.Decimal
	fillOn      FillOn
}

func NewExecutionModel(fee, slippageBps decimal.Decimal, fillOn FillOn) (*ExecutionModel, error) {
	if slippageBps.IsNegative() {
		return nil, fmt.Errorf("slippage must be >= 0, got %s bps: %w", slippageBps, market.ErrConfig)
	}
	if fee.IsNegative() {
		return nil, fmt.Errorf("fee must be >= 0, got %s: %w", fee, market.ErrConfig)
	}
	if fillOn != FillOpen && fillOn != FillClose {
		return nil, fmt.Errorf("fill price selector %d: %w", int8(fillOn), market.ErrConfig)
	}
	return &ExecutionModel{fee: fee, slippageBps: slippageBps, fillOn: fillOn}, nil
}

func (m *ExecutionModel) Fee() decimal.Decimal         { return m.fee }
func (m *ExecutionModel) SlippageBps() decimal.Decimal { return m.slippageBps }
func (m *ExecutionModel) FillOn() FillOn               { return m.fillOn }

// Execute fills order against bar. The trade is stamped with the bar's time,
// not the order's.
func (m *ExecutionModel) Execute(order market.Order, bar market.Bar) (market.Trade, error) {
	if err := order.Validate(); err != nil {
		return market.Trade{}, fmt.Errorf("execute: %w", err)
	}

	base := bar.Open
	if m.fillOn == FillClose {
		base = bar.Close
	}

	rate := m.slippageBps.Div(bpsDivisor)
	var price decimal.Decimal
	switch order.Side {
	case market.Buy:
		price = base.Mul(decimal.NewFromInt(1).Add(rate))
	case market.Sell:
		price = base.Mul(decimal.NewFromInt(1).Sub(rate))
	default:
		return market.Trade{}, fmt.Errorf("execute: side %d: %w", int8(order.Side), market.ErrValidation)
	}

	slippage := price.Sub(base).Abs().Mul(order.Quantity)

	return market.Trade{
		Time:     bar.Time,
		Side:     order.Side,
		Quantity: order.Quantity,
		Price:    price,
		Fee:      m.fee,
		Slippage: slippage,
		Symbol:   order.Symbol,
	}, nil
}
