package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/backtester/market"
)

// Strategy turns the bar history seen so far into a signal for the next bar.
// bars[len(bars)-1] is the most recent closed bar; implementations must not
// assume they see any bar after it.
type Strategy interface {
	Name() string
	Decide(bars []market.Bar) (market.Signal, error)
}

// Params carries the tunables shared by the built-in strategies.
type Params struct {
	FastWindow int
	SlowWindow int
}

type factory func(Params) (Strategy, error)

var registry = map[string]factory{
	"sma-cross": func(p Params) (Strategy, error) { return NewSMACross(p.FastWindow, p.SlowWindow) },
	"ema-cross": func(p Params) (Strategy, error) { return NewEMACross(p.FastWindow, p.SlowWindow) },
	"open-once": func(Params) (Strategy, error) { return &OpenOnce{}, nil },
	"noop":      func(Params) (Strategy, error) { return Noop{}, nil },
}

// Register adds or replaces a named strategy constructor.
func Register(name string, fn func(Params) (Strategy, error)) {
	registry[normalize(name)] = fn
}

// Names lists the registered strategies in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ByName builds the strategy registered under name. Lookup ignores case and
// accepts "_" in place of "-".
func ByName(name string, p Params) (Strategy, error) {
	fn, ok := registry[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return fn(p)
}

func normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "none":
		return "noop"
	case "smacross", "sma":
		return "sma-cross"
	case "emacross", "ema":
		return "ema-cross"
	case "buy-and-hold":
		return "open-once"
	}
	return n
}
