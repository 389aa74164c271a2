package rpc

import (
	"math"
	"time"

	dashboard "github.com/goliatone/go-tradeboard/components/dashboard"
)

// MarketDrift returns a handler producing a market summary whose price moves
// by step on every call, alternating direction every fifth call.
func MarketDrift(base, step float64) MockHandler {
	return func(n int, _ []any) (dashboard.WidgetData, error) {
		direction := 1.0
		if (n/5)%2 == 1 {
			direction = -1
		}
		price := base + direction*step*float64(n%5) + step*float64(n/5)
		return dashboard.WidgetData{
			"btc_price":   math.Round(price*100) / 100,
			"trade_count": n * 3,
			"as_of":       time.Now().UTC().Format(time.RFC3339),
		}, nil
	}
}
