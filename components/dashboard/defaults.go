package dashboard

import "time"

// Trades dashboard action wiring.
const (
	TradesDashboardKey      = "dankbit.trades_dashboard"
	TradeModel              = "dankbit.trade"
	MarketSummaryMethod     = "get_market_summary"
	TradesDashboardTemplate = "trades_dashboard"
	TradesDashboardPeriod   = time.Minute
)

// TradesDashboardAction describes the market summary widget.
func TradesDashboardAction() ActionDefinition {
	return ActionDefinition{
		Key:         TradesDashboardKey,
		Name:        "Trades Dashboard",
		Description: "Market summary refreshed every minute.",
		Category:    "trading",
		Target:      TradeModel,
		Method:      MarketSummaryMethod,
		Period:      TradesDashboardPeriod,
		Template:    TradesDashboardTemplate,
		Schema:      intervalSchema(),
	}
}

// DefaultActions returns the built-in actions.
func DefaultActions() []ActionDefinition {
	return []ActionDefinition{TradesDashboardAction()}
}

// RegisterDefaultActions adds the built-in actions to reg. Call it once at startup.
func RegisterDefaultActions(reg ActionRegistry) error {
	for _, def := range DefaultActions() {
		if err := reg.RegisterAction(def); err != nil {
			return err
		}
	}
	return nil
}

func intervalSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"interval_seconds": map[string]any{
				"type":    "integer",
				"minimum": 1,
			},
		},
	}
}
