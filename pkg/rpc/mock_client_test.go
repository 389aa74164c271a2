package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-tradeboard/components/dashboard"
)

func TestMockClientServesQueueThenHandlerThenDefault(t *testing.T) {
	client := NewMockClient()
	client.Enqueue("dankbit.trade", "get_dashboard_data", dashboard.WidgetData{"btc_price": 1.0}, nil)
	client.SetDefault("dankbit.trade", "get_dashboard_data", dashboard.WidgetData{"btc_price": 3.0})

	ctx := context.Background()
	data, err := client.Call(ctx, "dankbit.trade", "get_dashboard_data", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, data["btc_price"])

	data, err = client.Call(ctx, "dankbit.trade", "get_dashboard_data", nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, data["btc_price"])

	client.Handle("dankbit.trade", "get_dashboard_data", func(n int, _ []any) (dashboard.WidgetData, error) {
		return dashboard.WidgetData{"call": n}, nil
	})
	data, err = client.Call(ctx, "dankbit.trade", "get_dashboard_data", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, data["call"])
	assert.Equal(t, 3, client.CallCount("dankbit.trade", "get_dashboard_data"))
}

func TestMockClientQueuedError(t *testing.T) {
	client := NewMockClient()
	boom := errors.New("boom")
	client.Enqueue("m", "f", nil, boom)

	data, err := client.Call(context.Background(), "m", "f", nil)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, data)
}

func TestMockClientUnknownPair(t *testing.T) {
	client := NewMockClient()
	_, err := client.Call(context.Background(), "m", "missing", []any{1})
	assert.ErrorIs(t, err, ErrNoMockResponse)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, MockCall{Target: "m", Method: "missing", Args: []any{1}}, calls[0])
}

func TestMockClientResponsesAreCopies(t *testing.T) {
	client := NewMockClient()
	client.SetDefault("m", "f", dashboard.WidgetData{"k": "v"})

	data, err := client.Call(context.Background(), "m", "f", nil)
	require.NoError(t, err)
	data["k"] = "mutated"

	again, err := client.Call(context.Background(), "m", "f", nil)
	require.NoError(t, err)
	assert.Equal(t, "v", again["k"])
}

func TestMockClientCancelledContext(t *testing.T) {
	client := NewMockClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Call(ctx, "m", "f", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, client.CallCount("m", "f"))
}

func TestMarketDrift(t *testing.T) {
	client := NewMockClient()
	client.Handle("dankbit.trade", "get_market_summary", MarketDrift(50000, 10))

	first, err := client.Call(context.Background(), "dankbit.trade", "get_market_summary", nil)
	require.NoError(t, err)
	second, err := client.Call(context.Background(), "dankbit.trade", "get_market_summary", nil)
	require.NoError(t, err)

	assert.Equal(t, 50010.0, first["btc_price"])
	assert.Equal(t, 50020.0, second["btc_price"])
	assert.Equal(t, 6, second["trade_count"])
	assert.NotEmpty(t, second["as_of"])
}
