package dashboard

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/goliatone/go-tradeboard/components/dashboard"
	"github.com/goliatone/go-tradeboard/pkg/config"
	"github.com/goliatone/go-tradeboard/pkg/rpc"
)

type idleScheduler struct{}

func (idleScheduler) Every(time.Duration, func()) core.Stopper { return idleStopper{} }

type idleStopper struct{}

func (idleStopper) Stop() {}

func TestNewRuntimeMountsAndRenders(t *testing.T) {
	caller := rpc.NewMockClient()
	caller.SetDefault(core.TradeModel, core.MarketSummaryMethod, core.WidgetData{"btc_price": 50000.0})

	rt, err := NewRuntime(RuntimeOptions{
		Config:    config.Config{Dashboard: config.DashboardConfig{RefreshInterval: 30 * time.Second}},
		Caller:    caller,
		Scheduler: idleScheduler{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })

	events, cancel := rt.Broadcast.Subscribe(nil)
	defer cancel()

	snapshot, err := rt.Service.Mount(context.Background(), core.MountRequest{
		ActionKey: core.TradesDashboardKey,
		Viewer:    core.ViewerContext{UserID: "trader"},
	})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, snapshot.Period)
	assert.Equal(t, 1, caller.CallCount(core.TradeModel, core.MarketSummaryMethod))

	select {
	case event := <-events:
		assert.Equal(t, core.ReasonMount, event.Reason)
	case <-time.After(time.Second):
		t.Fatalf("expected mount event on broadcast hook")
	}

	var buf bytes.Buffer
	require.NoError(t, rt.Controller.RenderWidget(context.Background(), snapshot.ID, &buf))
	assert.True(t, strings.Contains(buf.String(), "btc_price"), "expected rendered summary, got %s", buf.String())
}

func TestNewRuntimeLoadsManifest(t *testing.T) {
	rt, err := NewRuntime(RuntimeOptions{
		Config: config.Config{Dashboard: config.DashboardConfig{
			Manifest: filepath.Join("..", "..", "docs", "manifests", "dankbit.yaml"),
		}},
		Caller:    rpc.NewMockClient(),
		Scheduler: idleScheduler{},
	})
	require.NoError(t, err)
	_, ok := rt.Registry.Action("dankbit.open_interest")
	assert.True(t, ok)
}

func TestNewRuntimeBuildsHTTPClient(t *testing.T) {
	rt, err := NewRuntime(RuntimeOptions{
		Config:    config.Config{RPC: config.RPCConfig{BaseURL: "http://erp.internal"}},
		Scheduler: idleScheduler{},
	})
	require.NoError(t, err)
	_, ok := rt.Caller.(*rpc.HTTPClient)
	assert.True(t, ok)

	_, err = NewRuntime(RuntimeOptions{})
	assert.Error(t, err, "expected missing base url to fail")
}

func TestRuntimeMountDefaults(t *testing.T) {
	caller := rpc.NewMockClient()
	caller.SetDefault(core.TradeModel, core.MarketSummaryMethod, core.WidgetData{"btc_price": 1.0})
	rt, err := NewRuntime(RuntimeOptions{Caller: caller, Scheduler: idleScheduler{}})
	require.NoError(t, err)

	snapshots, err := rt.MountDefaults(context.Background(), Viewer{UserID: "trader"})
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	var snap Snapshot = snapshots[0]
	assert.Equal(t, core.TradesDashboardKey, snap.ActionKey)
	assert.Equal(t, "trader", snap.Viewer.UserID)

	require.NoError(t, rt.Close(context.Background()))
	assert.Empty(t, rt.Service.Mounted(context.Background()))
}
