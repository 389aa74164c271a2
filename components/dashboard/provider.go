package dashboard

import (
	"context"
	"fmt"
)

// WidgetData is an opaque payload passed to templates. Widgets never interpret it.
type WidgetData map[string]any

// CallerFunc adapts a function into a RemoteCaller.
type CallerFunc func(ctx context.Context, target, method string, args []any) (WidgetData, error)

// Call satisfies RemoteCaller.
func (f CallerFunc) Call(ctx context.Context, target, method string, args []any) (WidgetData, error) {
	return f(ctx, target, method, args)
}

// RemoteCallError is the only failure a widget surfaces: the remote call did not
// produce a summary.
type RemoteCallError struct {
	Target string
	Method string
	Err    error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("dashboard: remote call %s.%s failed: %v", e.Target, e.Method, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// Clone returns a shallow copy so callers can hand the payload out without
// exposing the stored map.
func (d WidgetData) Clone() WidgetData {
	out := make(WidgetData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
