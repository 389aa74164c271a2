package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	dashboard "github.com/goliatone/go-tradeboard/components/dashboard"
)

// ErrNoMockResponse is returned for target/method pairs that were never seeded.
var ErrNoMockResponse = errors.New("rpc: no mock response")

// MockCall records one invocation of MockClient.Call.
type MockCall struct {
	Target string
	Method string
	Args   []any
}

// MockHandler produces a response for the n-th call (starting at 1) of a
// target/method pair.
type MockHandler func(n int, args []any) (dashboard.WidgetData, error)

type mockResponse struct {
	data dashboard.WidgetData
	err  error
}

// MockClient implements dashboard.RemoteCaller with in-memory fixtures for
// tests and local demos. Queued responses are consumed first, then the
// handler, then the fixed fallback.
type MockClient struct {
	mu        sync.Mutex
	queued    map[string][]mockResponse
	handlers  map[string]MockHandler
	fallbacks map[string]dashboard.WidgetData
	counts    map[string]int
	calls     []MockCall
}

var _ dashboard.RemoteCaller = (*MockClient)(nil)

// NewMockClient builds an empty mock client.
func NewMockClient() *MockClient {
	return &MockClient{
		queued:    map[string][]mockResponse{},
		handlers:  map[string]MockHandler{},
		fallbacks: map[string]dashboard.WidgetData{},
		counts:    map[string]int{},
	}
}

// Enqueue adds a one-shot response for target.method.
func (m *MockClient) Enqueue(target, method string, data dashboard.WidgetData, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := mockKey(target, method)
	m.queued[key] = append(m.queued[key], mockResponse{data: data.Clone(), err: err})
}

// Handle installs a handler consulted once the queue for target.method is empty.
func (m *MockClient) Handle(target, method string, fn MockHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[mockKey(target, method)] = fn
}

// SetDefault returns data for every call to target.method not served otherwise.
func (m *MockClient) SetDefault(target, method string, data dashboard.WidgetData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[mockKey(target, method)] = data.Clone()
}

// Call satisfies dashboard.RemoteCaller.
func (m *MockClient) Call(ctx context.Context, target, method string, args []any) (dashboard.WidgetData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	key := mockKey(target, method)
	m.calls = append(m.calls, MockCall{Target: target, Method: method, Args: append([]any(nil), args...)})
	m.counts[key]++
	n := m.counts[key]

	if queue := m.queued[key]; len(queue) > 0 {
		next := queue[0]
		m.queued[key] = queue[1:]
		m.mu.Unlock()
		if next.err != nil {
			return nil, next.err
		}
		return next.data.Clone(), nil
	}
	handler := m.handlers[key]
	fallback, hasFallback := m.fallbacks[key]
	m.mu.Unlock()

	if handler != nil {
		return handler(n, args)
	}
	if hasFallback {
		return fallback.Clone(), nil
	}
	return nil, fmt.Errorf("%w for %s", ErrNoMockResponse, key)
}

// Calls returns a copy of every recorded call in order.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount reports how many times target.method was called.
func (m *MockClient) CallCount(target, method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[mockKey(target, method)]
}

func mockKey(target, method string) string {
	return target + "." + method
}
