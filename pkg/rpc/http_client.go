package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	dashboard "github.com/goliatone/go-tradeboard/components/dashboard"
)

const defaultTimeout = 10 * time.Second

// HTTPConfig configures the JSON-RPC client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	SessionID  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// HTTPClient calls model methods on an ORM backend through its call_kw
// JSON-RPC endpoint.
type HTTPClient struct {
	baseURL   string
	apiKey    string
	sessionID string
	client    *http.Client
	logger    zerolog.Logger
	seq       atomic.Int64
}

var _ dashboard.RemoteCaller = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the backend at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rpc: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		sessionID: cfg.SessionID,
		client:    httpClient,
		logger:    cfg.Logger,
	}, nil
}

// Call invokes method on target with positional args and decodes the result
// object into WidgetData. A null result yields an empty payload.
func (c *HTTPClient) Call(ctx context.Context, target, method string, args []any) (dashboard.WidgetData, error) {
	if target == "" || method == "" {
		return nil, errors.New("rpc: target and method are required")
	}
	if args == nil {
		args = []any{}
	}
	req := request{
		JSONRPC: "2.0",
		Method:  "call",
		ID:      c.seq.Add(1),
		Params: callParams{
			Model:  target,
			Method: method,
			Args:   args,
			Kwargs: map[string]any{},
		},
	}
	started := time.Now()
	var resp response
	err := c.do(ctx, "/web/dataset/call_kw/"+target+"/"+method, req, &resp)
	c.logger.Debug().
		Str("target", target).
		Str("method", method).
		Int64("id", req.ID).
		Dur("elapsed", time.Since(started)).
		Err(err).
		Msg("rpc call")
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return decodeResult(resp.Result)
}

func (c *HTTPClient) do(ctx context.Context, path string, payload any, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("rpc: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rpc: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: c.sessionID})
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("rpc: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(buf.String())}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("rpc: decode response: %w", err)
	}
	return nil
}

func decodeResult(raw json.RawMessage) (dashboard.WidgetData, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return dashboard.WidgetData{}, nil
	}
	if trimmed[0] != '{' {
		return nil, ErrUnexpectedResult
	}
	var data dashboard.WidgetData
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return nil, fmt.Errorf("rpc: decode result: %w", err)
	}
	return data, nil
}

type request struct {
	JSONRPC string     `json:"jsonrpc"`
	Method  string     `json:"method"`
	ID      int64      `json:"id"`
	Params  callParams `json:"params"`
}

type callParams struct {
	Model  string         `json:"model"`
	Method string         `json:"method"`
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}
