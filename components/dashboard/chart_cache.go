package dashboard

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// RenderCache keeps the last rendered chart for each widget. version names the
// content the HTML came from; asking for another version replaces the entry.
type RenderCache interface {
	GetOrRender(widgetID, version string, render func() (string, error)) (string, error)
}

// ChartCache holds at most one chart per widget. Entries expire after ttl and
// expired entries are swept whenever a new chart is stored, so widgets that
// stop rendering do not pin memory.
type ChartCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]widgetChart
}

type widgetChart struct {
	version string
	html    string
	expires time.Time
}

// NewChartCache builds a cache with the provided TTL. A non-positive TTL disables caching.
func NewChartCache(ttl time.Duration) *ChartCache {
	return &ChartCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]widgetChart),
	}
}

// GetOrRender returns the widget's chart when it was rendered from version and
// has not expired. Otherwise it renders and replaces the widget's entry.
func (c *ChartCache) GetOrRender(widgetID, version string, render func() (string, error)) (string, error) {
	if c == nil || c.ttl <= 0 {
		return render()
	}
	if html, ok := c.lookup(widgetID, version); ok {
		return html, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.store(widgetID, version, html)
	return html, nil
}

func (c *ChartCache) lookup(widgetID, version string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[widgetID]
	if !ok || entry.version != version || c.now().After(entry.expires) {
		return "", false
	}
	return entry.html, true
}

func (c *ChartCache) store(widgetID, version, html string) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, id)
		}
	}
	c.entries[widgetID] = widgetChart{
		version: version,
		html:    html,
		expires: now.Add(c.ttl),
	}
}

// contentHash hashes the JSON encoding of v. Values JSON cannot encode, such
// as NaN, are an error.
func contentHash(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:]), nil
}
