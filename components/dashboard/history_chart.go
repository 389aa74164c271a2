package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	defaultChartHeight     = "320px"
	defaultChartAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"
)

var errNoNumericSeries = errors.New("dashboard: history has no numeric fields to chart")

// HistoryChart renders the numeric top-level fields of a widget's recent
// summaries as a server-side ECharts line chart.
type HistoryChart struct {
	cache      RenderCache
	theme      string
	assetsHost string
	timeLayout string
}

// HistoryChartOption customizes chart rendering.
type HistoryChartOption func(*HistoryChart)

// WithHistoryChartCache injects a render cache.
func WithHistoryChartCache(cache RenderCache) HistoryChartOption {
	return func(c *HistoryChart) {
		c.cache = cache
	}
}

// WithHistoryChartTheme sets the ECharts theme (defaults to Westeros).
func WithHistoryChartTheme(theme string) HistoryChartOption {
	return func(c *HistoryChart) {
		c.theme = theme
	}
}

// WithHistoryChartAssetsHost rewrites the host ECharts JS loads from.
func WithHistoryChartAssetsHost(host string) HistoryChartOption {
	return func(c *HistoryChart) {
		c.assetsHost = host
	}
}

// NewHistoryChart builds a chart renderer with a five minute render cache.
func NewHistoryChart(options ...HistoryChartOption) *HistoryChart {
	c := &HistoryChart{
		cache:      NewChartCache(5 * time.Minute),
		theme:      types.ThemeWesteros,
		assetsHost: DefaultEChartsAssetsHost(),
		timeLayout: "15:04:05",
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Render returns chart HTML for the widget's points. Non-numeric fields are
// skipped; a history without any numeric field is an error. Histories that
// cannot be hashed are rendered without the cache.
func (c *HistoryChart) Render(widgetID, title string, points []HistoryPoint) (string, error) {
	keys := numericKeys(points)
	if len(keys) == 0 {
		return "", errNoNumericSeries
	}
	render := func() (string, error) {
		return c.renderLine(title, keys, points)
	}
	if c.cache == nil {
		return render()
	}
	version, err := contentHash(struct {
		Title  string         `json:"title"`
		Points []HistoryPoint `json:"points"`
	}{title, points})
	if err != nil {
		return render()
	}
	return c.cache.GetOrRender(widgetID, version, render)
}

func (c *HistoryChart) renderLine(title string, keys []string, points []HistoryPoint) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme:      c.theme,
			Width:      "100%",
			Height:     defaultChartHeight,
			AssetsHost: c.assetsHost,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	xAxis := make([]string, len(points))
	for i, point := range points {
		xAxis[i] = point.At.UTC().Format(c.timeLayout)
	}
	line.SetXAxis(xAxis)
	for _, key := range keys {
		data := make([]opts.LineData, len(points))
		for i, point := range points {
			if value, ok := numericValue(point.Data[key]); ok && !math.IsNaN(value) && !math.IsInf(value, 0) {
				data[i] = opts.LineData{Value: value}
			} else {
				data[i] = opts.LineData{Value: "-"}
			}
		}
		line.AddSeries(seriesLabel(key), data)
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return renderChart(line)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func numericKeys(points []HistoryPoint) []string {
	seen := map[string]struct{}{}
	for _, point := range points {
		for key, value := range point.Data {
			if _, ok := numericValue(value); ok {
				seen[key] = struct{}{}
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func numericValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// seriesLabel turns btc_price into "Btc Price".
func seriesLabel(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, part := range parts {
		first, size := utf8.DecodeRuneInString(part)
		parts[i] = string(unicode.ToUpper(first)) + part[size:]
	}
	if len(parts) == 0 {
		return key
	}
	return strings.Join(parts, " ")
}
