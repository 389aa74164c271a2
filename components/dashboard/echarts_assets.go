package dashboard

import (
	"os"
	"strings"
)

// envEChartsCDN overrides the host ECharts scripts are loaded from.
const envEChartsCDN = "TRADEBOARD_ECHARTS_CDN"

// DefaultEChartsAssetsHost returns the assets host, respecting TRADEBOARD_ECHARTS_CDN if set.
func DefaultEChartsAssetsHost() string {
	if host := strings.TrimSpace(os.Getenv(envEChartsCDN)); host != "" {
		return ensureTrailingSlash(host)
	}
	return defaultChartAssetsHost
}

func ensureTrailingSlash(value string) string {
	if value == "" || strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}
