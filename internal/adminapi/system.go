package adminapi

import (
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/stocklight/stocklight/internal/webserver"
	"github.com/stocklight/stocklight/pkg/metrics"
)

func registerSystemRoutes() {
	webserver.ApiGET("/system/info", systemInfo)
	webserver.ApiGET("/metrics", metricsSnapshot)
	webserver.ApiGET("/metrics/history", metricsHistory)
}

func systemInfo(c echo.Context) error {
	info := map[string]interface{}{
		"go":         runtime.Version(),
		"arch":       runtime.GOARCH,
		"os":         runtime.GOOS,
		"cpus":       runtime.NumCPU(),
		"goroutines": runtime.NumGoroutine(),
	}
	if hostInfo, err := host.Info(); err == nil {
		info["hostname"] = hostInfo.Hostname
		info["platform"] = hostInfo.Platform
		info["uptimeSec"] = hostInfo.Uptime
	}
	if meminfo, err := mem.VirtualMemory(); err == nil {
		info["memTotalMb"] = meminfo.Total / 1024 / 1024
		info["memUsedMb"] = meminfo.Used / 1024 / 1024
	}
	return ok(c, info)
}

func metricsSnapshot(c echo.Context) error {
	return ok(c, metrics.Snapshot())
}

// metricsHistory returns the data points recorded for one gauge over
// the last 24 hours.
func metricsHistory(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Missing gauge name", nil)
	}
	end := time.Now().Unix()
	points, err := metrics.History(name, end-86400, end)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read metric history", err.Error())
	}
	return ok(c, points)
}
