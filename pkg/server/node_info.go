package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"streamfs/pkg/models"
)

// nodeInfo handles GET /v1/node/info requests.
func (g *Gateway) nodeInfo(ctx echo.Context) error {
	buckets, err := g.store.ListBuckets(ctx.Request().Context())
	if err != nil {
		return writeError(ctx, err)
	}

	uptime := int64(time.Since(g.started).Seconds())
	return ctx.JSON(http.StatusOK, models.NodeInfo{
		Version:       g.version,
		Uptime:        formatUptime(uptime),
		UptimeSeconds: uptime,
		Buckets:       buckets,
	})
}

// formatUptime converts seconds to human-readable form.
func formatUptime(seconds int64) string {
	duration := time.Duration(seconds) * time.Second
	const hoursInDay = 24
	const minutesInHour = 60
	days := int(duration.Hours()) / hoursInDay
	hours := int(duration.Hours()) % hoursInDay
	minutes := int(duration.Minutes()) % minutesInHour

	switch {
	case days > 0:
		return strconv.Itoa(days) + "d " + strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
	case hours > 0:
		return strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
	default:
		return strconv.Itoa(minutes) + "m"
	}
}
