// Package api exposes the alert store over HTTP for the dashboard.
package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/shelfwatch/shelfwatch/internal/alerting"
	"github.com/shelfwatch/shelfwatch/internal/logger"
	"github.com/shelfwatch/shelfwatch/internal/observability/metrics"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 200
	maxImportBytes    = 4 << 20
)

// Controller wires the alert endpoints onto an echo instance.
type Controller struct {
	store   *alerting.Store
	manager *alerting.Manager
	metrics *metrics.Metrics
	log     logger.Logger
}

// NewController registers all alert routes on e. manager handles the
// mark-read path so deep links and API clicks share one code path.
func NewController(e *echo.Echo, store *alerting.Store, manager *alerting.Manager,
	m *metrics.Metrics, log logger.Logger) *Controller {
	c := &Controller{store: store, manager: manager, metrics: m, log: log}

	g := e.Group("/api/v1/alerts")
	g.GET("", c.ListAlerts)
	g.GET("/stats", c.GetStatistics)
	g.GET("/unread-count", c.GetUnreadCount)
	g.GET("/export", c.ExportAlerts)
	g.POST("/import", c.ImportAlerts)
	g.POST("/read-all", c.MarkAllRead)
	g.GET("/:id", c.GetAlert)
	g.POST("/:id/read", c.MarkRead)
	g.DELETE("/:id", c.DeleteAlert)
	g.DELETE("", c.ClearAlerts)

	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	return c
}

// ListAlerts returns alerts matching the query filters. Filters combine
// conjunctively; limit truncates from the most recent.
func (c *Controller) ListAlerts(ctx echo.Context) error {
	filter := alerting.Filter{
		StoreID:  ctx.QueryParam("store_id"),
		Type:     alerting.AlertType(ctx.QueryParam("type")),
		Severity: alerting.Severity(ctx.QueryParam("severity")),
		Limit:    defaultQueryLimit,
	}
	if ctx.QueryParam("unread") == "true" {
		filter.UnreadOnly = true
	}
	if limitParam := ctx.QueryParam("limit"); limitParam != "" {
		v, err := strconv.Atoi(limitParam)
		if err != nil || v <= 0 {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
		}
		if v > maxQueryLimit {
			v = maxQueryLimit
		}
		filter.Limit = v
	}

	alerts := c.store.Query(filter)
	return ctx.JSON(http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// GetAlert returns one alert by ID.
func (c *Controller) GetAlert(ctx echo.Context) error {
	alert, ok := c.store.Get(ctx.Param("id"))
	if !ok {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Alert not found"})
	}
	return ctx.JSON(http.StatusOK, alert)
}

// MarkRead marks one alert read via the manager's open path, the same
// path deep links (?alert=<id>) resolve to.
func (c *Controller) MarkRead(ctx echo.Context) error {
	id := ctx.Param("id")
	if _, ok := c.store.Get(id); !ok {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Alert not found"})
	}
	c.manager.HandleAlertOpen(id)
	return ctx.JSON(http.StatusOK, map[string]string{"id": id, "status": "read"})
}

// MarkAllRead marks every alert read.
func (c *Controller) MarkAllRead(ctx echo.Context) error {
	c.store.MarkAllAsRead()
	return ctx.JSON(http.StatusOK, map[string]string{"status": "all read"})
}

// DeleteAlert removes one alert.
func (c *Controller) DeleteAlert(ctx echo.Context) error {
	id := ctx.Param("id")
	if _, ok := c.store.Get(id); !ok {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Alert not found"})
	}
	c.store.Delete(id)
	return ctx.NoContent(http.StatusNoContent)
}

// ClearAlerts removes every alert.
func (c *Controller) ClearAlerts(ctx echo.Context) error {
	c.store.ClearAll()
	return ctx.NoContent(http.StatusNoContent)
}

// GetStatistics returns collection statistics.
func (c *Controller) GetStatistics(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.store.Statistics())
}

// GetUnreadCount returns the unread count, optionally scoped by store_id.
func (c *Controller) GetUnreadCount(ctx echo.Context) error {
	count := c.store.UnreadCount(ctx.QueryParam("store_id"))
	return ctx.JSON(http.StatusOK, map[string]int{"unread": count})
}

// ExportAlerts downloads the full collection as a snapshot file.
func (c *Controller) ExportAlerts(ctx echo.Context) error {
	raw, err := c.store.ExportSnapshot()
	if err != nil {
		c.log.Error("alert export failed", logger.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Export failed"})
	}
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename=alerts.json")
	return ctx.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(raw))
}

// ImportAlerts replaces the collection from an uploaded snapshot. A
// malformed payload leaves existing state untouched.
func (c *Controller) ImportAlerts(ctx echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxImportBytes))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Unreadable body"})
	}
	if !c.store.ImportSnapshot(string(body)) {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid snapshot"})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "imported"})
}
