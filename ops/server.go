// Package ops exposes a small HTTP diagnostics endpoint for operators.
// It is read-only and entirely separate from the stdio protocol surface.
package ops

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/llmtoolhub/toolhub-mcp-go/audit"
	"github.com/llmtoolhub/toolhub-mcp-go/logger"
	"github.com/llmtoolhub/toolhub-mcp-go/tools"
)

// Server serves health and tool catalog diagnostics over HTTP.
type Server struct {
	name     string
	version  string
	registry *tools.Manager
	store    *audit.Store
	echo     *echo.Echo
	started  time.Time
}

// NewServer creates a diagnostics server. store may be nil when the
// invocation trail is disabled.
func NewServer(name, version string, registry *tools.Manager, store *audit.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		name:     name,
		version:  version,
		registry: registry,
		store:    store,
		echo:     e,
		started:  time.Now(),
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	s.echo.Use(middleware.Recover())

	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/tools", s.handleTools)
	s.echo.GET("/audit/recent", s.handleAuditRecent)
}

// Start listens on addr and blocks until the server is shut down.
func (s *Server) Start(addr string) error {
	logger.Info("Diagnostics server starting to listen", "address", addr)
	return s.echo.Start(addr)
}

// Shutdown stops the HTTP listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"name":    s.name,
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"tools":   s.registry.Len(),
	})
}

func (s *Server) handleTools(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"tools": s.registry.List(),
	})
}

func (s *Server) handleAuditRecent(c echo.Context) error {
	if s.store == nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "invocation trail is disabled",
		})
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("invalid limit %q", raw),
			})
		}
	}

	records, err := s.store.Recent(c.Request().Context(), limit)
	if err != nil {
		logger.Error("Failed to load recent invocation records", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to load invocation records",
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"records": records,
	})
}
