// Package mcp exposes week summaries and work sessions as MCP tools.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("WorkPulse", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("WorkPulse activity server. Activity (steps, calories, distance, heart rate, flights) is split into time spent inside declared work sessions and personal time. Query weekly summaries, today's split, and work sessions."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetWeekSummary, Handler: h.getWeekSummary},
		server.ServerTool{Tool: toolGetToday, Handler: h.getToday},
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolCompareWeeks, Handler: h.compareWeeks},
		server.ServerTool{Tool: toolGetMetricTimeSeries, Handler: h.getMetricTimeSeries},
	)

	s.AddResources(
		server.ServerResource{Resource: resToday, Handler: h.today},
		server.ServerResource{Resource: resMetricCatalog, Handler: h.metricCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resToday = mcp.NewResource(
	"workpulse://today",
	"Today",
	mcp.WithResourceDescription("Today's work/personal split for every metric, hours worked so far, and the active session"),
	mcp.WithMIMEType("application/json"),
)

var resMetricCatalog = mcp.NewResource(
	"workpulse://metric_catalog",
	"Metric Catalog",
	mcp.WithResourceDescription("Tracked metric kinds with units, how they combine, and whether they need the detailed-metrics unlock"),
	mcp.WithMIMEType("application/json"),
)
