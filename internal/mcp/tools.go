package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/claude/workpulse/internal/activity"
	"github.com/claude/workpulse/internal/models"
	"github.com/claude/workpulse/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.Local)
}

// refDate parses an optional reference date, defaulting to now.
func refDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	return parseFlexTime(s)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Tool definitions ---

var toolGetWeekSummary = mcp.NewTool("get_week_summary",
	mcp.WithDescription("Work vs personal activity for one week: a 7-day history per metric, weekly averages, hours worked and estimated pay. Locked weeks return locked=true and no data."),
	mcp.WithString("date", mcp.Description("Any date inside the week (YYYY-MM-DD). Defaults to today.")),
)

var toolGetToday = mcp.NewTool("get_today",
	mcp.WithDescription("Today's work/personal split for every metric, hours worked so far, and today's session if any."),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List declared work sessions starting in a range, newest first. Sessions without an end are still running."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolCompareWeeks = mcp.NewTool("compare_weeks",
	mcp.WithDescription("Compare two weeks' work/personal averages, hours and pay. Deltas are week B minus week A."),
	mcp.WithString("week_a", mcp.Description("Date inside week A. Defaults to one week before week B.")),
	mcp.WithString("week_b", mcp.Description("Date inside week B. Defaults to today.")),
)

var toolGetMetricTimeSeries = mcp.NewTool("get_metric_timeseries",
	mcp.WithDescription("Raw time-bucketed samples for one metric kind (sum/avg/min/max/count per bucket), in the stored unit."),
	mcp.WithString("kind", mcp.Required(), mcp.Description("Metric kind"), mcp.Enum("steps", "calories", "distance", "heart_rate", "flights")),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Time bucket size. Defaults to '1 day'."), mcp.Enum("1 hour", "1 day", "1 week", "1 month")),
)

// --- Tool handlers ---

func (h *handlers) getWeekSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := refDate(req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	summary, err := h.ds.WeekSummary(ctx, ref)
	if err != nil {
		h.log.Error("mcp get_week_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(summary)
}

func (h *handlers) getToday(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.ds.Today(ctx)
	if err != nil {
		h.log.Error("mcp get_today", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(snap)
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	sessions, err := h.ds.ListSessions(ctx, start, end)
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sessions == nil {
		sessions = []models.WorkSession{}
	}
	return jsonResult(sessions)
}

func (h *handlers) compareWeeks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refB, err := refDate(req.GetString("week_b", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid week_b: " + err.Error()), nil
	}
	refA := refB.AddDate(0, 0, -7)
	if s := req.GetString("week_a", ""); s != "" {
		if refA, err = parseFlexTime(s); err != nil {
			return mcp.NewToolResultError("invalid week_a: " + err.Error()), nil
		}
	}

	var a, b *models.WeekSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		a, err = h.ds.WeekSummary(gctx, refA)
		return err
	})
	g.Go(func() (err error) {
		b, err = h.ds.WeekSummary(gctx, refB)
		return err
	})
	if err := g.Wait(); err != nil {
		h.log.Error("mcp compare_weeks", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(activity.CompareWeeks(a, b))
}

func (h *handlers) getMetricTimeSeries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kindStr, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind parameter is required"), nil
	}
	kind, err := models.ParseMetricKind(kindStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	points, err := h.ds.GetTimeSeries(ctx, kind, start, end, req.GetString("bucket", "1 day"))
	if errors.Is(err, activity.ErrMetricLocked) || errors.Is(err, activity.ErrHistoryLocked) {
		return mcp.NewToolResultError("locked: " + err.Error()), nil
	}
	if err != nil {
		h.log.Error("mcp get_metric_timeseries", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if points == nil {
		points = []storage.TimeSeriesPoint{}
	}
	return jsonResult(points)
}
