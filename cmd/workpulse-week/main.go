package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/claude/workpulse/internal/access"
	"github.com/claude/workpulse/internal/activity"
	"github.com/claude/workpulse/internal/calendar"
	"github.com/claude/workpulse/internal/config"
	"github.com/claude/workpulse/internal/health"
	"github.com/claude/workpulse/internal/models"
	"github.com/claude/workpulse/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.StringP("config", "c", "config.yaml", "path to config file")
	date := flag.StringP("date", "d", "", "any day of the week to summarize (YYYY-MM-DD, default today)")
	asJSON := flag.Bool("json", false, "print the summary as JSON")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("workpulse-week", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	loc, err := cfg.Calendar.Location()
	if err != nil {
		log.Error("invalid timezone", "error", err)
		os.Exit(1)
	}
	cal, err := calendar.ForLocale(cfg.Calendar.Locale, loc)
	if err != nil {
		log.Error("invalid locale", "error", err)
		os.Exit(1)
	}

	ref := time.Now()
	if *date != "" {
		ref, err = time.ParseInLocation(time.DateOnly, *date, loc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: --date must be YYYY-MM-DD\n")
			os.Exit(1)
		}
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	policy := access.NewPolicy(
		access.Either{
			access.Static(cfg.Access.Unlocked),
			access.Stored{DB: db, Name: storage.EntitlementPro},
		},
		cal, log,
		access.WithLookback(cfg.Access.LookbackWeeks),
	)
	svc := activity.NewService(health.NewSource(db), db, policy, cal, log)

	summary, err := svc.WeekSummary(ctx, ref)
	if err != nil {
		log.Error("aggregation failed", "error", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			log.Error("encode failed", "error", err)
			os.Exit(1)
		}
		return
	}
	printSummary(os.Stdout, summary)
}

func printSummary(out io.Writer, s *models.WeekSummary) {
	fmt.Fprintf(out, "Week %s to %s\n\n",
		s.WeekStart.Format(time.DateOnly), s.WeekEnd.AddDate(0, 0, -1).Format(time.DateOnly))

	if s.Locked {
		fmt.Fprintln(out, "  This week is locked. Unlock history to view it.")
		return
	}

	w := tabwriter.NewWriter(out, 2, 0, 3, ' ', 0)
	fmt.Fprintf(w, "METRIC\tUNIT\tWORK\tPERSONAL\tWORK/DAY\tPERSONAL/DAY\n")
	for _, m := range s.Metrics {
		if m.Combine == models.CombineAverage {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t%.0f\t%.0f\n", m.Kind, m.Unit, m.WorkAverage, m.PersonalAverage)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%.1f\t%.1f\t%.1f\n",
			m.Kind, m.Unit, m.WorkTotal, m.PersonalTotal, m.WorkAverage, m.PersonalAverage)
	}
	w.Flush()

	for _, k := range s.LockedMetrics {
		fmt.Fprintf(out, "  %s: locked\n", k)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Sessions:       %d\n", s.SessionCount)
	fmt.Fprintf(out, "  Worked:         %s\n", models.FormatHours(time.Duration(s.WorkedHours*float64(time.Hour))))
	fmt.Fprintf(out, "  Estimated pay:  %.2f\n", s.EstimatedPay)
}
