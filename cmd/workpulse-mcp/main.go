package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	flag "github.com/spf13/pflag"

	"github.com/claude/workpulse/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.StringP("server", "s", os.Getenv("WORKPULSE_URL"), "WorkPulse server URL (e.g. https://workpulse.tail1234.ts.net)")
	logFile := flag.String("log", "", "write logs to this file (stdout is the MCP transport)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("workpulse-mcp", Version)
		return
	}

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: workpulse-mcp --server <URL>\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var logOut io.Writer = os.Stderr
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("workpulse-mcp starting", "version", Version, "server", *serverURL)

	srv := mcp.New(mcp.NewHTTPClient(*serverURL), Version, log)
	if err := mcpserver.ServeStdio(srv); err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}
