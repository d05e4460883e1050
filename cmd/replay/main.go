// Command replay loads procstat archives into an in-memory history and stays resident
// so the restored state can be inspected.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"procstat-agent/internal/agent"
	"procstat-agent/internal/archive"
	"procstat-agent/internal/config"
	"procstat-agent/internal/history"
	"procstat-agent/internal/telemetry"
)

const idleTick = time.Minute

func main() {
	var (
		files = flag.String("files", "", "comma-separated archive files, loaded in order")
		dir   = flag.String("dir", "", "directory whose procstat_* archives are loaded by bucket time, after -files")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := agent.BuildLogger(cfg)

	paths := splitFiles(*files)
	if *dir != "" {
		listed, err := archive.ListDir(*dir)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "nothing to load: pass -files or -dir")
		flag.Usage()
		os.Exit(2)
	}

	store := history.NewStore(cfg.HistoryCapacity())
	loader := archive.NewLoader(logger, store, telemetry.NewMetrics())
	if err := replay(loader, paths, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	idle(ctx, logger, store)
}

func splitFiles(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func replay(loader *archive.Loader, paths []string, out io.Writer) error {
	err := loader.Load(paths, func(r archive.FileResult) {
		switch r.Status {
		case archive.FileLoaded:
			fmt.Fprintf(out, "✔ %s\n", r.Path)
		case archive.FileMissing:
			fmt.Fprintf(out, "✘ %s\n", r.Path)
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "replay complete: %d file(s) processed\n", len(paths))
	return nil
}

// idle keeps the process resident without touching the store until ctx is done.
func idle(ctx context.Context, logger *slog.Logger, store *history.Store) {
	t := time.NewTicker(idleTick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sum := store.Summarize()
			logger.Debug("replay idle",
				"lengths", store.Lengths(),
				"newest", sum.At,
				"cpu_busy", sum.CPUBusy,
				"busiest_disk", sum.BusiestDisk,
			)
		}
	}
}
