package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"podcast-transcriber/internal/bootstrap"
)

func main() {
	inputURL := flag.String("url", "", "podcast page or direct audio URL")
	prompt := flag.String("prompt", "", "optional extra instruction for the summary")
	outDir := flag.String("out", "", "output directory (defaults to the configured output dir)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *inputURL == "" {
		logger.Error("missing required -url flag")
		flag.Usage()
		os.Exit(2)
	}

	app, err := bootstrap.New(logger)
	if err != nil {
		logger.Error("bootstrap app", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	output, err := app.RunJob(ctx, *inputURL, *prompt, *outDir)
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("run complete",
		slog.String("transcript", output.TranscriptPath),
		slog.String("summary", output.SummaryPath),
		slog.Bool("degradedSummary", output.Degraded),
	)
}
