package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"podcast-transcriber/internal/asr"
	"podcast-transcriber/internal/config"
	"podcast-transcriber/internal/diagnostics"
	"podcast-transcriber/internal/domain"
	"podcast-transcriber/internal/fetch"
	"podcast-transcriber/internal/jobs"
	"podcast-transcriber/internal/resolve"
	"podcast-transcriber/internal/segment"
	"podcast-transcriber/internal/session"
	"podcast-transcriber/internal/summarize"
	"podcast-transcriber/internal/transcribe"
)

// App wires configuration, jobs, pipeline, and result output for the
// headless CLI.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Manager
	Pipeline    pipelineRunner
	Diagnostics domain.DiagnosticReport

	events    *jobs.EventBus
	logger    *slog.Logger
	writeFile func(string, []byte, os.FileMode) error
	mkdirAll  func(string, os.FileMode) error
}

// RunOutput names the files the run produced.
type RunOutput struct {
	TranscriptPath string
	SummaryPath    string
	Degraded       bool
}

// pipelineRunner isolates the transcription pipeline behind an interface.
type pipelineRunner interface {
	Run(ctx context.Context, req transcribe.Request) (transcribe.Result, error)
}

// New builds the application from persisted settings and environment
// credentials, running preflight diagnostics. A missing API key is an
// error here, before any pipeline stage can start.
func New(logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	store := config.NewJSONStore(filepath.Join(homeDir, ".podcast-transcriber", "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, err
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(settings, creds.APIKey != "")

	sessions := session.NewManager(settings.WorkDir)
	engine := asr.NewEngine(asr.NewClient(creds.BaseURL, creds.APIKey, settings.ASRModel, settings.Language))
	summarizer := summarize.NewSummarizer(
		summarize.NewClient(creds.BaseURL, creds.APIKey, settings.SummaryModel),
		settings.Language,
	)
	pipeline := transcribe.NewPipeline(
		sessions,
		resolve.NewResolver(),
		fetch.NewFetcher(),
		segment.NewSplitter(),
		engine,
		summarizer,
		settings.SegmentSeconds,
	)

	return &App{
		Settings:    settings,
		Store:       store,
		Jobs:        jobs.NewManager(),
		Pipeline:    pipeline,
		Diagnostics: report,
		events:      jobs.NewEventBus(1000),
		logger:      logger,
		writeFile:   os.WriteFile,
		mkdirAll:    os.MkdirAll,
	}, nil
}

// RunJob executes one transcription run and writes transcript.txt and
// transcript.md into outputDir (the configured output directory when
// outputDir is empty). Returned errors are short status messages fit
// for end users.
func (a *App) RunJob(ctx context.Context, inputURL, customPrompt, outputDir string) (RunOutput, error) {
	if a.Diagnostics.HasFailures {
		return RunOutput{}, diagnosticsError(a.Diagnostics)
	}

	if outputDir == "" {
		outputDir = a.Settings.OutputDir
	}

	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	if err := a.Jobs.Start(runID); err != nil {
		return RunOutput{}, err
	}

	req := transcribe.Request{
		InputURL:     inputURL,
		CustomPrompt: customPrompt,
		OnStage: func(stage string) {
			status, ok := mapStageToStatus(stage)
			if !ok {
				return
			}
			if err := a.Jobs.Transition(status); err == nil {
				a.publishEvent(jobs.Event{
					RunID:   runID,
					Type:    jobs.EventTypeStatus,
					Status:  status,
					Message: "Running " + stage + " stage",
				})
			}
		},
		OnProgress: func(update transcribe.Progress) {
			status, _ := mapStageToStatus(update.Stage)
			a.publishEvent(jobs.Event{
				RunID:      runID,
				Type:       jobs.EventTypeProgress,
				Status:     status,
				Message:    update.Message,
				Fraction:   update.Fraction,
				Transcript: update.Transcript,
			})
		},
	}

	result, err := a.Pipeline.Run(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			_ = a.Jobs.Transition(domain.RunStatusCancelled)
			a.publishEvent(jobs.Event{
				RunID:   runID,
				Type:    jobs.EventTypeStatus,
				Status:  domain.RunStatusCancelled,
				Message: "Run cancelled",
			})
			return RunOutput{}, err
		}

		_ = a.Jobs.Transition(domain.RunStatusFailed)
		a.publishEvent(jobs.Event{
			RunID:   runID,
			Type:    jobs.EventTypeError,
			Status:  domain.RunStatusFailed,
			Message: err.Error(),
		})
		return RunOutput{}, err
	}

	output, err := a.writeResults(outputDir, result)
	if err != nil {
		_ = a.Jobs.Transition(domain.RunStatusFailed)
		a.publishEvent(jobs.Event{
			RunID:   runID,
			Type:    jobs.EventTypeError,
			Status:  domain.RunStatusFailed,
			Message: err.Error(),
		})
		return RunOutput{}, err
	}

	if err := a.Jobs.Transition(domain.RunStatusDone); err == nil {
		a.publishEvent(jobs.Event{
			RunID:          runID,
			Type:           jobs.EventTypeResult,
			Status:         domain.RunStatusDone,
			Message:        "Transcript and summary written",
			Fraction:       1,
			TranscriptPath: output.TranscriptPath,
			SummaryPath:    output.SummaryPath,
		})
	}

	return output, nil
}

// Events returns all events with sequence greater than sinceSeq.
func (a *App) Events(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// writeResults stores the final transcript and summary as plain files.
// These are the product of the run, not session artifacts, so they
// outlive the session teardown.
func (a *App) writeResults(outputDir string, result transcribe.Result) (RunOutput, error) {
	if err := a.mkdirAll(outputDir, 0o755); err != nil {
		return RunOutput{}, fmt.Errorf("create output directory: %w", err)
	}

	transcriptPath := filepath.Join(outputDir, "transcript.txt")
	if err := a.writeFile(transcriptPath, []byte(result.Transcript), 0o644); err != nil {
		return RunOutput{}, fmt.Errorf("write transcript: %w", err)
	}

	summaryPath := filepath.Join(outputDir, "transcript.md")
	if err := a.writeFile(summaryPath, []byte(result.Summary.Markdown), 0o644); err != nil {
		return RunOutput{}, fmt.Errorf("write summary: %w", err)
	}

	return RunOutput{
		TranscriptPath: transcriptPath,
		SummaryPath:    summaryPath,
		Degraded:       result.Summary.Degraded,
	}, nil
}

// publishEvent stores event history and mirrors it to the logger.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	attrs := []any{"run", published.RunID, "type", string(published.Type)}
	if published.Status != "" {
		attrs = append(attrs, "status", string(published.Status))
	}
	if published.Fraction > 0 {
		attrs = append(attrs, "fraction", published.Fraction)
	}
	if published.Type == jobs.EventTypeError {
		a.logger.Error(published.Message, attrs...)
		return
	}
	a.logger.Info(published.Message, attrs...)
}

// diagnosticsError converts the first failing preflight check into a
// short user-facing error.
func diagnosticsError(report domain.DiagnosticReport) error {
	for _, item := range report.Items {
		if item.Status == domain.DiagnosticStatusFail {
			if item.Hint != "" {
				return fmt.Errorf("%s %s", item.Message, item.Hint)
			}
			return errors.New(item.Message)
		}
	}
	return errors.New("preflight checks failed")
}

// mapStageToStatus maps pipeline stage names to run statuses.
func mapStageToStatus(stage string) (domain.RunStatus, bool) {
	switch stage {
	case transcribe.StageResolving:
		return domain.RunStatusResolving, true
	case transcribe.StageDownloading:
		return domain.RunStatusDownloading, true
	case transcribe.StageSegmenting:
		return domain.RunStatusSegmenting, true
	case transcribe.StageTranscribing:
		return domain.RunStatusTranscribing, true
	case transcribe.StageSummarizing:
		return domain.RunStatusSummarizing, true
	default:
		return "", false
	}
}

// NewForTests builds an app with injectable dependencies.
func NewForTests(
	settings domain.Settings,
	store config.Store,
	pipeline pipelineRunner,
	report domain.DiagnosticReport,
	logger *slog.Logger,
	writeFile func(string, []byte, os.FileMode) error,
	mkdirAll func(string, os.FileMode) error,
) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		Settings:    settings,
		Store:       store,
		Jobs:        jobs.NewManager(),
		Pipeline:    pipeline,
		Diagnostics: report,
		events:      jobs.NewEventBus(1000),
		logger:      logger,
		writeFile:   writeFile,
		mkdirAll:    mkdirAll,
	}
}
