package transcribe

import (
	"context"
	"fmt"
	"strings"

	"podcast-transcriber/internal/asr"
	"podcast-transcriber/internal/domain"
	"podcast-transcriber/internal/fetch"
	"podcast-transcriber/internal/resolve"
	"podcast-transcriber/internal/segment"
	"podcast-transcriber/internal/session"
	"podcast-transcriber/internal/summarize"
)

// Pipeline stage names, in execution order.
const (
	StageResolving    = "resolving"
	StageDownloading  = "downloading"
	StageSegmenting   = "segmenting"
	StageTranscribing = "transcribing"
	StageSummarizing  = "summarizing"
)

// Request contains the input URL and execution callbacks for one run.
type Request struct {
	InputURL     string
	CustomPrompt string
	OnStage      func(stage string)
	OnProgress   func(update Progress)
}

// Progress reports liveness after each blocking pipeline step.
// Fraction is a monotonically increasing completion estimate in [0,1];
// Transcript carries the partial transcript accumulated so far.
type Progress struct {
	Stage      string
	Message    string
	Fraction   float64
	Transcript string
}

// Result contains the final transcript and summary document.
type Result struct {
	Source     domain.SourceReference
	Fragments  []domain.Fragment
	Transcript string
	Summary    domain.SummaryDocument
}

// PipelineError is a stage-aware error with optional command context.
type PipelineError struct {
	Stage      string             `json:"stage"`
	Message    string             `json:"message"`
	CommandLog segment.CommandLog `json:"commandLog"`
	Err        error              `json:"-"`
}

// Error formats pipeline failures for logs and status messages.
func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}

	return fmt.Sprintf(
		"%s: %s (cmd=%s exit=%d)",
		e.Stage,
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// urlResolver abstracts media URL resolution.
type urlResolver interface {
	Resolve(ctx context.Context, inputURL string) (string, error)
}

// mediaFetcher abstracts the streaming media download.
type mediaFetcher interface {
	Fetch(ctx context.Context, url, destination string) (int64, error)
}

// audioSplitter abstracts the external segmentation tool.
type audioSplitter interface {
	Split(ctx context.Context, mediaPath, outPattern string, seconds int) ([]domain.Segment, segment.CommandLog, error)
}

// segmentTranscriber abstracts per-segment transcription with retry.
type segmentTranscriber interface {
	TranscribeSegment(ctx context.Context, seg domain.Segment) domain.Fragment
}

// transcriptSummarizer abstracts summary document generation.
type transcriptSummarizer interface {
	Summarize(ctx context.Context, transcript, sourceURL, customPrompt string) domain.SummaryDocument
}

// Pipeline orchestrates resolution, download, segmentation, ordered
// transcription, and summarization under one session. Stages execute
// strictly sequentially: serial ASR calls respect service rate limits
// and keep disk usage bounded to one in-flight segment.
type Pipeline struct {
	sessions       *session.Manager
	resolver       urlResolver
	fetcher        mediaFetcher
	splitter       audioSplitter
	engine         segmentTranscriber
	summarizer     transcriptSummarizer
	segmentSeconds int
}

// NewPipeline wires the production pipeline components.
func NewPipeline(
	sessions *session.Manager,
	resolver *resolve.Resolver,
	fetcher *fetch.Fetcher,
	splitter *segment.Splitter,
	engine *asr.Engine,
	summarizer *summarize.Summarizer,
	segmentSeconds int,
) *Pipeline {
	return &Pipeline{
		sessions:       sessions,
		resolver:       resolver,
		fetcher:        fetcher,
		splitter:       splitter,
		engine:         engine,
		summarizer:     summarizer,
		segmentSeconds: segmentSeconds,
	}
}

// Run executes one full pipeline invocation. Only resolution, fetch,
// and segmentation failures abort the run; transcription and
// summarization degrade locally. Session teardown runs on every exit
// path, so no session-namespaced artifact survives the call.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.InputURL) == "" {
		return Result{}, &PipelineError{
			Stage:   StageResolving,
			Message: "input URL is required",
		}
	}

	emitStage(req.OnStage, StageResolving)
	emitProgress(req.OnProgress, Progress{Stage: StageResolving, Message: "Resolving audio URL"})

	resolvedURL, err := p.resolver.Resolve(ctx, req.InputURL)
	if err != nil {
		return Result{}, &PipelineError{
			Stage:   StageResolving,
			Message: "no audio URL could be resolved from the input",
			Err:     err,
		}
	}
	source := domain.SourceReference{InputURL: req.InputURL, ResolvedURL: resolvedURL}

	sess, err := p.sessions.Start()
	if err != nil {
		return Result{}, &PipelineError{
			Stage:   StageDownloading,
			Message: "failed to create session workspace",
			Err:     err,
		}
	}
	defer sess.Finish()

	emitStage(req.OnStage, StageDownloading)
	emitProgress(req.OnProgress, Progress{Stage: StageDownloading, Message: "Downloading source audio"})

	mediaPath := sess.SourcePath()
	sess.Track(mediaPath)
	if _, err := p.fetcher.Fetch(ctx, resolvedURL, mediaPath); err != nil {
		return Result{}, &PipelineError{
			Stage:   StageDownloading,
			Message: "failed to download source audio",
			Err:     err,
		}
	}

	emitStage(req.OnStage, StageSegmenting)
	emitProgress(req.OnProgress, Progress{Stage: StageSegmenting, Message: "Splitting audio into segments"})

	segments, cmdLog, err := p.splitter.Split(ctx, mediaPath, sess.SegmentPattern(), p.segmentSeconds)
	if err != nil {
		return Result{}, &PipelineError{
			Stage:      StageSegmenting,
			Message:    "segmentation failed, the source format may be unsupported",
			CommandLog: cmdLog,
			Err:        err,
		}
	}
	for _, seg := range segments {
		sess.Track(seg.Path)
	}

	emitStage(req.OnStage, StageTranscribing)

	total := len(segments)
	fragments := make([]domain.Fragment, 0, total)
	var transcript strings.Builder
	for i, seg := range segments {
		frag := p.engine.TranscribeSegment(ctx, seg)
		fragments = append(fragments, frag)
		transcript.WriteString(frag.Text)
		transcript.WriteString("\n")

		// Release right after the attempt, success or not.
		_ = sess.Release(seg.Path)

		emitProgress(req.OnProgress, Progress{
			Stage:      StageTranscribing,
			Message:    fmt.Sprintf("Transcribed segment %d of %d", i+1, total),
			Fraction:   float64(i+1) / float64(total),
			Transcript: transcript.String(),
		})
	}

	emitStage(req.OnStage, StageSummarizing)
	emitProgress(req.OnProgress, Progress{
		Stage:      StageSummarizing,
		Message:    "Generating summary document",
		Fraction:   1,
		Transcript: transcript.String(),
	})

	summary := p.summarizer.Summarize(ctx, transcript.String(), req.InputURL, req.CustomPrompt)

	return Result{
		Source:     source,
		Fragments:  fragments,
		Transcript: transcript.String(),
		Summary:    summary,
	}, nil
}

// emitStage forwards stage updates when callback is configured.
func emitStage(cb func(stage string), stage string) {
	if cb != nil {
		cb(stage)
	}
}

// emitProgress forwards progress updates when callback is configured.
func emitProgress(cb func(update Progress), update Progress) {
	if cb != nil {
		cb(update)
	}
}

// NewPipelineForTests constructs a pipeline with injectable dependencies.
func NewPipelineForTests(
	sessions *session.Manager,
	resolver urlResolver,
	fetcher mediaFetcher,
	splitter audioSplitter,
	engine segmentTranscriber,
	summarizer transcriptSummarizer,
	segmentSeconds int,
) *Pipeline {
	return &Pipeline{
		sessions:       sessions,
		resolver:       resolver,
		fetcher:        fetcher,
		splitter:       splitter,
		engine:         engine,
		summarizer:     summarizer,
		segmentSeconds: segmentSeconds,
	}
}
