package asr

import (
	"context"
	"strings"
	"time"

	"podcast-transcriber/internal/domain"
)

const (
	maxAttempts  = 3
	retryBackoff = 2 * time.Second
)

// FailedFragmentText is the sentinel placed in the transcript for a
// segment whose transcription never succeeded. It keeps fragment count
// and order intact, so one unreachable segment cannot shift the rest.
const FailedFragmentText = "[transcription failed for this segment]"

// transcriber abstracts the ASR client for testability.
type transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Engine wraps the ASR client with bounded per-segment retry and
// output normalization. It never returns an error: exhausted retries
// yield the sentinel fragment instead.
type Engine struct {
	client transcriber
	sleep  func(time.Duration)
}

// NewEngine builds an engine around the production ASR client.
func NewEngine(client *Client) *Engine {
	return &Engine{
		client: client,
		sleep:  time.Sleep,
	}
}

// TranscribeSegment attempts transcription up to three times with a
// fixed backoff between attempts. Output is re-encoded so byte
// sequences that cannot round-trip through UTF-8 are dropped rather
// than poisoning the aggregate transcript.
func (e *Engine) TranscribeSegment(ctx context.Context, seg domain.Segment) domain.Fragment {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			e.sleep(retryBackoff)
		}

		text, err := e.client.Transcribe(ctx, seg.Path)
		if err == nil {
			return domain.Fragment{
				Index: seg.Index,
				Text:  strings.TrimSpace(strings.ToValidUTF8(text, "")),
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	return domain.Fragment{
		Index:  seg.Index,
		Text:   FailedFragmentText,
		Failed: true,
	}
}

// NewEngineForTests creates an engine with injectable dependencies.
func NewEngineForTests(client transcriber, sleep func(time.Duration)) *Engine {
	return &Engine{client: client, sleep: sleep}
}
