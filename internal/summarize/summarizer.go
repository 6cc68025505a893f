package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"podcast-transcriber/internal/domain"
)

const (
	summaryTemperature = 0.3
	summaryMaxTokens   = 2048
)

// systemInstruction pins the assistant role for every summary request.
const systemInstruction = "You are a note-taking assistant that turns podcast transcripts into structured Markdown notes."

// defaultInstruction is used when the user supplies no custom prompt.
const defaultInstruction = "Produce structured podcast notes emphasizing the summary, per-section key points, and an ideas/to-do list."

// completer abstracts the LLM client for testability.
type completer interface {
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
}

// Summarizer builds the structured note request and degrades to a
// fallback document on any service failure, so the caller never loses
// the transcript because summarization failed.
type Summarizer struct {
	client   completer
	language string
	now      func() time.Time
}

// NewSummarizer builds a summarizer targeting the given output language.
func NewSummarizer(client *Client, language string) *Summarizer {
	return &Summarizer{
		client:   client,
		language: language,
		now:      time.Now,
	}
}

// Summarize produces the Markdown summary document for a transcript.
// It never returns an error: failures yield a degraded document with a
// visible banner, the error description, and the raw transcript verbatim.
func (s *Summarizer) Summarize(ctx context.Context, transcript, sourceURL, customPrompt string) domain.SummaryDocument {
	prompt := buildPrompt(transcript, sourceURL, customPrompt, s.language, s.now())

	text, err := s.client.Complete(ctx, systemInstruction, prompt, summaryTemperature, summaryMaxTokens)
	if err != nil {
		return fallbackDocument(transcript, err)
	}

	return domain.SummaryDocument{Markdown: strings.TrimSpace(text)}
}

// buildPrompt embeds the fixed structural contract, the user's custom
// instruction, and the full transcript into one request. The fixed
// sections must be honored regardless of the custom instruction.
func buildPrompt(transcript, sourceURL, customPrompt, language string, now time.Time) string {
	instruction := strings.TrimSpace(customPrompt)
	if instruction == "" {
		instruction = defaultInstruction
	}

	timestamp := now.Format("2006-01-02 15:04")

	var b strings.Builder
	fmt.Fprintf(&b, "Respond in %s with Markdown. Whatever the additional instruction says, always include these fixed sections:\n", language)
	fmt.Fprintf(&b, "1. A title of your choosing\n")
	fmt.Fprintf(&b, "2. A metadata block containing at least \"Source: %s\" and \"Generated: %s\"\n", sourceURL, timestamp)
	fmt.Fprintf(&b, "3. A summary of 3-4 bullet points\n")
	fmt.Fprintf(&b, "4. A section-by-section recap of the content\n")
	fmt.Fprintf(&b, "5. An ideas/to-do checklist with at least 2 items in \"- [ ]\" form\n")
	fmt.Fprintf(&b, "\nAdditional instruction:\n%s\n", instruction)
	fmt.Fprintf(&b, "\nThe complete podcast transcript follows. Generate the Markdown while keeping the fixed sections:\n%s", transcript)
	return b.String()
}

// fallbackDocument wraps the untouched transcript with a failure
// banner and the error description.
func fallbackDocument(transcript string, cause error) domain.SummaryDocument {
	var b strings.Builder
	b.WriteString("# Automatic summary failed\n\n")
	fmt.Fprintf(&b, "Error: %v\n\n", cause)
	b.WriteString("---\n")
	b.WriteString(transcript)

	return domain.SummaryDocument{
		Markdown: b.String(),
		Degraded: true,
	}
}

// NewSummarizerForTests creates a summarizer with injectable dependencies.
func NewSummarizerForTests(client completer, language string, now func() time.Time) *Summarizer {
	return &Summarizer{client: client, language: language, now: now}
}
