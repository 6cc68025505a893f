package domain

// RunStatus tracks each pipeline stage for a single transcription run.
type RunStatus string

const (
	RunStatusIdle         RunStatus = "idle"
	RunStatusResolving    RunStatus = "resolving"
	RunStatusDownloading  RunStatus = "downloading"
	RunStatusSegmenting   RunStatus = "segmenting"
	RunStatusTranscribing RunStatus = "transcribing"
	RunStatusSummarizing  RunStatus = "summarizing"
	RunStatusDone         RunStatus = "done"
	RunStatusFailed       RunStatus = "failed"
	RunStatusCancelled    RunStatus = "cancelled"
)

// Settings contains user-selectable runtime configuration.
type Settings struct {
	ASRModel       string `json:"asrModel"`
	SummaryModel   string `json:"summaryModel"`
	Language       string `json:"language"`
	SegmentSeconds int    `json:"segmentSeconds"`
	WorkDir        string `json:"workDir"`
	OutputDir      string `json:"outputDir"`
}

// Run stores the current run identity and lifecycle status.
type Run struct {
	ID     string    `json:"id"`
	Status RunStatus `json:"status"`
}

// SourceReference pairs the user input URL with its resolved media URL.
type SourceReference struct {
	InputURL    string `json:"inputUrl"`
	ResolvedURL string `json:"resolvedUrl"`
}

// Segment is one bounded-duration slice of the source audio. Index
// follows the zero-padded ordinal in the segment filename and fixes the
// position of the segment's text in the final transcript.
type Segment struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
}

// Fragment is the transcription result for one segment. Failed marks
// fragments carrying the sentinel placeholder instead of ASR output.
type Fragment struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Failed bool   `json:"failed"`
}

// SummaryDocument is the Markdown note derived from a transcript.
// Degraded marks the fallback document built when summarization failed.
type SummaryDocument struct {
	Markdown string `json:"markdown"`
	Degraded bool   `json:"degraded"`
}
