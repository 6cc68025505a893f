package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"podcast-transcriber/internal/httpclient"
)

// copyChunkSize is the streaming buffer size. The body is copied to
// disk chunk by chunk so memory use stays flat for arbitrarily large
// episodes.
const copyChunkSize = 2 << 20

// Fetcher streams remote media files to local storage.
type Fetcher struct {
	client *httpclient.HTTPClient
	create func(string) (*os.File, error)
}

// NewFetcher builds a fetcher without a client-wide timeout; download
// duration is bounded by the caller's context.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: httpclient.NewClient(httpclient.BrowserClient, 0),
		create: os.Create,
	}
}

// Fetch downloads url to destination and returns the bytes written.
// A non-success status aborts the download; any partial file at
// destination is left for the session teardown to remove.
func (f *Fetcher) Fetch(ctx context.Context, url, destination string) (int64, error) {
	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return 0, fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode)
	}

	out, err := f.create(destination)
	if err != nil {
		return 0, fmt.Errorf("create media file: %w", err)
	}

	written, err := io.CopyBuffer(out, resp.Body, make([]byte, copyChunkSize))
	closeErr := out.Close()
	if err != nil {
		return written, fmt.Errorf("stream media to disk: %w", err)
	}
	if closeErr != nil {
		return written, fmt.Errorf("finalize media file: %w", closeErr)
	}

	return written, nil
}
