package resolve

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestResolveDirectAudioLinkIsIdempotent checks extension passthrough.
func TestResolveDirectAudioLinkIsIdempotent(t *testing.T) {
	resolver := NewResolver()

	input := "https://cdn.example.com/episodes/42.mp3?token=abc"
	got, err := resolver.Resolve(context.Background(), input)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != input {
		t.Fatalf("resolved = %q, want unchanged input", got)
	}
}

// TestResolveAudioContentTypePassesThrough checks header detection.
func TestResolveAudioContentTypePassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("binary audio"))
	}))
	defer server.Close()

	resolver := NewResolver()
	input := server.URL + "/stream"
	got, err := resolver.Resolve(context.Background(), input)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != input {
		t.Fatalf("resolved = %q, want unchanged input", got)
	}
}

// TestResolveScansHTMLAudioElement checks the goquery branch.
func TestResolveScansHTMLAudioElement(t *testing.T) {
	page := `<html><body>
		<h1>Episode 42</h1>
		<audio src="https://cdn.example.com/ep42.mp3" controls></audio>
	</body></html>`
	server := newPageServer(t, "text/html", page)
	defer server.Close()

	resolver := NewResolver()
	got, err := resolver.Resolve(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "https://cdn.example.com/ep42.mp3" {
		t.Fatalf("resolved = %q", got)
	}
}

// TestResolveScansHTMLAnchors checks audio links behind plain anchors.
func TestResolveScansHTMLAnchors(t *testing.T) {
	page := `<html><body>
		<a href="https://example.com/about">About</a>
		<a href="https://cdn.example.com/show/ep7.m4a">Download episode</a>
	</body></html>`
	server := newPageServer(t, "text/html", page)
	defer server.Close()

	resolver := NewResolver()
	got, err := resolver.Resolve(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "https://cdn.example.com/show/ep7.m4a" {
		t.Fatalf("resolved = %q", got)
	}
}

// TestResolveReadsRSSEnclosure checks the feed branch.
func TestResolveReadsRSSEnclosure(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
	<title>Show</title>
	<item>
		<title>Episode 1</title>
		<enclosure url="https://cdn.example.com/feed/ep1.mp3" type="audio/mpeg" length="123"/>
	</item>
</channel></rss>`
	server := newPageServer(t, "application/rss+xml", feed)
	defer server.Close()

	resolver := NewResolver()
	got, err := resolver.Resolve(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "https://cdn.example.com/feed/ep1.mp3" {
		t.Fatalf("resolved = %q", got)
	}
}

// TestResolveFallsBackToRawScan checks the regex branch over script
// bodies that structured parsing cannot reach.
func TestResolveFallsBackToRawScan(t *testing.T) {
	page := `<html><body><script>
		var episode = {"media": "https://cdn.example.com/js/ep9.m4a"};
	</script></body></html>`
	server := newPageServer(t, "text/html", page)
	defer server.Close()

	resolver := NewResolver()
	got, err := resolver.Resolve(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "https://cdn.example.com/js/ep9.m4a" {
		t.Fatalf("resolved = %q", got)
	}
}

// TestResolveNoMatchReturnsErrNoAudioURL checks the terminal failure.
func TestResolveNoMatchReturnsErrNoAudioURL(t *testing.T) {
	server := newPageServer(t, "text/html", "<html><body>No media here</body></html>")
	defer server.Close()

	resolver := NewResolver()
	_, err := resolver.Resolve(context.Background(), server.URL)
	if !errors.Is(err, ErrNoAudioURL) {
		t.Fatalf("error = %v, want ErrNoAudioURL", err)
	}
}

// TestResolveNetworkFailureReturnsErrNoAudioURL checks unreachable hosts.
func TestResolveNetworkFailureReturnsErrNoAudioURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	resolver := NewResolver()
	_, err := resolver.Resolve(context.Background(), server.URL)
	if !errors.Is(err, ErrNoAudioURL) {
		t.Fatalf("error = %v, want ErrNoAudioURL", err)
	}
}

// TestResolveEmptyInput checks blank input is rejected without network.
func TestResolveEmptyInput(t *testing.T) {
	resolver := NewResolver()
	_, err := resolver.Resolve(context.Background(), "  ")
	if !errors.Is(err, ErrNoAudioURL) {
		t.Fatalf("error = %v, want ErrNoAudioURL", err)
	}
}

// newPageServer serves one fixed body with the given content type.
func newPageServer(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
}
