package resolve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"podcast-transcriber/internal/httpclient"
)

// ErrNoAudioURL is returned when no fetchable media URL can be found
// behind the input. Resolution failures are terminal and never retried.
var ErrNoAudioURL = errors.New("no resolvable audio url")

const (
	resolveTimeout = 10 * time.Second

	// maxBodyBytes bounds how much of a page or feed body is scanned.
	maxBodyBytes = 4 << 20
)

// audioURLPattern matches direct media links embedded in arbitrary
// page markup, the last-resort scan when structured parsing finds nothing.
var audioURLPattern = regexp.MustCompile(`https?://[^\s"'<>]+\.(?:m4a|mp3)`)

var audioExtensions = []string{".mp3", ".m4a", ".wav", ".aac", ".ogg", ".flac"}

// Resolver determines the real fetchable media URL behind a user input
// URL: a direct audio link passes through unchanged, RSS feeds yield
// their first audio enclosure, and HTML pages are scanned for embedded
// audio links.
type Resolver struct {
	client *httpclient.HTTPClient
	feeds  *gofeed.Parser
}

// NewResolver builds a resolver with a browser header profile and a
// bounded per-request timeout.
func NewResolver() *Resolver {
	return &Resolver{
		client: httpclient.NewClient(httpclient.BrowserClient, resolveTimeout),
		feeds:  gofeed.NewParser(),
	}
}

// Resolve returns the fetchable media URL for inputURL or ErrNoAudioURL.
func (r *Resolver) Resolve(ctx context.Context, inputURL string) (string, error) {
	inputURL = strings.TrimSpace(inputURL)
	if inputURL == "" {
		return "", ErrNoAudioURL
	}
	if hasAudioExtension(inputURL) {
		return inputURL, nil
	}

	resp, err := r.client.Get(ctx, inputURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoAudioURL, err)
	}
	defer resp.Body.Close()

	if strings.Contains(resp.Header.Get("Content-Type"), "audio") {
		return inputURL, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoAudioURL, err)
	}

	if found := r.fromFeed(body); found != "" {
		return found, nil
	}
	if found := fromHTML(body); found != "" {
		return found, nil
	}
	if found := audioURLPattern.FindString(string(body)); found != "" {
		return found, nil
	}

	return "", ErrNoAudioURL
}

// fromFeed returns the first audio enclosure of an RSS/Atom feed body,
// or empty when the body is not a feed or carries no audio.
func (r *Resolver) fromFeed(body []byte) string {
	feed, err := r.feeds.Parse(bytes.NewReader(body))
	if err != nil || feed == nil {
		return ""
	}

	for _, item := range feed.Items {
		for _, enclosure := range item.Enclosures {
			if enclosure == nil || enclosure.URL == "" {
				continue
			}
			if strings.Contains(enclosure.Type, "audio") || hasAudioExtension(enclosure.URL) {
				return enclosure.URL
			}
		}
	}
	return ""
}

// fromHTML scans page markup for embedded audio links: audio elements
// first, then plain anchors pointing at audio files.
func fromHTML(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	found := ""
	doc.Find("audio[src], audio source[src], source[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if ok && strings.HasPrefix(src, "http") {
			found = src
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if ok && strings.HasPrefix(href, "http") && hasAudioExtension(href) {
			found = href
			return false
		}
		return true
	})
	return found
}

// hasAudioExtension reports whether the URL path ends in a known audio
// file extension, ignoring any query string.
func hasAudioExtension(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	ext := strings.ToLower(path.Ext(parsed.Path))
	for _, known := range audioExtensions {
		if ext == known {
			return true
		}
	}
	return false
}
