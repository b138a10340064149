// Package extract pulls plain text out of web pages for training. The
// retrieval core consumes the result as already-clean text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mohamedaaris/agentx/internal/version"
)

// ErrNoContent indicates the page yielded no usable text.
var ErrNoContent = errors.New("extract: no text content found")

// maxBodyBytes bounds how much of a page is read.
const maxBodyBytes = 10 << 20

var whitespaceRun = regexp.MustCompile(`[ \t\r\f]+`)

// URLExtractor fetches a page and strips it down to readable text.
type URLExtractor struct {
	client *http.Client
}

// NewURLExtractor creates an extractor with a sane default HTTP client.
func NewURLExtractor() *URLExtractor {
	return &URLExtractor{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// FromURL fetches rawURL and returns its readable text: the page title
// followed by body text with scripts, styles, and navigation removed.
func (e *URLExtractor) FromURL(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("extract: invalid URL %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("extract: unsupported URL scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("extract: create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("extract: fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extract: fetch %s: status %d", rawURL, resp.StatusCode)
	}

	return FromHTML(io.LimitReader(resp.Body, maxBodyBytes))
}

// FromHTML extracts readable text from an HTML document.
func FromHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("extract: parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, iframe, nav, header, footer, aside").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())

	var lines []string
	if title != "" {
		lines = append(lines, title)
	}
	body := doc.Find("body").Text()
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(whitespaceRun.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}

	text := strings.Join(lines, "\n")
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}
