package ingest

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// MaxContentBytes caps the plain text handed to the gateway. Oversized
// inputs are truncated here, by the ingestion collaborator; the gateway only
// ever sees text within the limit.
const MaxContentBytes = 256 * 1024

var whitespaceRe = regexp.MustCompile(`[ \t]*\n[ \t\n]*`)

// FromReader reads plain text from r, truncating at MaxContentBytes on a
// rune boundary.
func FromReader(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxContentBytes+1))
	if err != nil {
		return "", errors.Wrap(err, "could not read content")
	}

	if len(data) > MaxContentBytes {
		log.Debug().Int("bytes", len(data)).Msg("truncating oversized content")
		data = truncateOnRuneBoundary(data, MaxContentBytes)
	}

	return string(data), nil
}

// FromURL fetches a page and strips it down to plain text: script and style
// elements removed, runs of whitespace collapsed.
func FromURL(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.Wrapf(err, "could not build request for %s", rawURL)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "could not fetch %s", rawURL)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("could not fetch %s: %s", rawURL, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "html") {
		return FromReader(resp.Body)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, MaxContentBytes*4))
	if err != nil {
		return "", errors.Wrapf(err, "could not parse %s", rawURL)
	}

	doc.Find("script, style, noscript").Remove()
	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, "\n"))

	return FromReader(strings.NewReader(text))
}

func truncateOnRuneBoundary(data []byte, max int) []byte {
	data = data[:max]
	for len(data) > 0 && !utf8.Valid(data) {
		data = data[:len(data)-1]
	}
	return data
}
