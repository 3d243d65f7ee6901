package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromReaderPassesSmallContentThrough(t *testing.T) {
	text, err := FromReader(strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestFromReaderTruncatesOversizedContent(t *testing.T) {
	text, err := FromReader(strings.NewReader(strings.Repeat("a", MaxContentBytes+100)))
	require.NoError(t, err)
	assert.Equal(t, MaxContentBytes, len(text))
}

func TestFromReaderTruncatesOnRuneBoundary(t *testing.T) {
	// é is two bytes; an odd byte limit would split one in half
	input := strings.Repeat("é", MaxContentBytes)
	text, err := FromReader(strings.NewReader(input))
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(text))
	assert.LessOrEqual(t, len(text), MaxContentBytes)
}

func TestFromURLStripsHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><style>body {color: red}</style></head>
<body><h1>Title</h1><script>alert("x")</script><p>First paragraph.</p>

<p>Second   paragraph.</p></body></html>`))
	}))
	defer ts.Close()

	text, err := FromURL(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "First paragraph.")
	assert.Contains(t, text, "Second   paragraph.")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color: red")
}

func TestFromURLPlainText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("just some text"))
	}))
	defer ts.Close()

	text, err := FromURL(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "just some text", text)
}

func TestFromURLErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	_, err := FromURL(context.Background(), ts.URL)
	require.Error(t, err)
}
