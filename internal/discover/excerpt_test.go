package discover

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func articlePage(body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Test article</title></head>
<body>
<article>
%s
</article>
</body>
</html>`, body)
}

func longParagraphs() string {
	p := "<p>The narwhal is a medium-sized toothed whale that lives year-round in Arctic waters. " +
		"Males grow a single long spiral tusk, which is in fact an elongated canine tooth. " +
		"The species travels in pods and surfaces through cracks in the sea ice to breathe.</p>"
	return strings.Repeat(p, 3)
}

func TestFetchExcerpt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage(longParagraphs()))
	}))
	defer server.Close()

	text := NewExcerptFetcher(0).Fetch(context.Background(), server.URL)
	if text == "" {
		t.Fatal("expected an excerpt")
	}
	if !strings.Contains(text, "narwhal") {
		t.Errorf("expected article text, got %q", text)
	}
	if strings.Contains(text, "<") {
		t.Errorf("expected plain text, got markup: %q", text)
	}
}

func TestFetchExcerptTruncates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage(strings.Repeat(longParagraphs(), 10)))
	}))
	defer server.Close()

	text := NewExcerptFetcher(0).Fetch(context.Background(), server.URL)
	if len(text) > maxExcerptChars+3 {
		t.Errorf("expected excerpt capped near %d chars, got %d", maxExcerptChars, len(text))
	}
	if !strings.HasSuffix(text, "...") {
		t.Error("expected ellipsis on a truncated excerpt")
	}
}

func TestFetchExcerptHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer server.Close()

	if text := NewExcerptFetcher(0).Fetch(context.Background(), server.URL); text != "" {
		t.Errorf("expected empty excerpt on 404, got %q", text)
	}
}

func TestFetchExcerptEmptyURL(t *testing.T) {
	if text := NewExcerptFetcher(0).Fetch(context.Background(), ""); text != "" {
		t.Errorf("expected empty excerpt for empty URL, got %q", text)
	}
}

func TestFetchExcerptTooShort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage("<p>Tiny.</p>"))
	}))
	defer server.Close()

	if text := NewExcerptFetcher(0).Fetch(context.Background(), server.URL); text != "" {
		t.Errorf("expected empty excerpt for trivial pages, got %q", text)
	}
}
