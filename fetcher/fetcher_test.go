package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestFetcher() *Fetcher {
	return New("", 10*time.Second)
}

func TestFetchTruncation(t *testing.T) {
	page := "<html><head><title>Big Page</title></head><body>" +
		strings.Repeat("x", 150_000) + "</body></html>"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	res, err := newTestFetcher().Fetch(context.Background(), srv.URL, BudgetDefault)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if !res.Diagnostics.WasTruncated {
		t.Error("WasTruncated = false, want true")
	}
	if res.Diagnostics.SizeChars != len(page) {
		t.Errorf("SizeChars = %d, want %d", res.Diagnostics.SizeChars, len(page))
	}
	marker := fmt.Sprintf("[HTML truncated - original length: %d characters]", len(page))
	if !strings.HasSuffix(res.Body, marker) {
		t.Errorf("Body missing truncation marker %q", marker)
	}
	if len(res.Body) > BudgetDefault+len(marker)+2 {
		t.Errorf("Body length = %d, exceeds budget plus marker", len(res.Body))
	}
	if res.Diagnostics.Title != "Big Page" {
		t.Errorf("Title = %q, want %q", res.Diagnostics.Title, "Big Page")
	}
}

func TestFetchSmallBodyUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>small</body></html>")
	}))
	defer srv.Close()

	res, err := newTestFetcher().Fetch(context.Background(), srv.URL, BudgetDefault)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Diagnostics.WasTruncated {
		t.Error("WasTruncated = true for small body")
	}
	if res.Body != "<html><body>small</body></html>" {
		t.Errorf("Body = %q", res.Body)
	}
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	if _, err := newTestFetcher().Fetch(context.Background(), srv.URL, 0); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(gotUA, "Chrome/") {
		t.Errorf("User-Agent = %q, want Chrome UA", gotUA)
	}
	if !strings.Contains(gotAccept, "text/html") {
		t.Errorf("Accept = %q, want text/html", gotAccept)
	}
}

func TestFetchNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	res, err := newTestFetcher().Fetch(context.Background(), srv.URL, 0)
	if err == nil {
		t.Fatal("Fetch() error = nil, want HTTP 404 error")
	}
	if res.Diagnostics.HTTPStatus != http.StatusNotFound {
		t.Errorf("HTTPStatus = %d, want 404", res.Diagnostics.HTTPStatus)
	}
}

func TestFetchToolResultNeverFails(t *testing.T) {
	t.Run("http error becomes body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusForbidden)
		}))
		defer srv.Close()

		res := newTestFetcher().FetchToolResult(context.Background(), srv.URL, 0)
		if !strings.HasPrefix(res.Body, "Error fetching URL:") {
			t.Errorf("Body = %q, want error prefix", res.Body)
		}
	})

	t.Run("network error becomes body", func(t *testing.T) {
		res := newTestFetcher().FetchToolResult(context.Background(), "http://127.0.0.1:1/x", 0)
		if !strings.HasPrefix(res.Body, "Error fetching URL:") {
			t.Errorf("Body = %q, want error prefix", res.Body)
		}
		if res.Diagnostics.Err == "" {
			t.Error("Diagnostics.Err empty, want error recorded")
		}
	})
}

func TestFetchPreview(t *testing.T) {
	body := "<html><body>" + strings.Repeat("a", 1000) + "</body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	res, err := newTestFetcher().Fetch(context.Background(), srv.URL, 0)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(res.Diagnostics.Preview) != 500 {
		t.Errorf("Preview length = %d, want 500", len(res.Diagnostics.Preview))
	}
	if res.Diagnostics.Preview != body[:500] {
		t.Error("Preview is not the first 500 chars of the body")
	}
}
