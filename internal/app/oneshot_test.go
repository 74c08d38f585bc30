package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/shelf/internal/books"
)

const jazzResponse = `{"items":[
	{"id":"j1","volumeInfo":{"title":"Jazz","authors":["Ted Gioia"],"publishedDate":"1997"}},
	{"id":"j2","volumeInfo":{"title":"Kind of Blue","averageRating":4.5}}
]}`

// newBooksServer answers volume searches from responses keyed by the raw q
// parameter and serves j1 as a single volume.
func newBooksServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/books/v1/volumes", func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimPrefix(r.URL.RawQuery, "q=")
		body, ok := responses[q]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/books/v1/volumes/j1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"j1","volumeInfo":{"title":"Jazz","authors":["Ted Gioia"],"pageCount":428,"description":"<p>The <b>history</b>.</p>"}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testOptions(t *testing.T, server *httptest.Server, extra string) (Options, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf("base_url = %q\nlog_file = %q\n%s", server.URL+"/books/v1/", filepath.Join(dir, "shelf.log"), extra)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var logs bytes.Buffer
	return Options{ConfigPath: path, LogWriter: &logs, LogLevel: "debug"}, &logs
}

func TestSearch_PrintsTable(t *testing.T) {
	server := newBooksServer(t, map[string]string{"miles+davis": jazzResponse})
	opts, logs := testOptions(t, server, "")

	var out bytes.Buffer
	if err := Search(context.Background(), opts, "miles davis", &out, false); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	for _, want := range []string{"j1", "Jazz", "Ted Gioia", "Kind of Blue", "Unknown author"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
	if !strings.Contains(logs.String(), "one-shot search finished") {
		t.Fatalf("logs missing search entry:\n%s", logs.String())
	}
}

func TestSearch_JSON(t *testing.T) {
	server := newBooksServer(t, map[string]string{"jazz+history": jazzResponse})
	opts, _ := testOptions(t, server, "")

	var out bytes.Buffer
	if err := Search(context.Background(), opts, "", &out, true); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	var got []books.Book
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(got) != 2 || got[0].ID != "j1" || got[1].Rating == nil || *got[1].Rating != 4.5 {
		t.Fatalf("decoded = %+v", got)
	}
}

func TestSearch_EmptyPolicies(t *testing.T) {
	server := newBooksServer(t, map[string]string{"nothing": `{"totalItems":0}`})

	opts, _ := testOptions(t, server, "")
	var out bytes.Buffer
	err := Search(context.Background(), opts, "nothing", &out, false)
	if err == nil || !strings.Contains(err.Error(), `no books found for "nothing"`) {
		t.Fatalf("Search error = %v, want no books found", err)
	}

	opts, _ = testOptions(t, server, "empty_results = \"empty\"\n")
	out.Reset()
	if err := Search(context.Background(), opts, "nothing", &out, false); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "No books found" {
		t.Fatalf("output = %q, want No books found", got)
	}
}

func TestSearch_NetworkFailure(t *testing.T) {
	server := newBooksServer(t, nil)
	opts, _ := testOptions(t, server, "")

	err := Search(context.Background(), opts, "anything", &bytes.Buffer{}, false)
	if !errors.Is(err, books.ErrNetwork) {
		t.Fatalf("Search error = %v, want ErrNetwork", err)
	}
}

func TestSearch_InvalidConfig(t *testing.T) {
	server := newBooksServer(t, nil)
	opts, _ := testOptions(t, server, "empty_results = \"sometimes\"\n")

	err := Search(context.Background(), opts, "anything", &bytes.Buffer{}, false)
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("Search error = %v, want load config failure", err)
	}
}

func TestShow(t *testing.T) {
	server := newBooksServer(t, nil)
	opts, _ := testOptions(t, server, "")

	var out bytes.Buffer
	if err := Show(context.Background(), opts, "j1", &out, false); err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	want := "Jazz\nBy: Ted Gioia\n428 pages\n\nThe history.\n"
	if out.String() != want {
		t.Fatalf("Show output = %q, want %q", out.String(), want)
	}

	err := Show(context.Background(), opts, "missing", &bytes.Buffer{}, false)
	if !errors.Is(err, books.ErrNotFound) {
		t.Fatalf("Show error = %v, want ErrNotFound", err)
	}

	if err := Show(context.Background(), opts, "  ", &bytes.Buffer{}, false); err == nil {
		t.Fatalf("Show with blank id returned nil error")
	}
}
