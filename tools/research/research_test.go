package research

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPaperSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/paper/search" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "transformer networks" {
			t.Errorf("Unexpected query: %q", got)
		}
		fmt.Fprint(w, `{
			"total": 2,
			"data": [
				{
					"paperId": "abc123",
					"externalIds": {"ArXiv": "1706.03762", "DOI": "10.1000/xyz", "CorpusId": 13756489},
					"title": "Attention Is All You Need",
					"abstract": "The dominant sequence transduction models...",
					"authors": [{"name": "A. Vaswani"}, {"name": "N. Shazeer"}],
					"year": 2017,
					"publicationDate": "2017-06-12",
					"citationCount": 90000,
					"venue": "NeurIPS"
				},
				{
					"paperId": "def456",
					"title": "Another Paper",
					"authors": [],
					"year": 2020,
					"citationCount": 3
				}
			]
		}`)
	}))
	defer server.Close()

	tool := NewPaperSearchTool(Options{SemanticScholarURL: server.URL, Client: server.Client()})
	result, err := tool.Invoke(context.Background(), map[string]any{"query": "transformer networks"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("Expected success, got %s: %s", result.Status, result.Stderr)
	}

	for _, want := range []string{
		"Title: Attention Is All You Need",
		"Authors: A. Vaswani, N. Shazeer",
		"Published: 2017-06-12 (Year: 2017)",
		"Citation Count: 90000",
		"arXiv ID: 1706.03762",
		"DOI: 10.1000/xyz",
		"Title: Another Paper",
		"Authors: N/A",
	} {
		if !strings.Contains(result.Stdout, want) {
			t.Errorf("Expected %q in output:\n%s", want, result.Stdout)
		}
	}
}

func TestPaperSearchHonorsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total":3,"data":[
			{"paperId":"1","title":"First","year":2020},
			{"paperId":"2","title":"Second","year":2021},
			{"paperId":"3","title":"Third","year":2022}
		]}`)
	}))
	defer server.Close()

	tool := NewPaperSearchTool(Options{SemanticScholarURL: server.URL, Client: server.Client()})
	result, err := tool.Invoke(context.Background(), map[string]any{
		"query": "anything",
		"limit": float64(2),
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(result.Stdout, "Title: Second") {
		t.Errorf("Expected second result included:\n%s", result.Stdout)
	}
	if strings.Contains(result.Stdout, "Title: Third") {
		t.Errorf("Expected third result cut by limit:\n%s", result.Stdout)
	}
}

func TestPaperSearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total":0,"data":[]}`)
	}))
	defer server.Close()

	tool := NewPaperSearchTool(Options{SemanticScholarURL: server.URL, Client: server.Client()})
	result, err := tool.Invoke(context.Background(), map[string]any{"query": "nothing matches"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("Expected success, got %s", result.Status)
	}
	if !strings.Contains(result.Stdout, "No papers found") {
		t.Errorf("Expected no-results message, got %q", result.Stdout)
	}
}

func TestPaperSearchAPIFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	tool := NewPaperSearchTool(Options{SemanticScholarURL: server.URL, Client: server.Client()})
	result, err := tool.Invoke(context.Background(), map[string]any{"query": "anything"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("Expected failure for non-200 status")
	}
	if !strings.Contains(result.Stderr, "status code 429") {
		t.Errorf("Expected status code in message, got %q", result.Stderr)
	}
}

func TestPaperSearchEmptyQuery(t *testing.T) {
	tool := NewPaperSearchTool(Options{})
	result, err := tool.Invoke(context.Background(), map[string]any{"query": "  "})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("Expected failure for empty query")
	}
}

func TestUnpaywallLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/10.1038/nature12373" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("email"); got != "lab@example.org" {
			t.Errorf("Unexpected email: %q", got)
		}
		fmt.Fprint(w, `{
			"title": "Nanometre-scale thermometry in a living cell",
			"doi": "10.1038/nature12373",
			"journal_name": "Nature",
			"year": 2013,
			"is_oa": true,
			"oa_status": "green",
			"published_date": "2013-07-31",
			"best_oa_location": {
				"url": "https://example.org/paper.html",
				"host_type": "repository",
				"version": "acceptedVersion",
				"license": "cc-by"
			},
			"oa_locations": [
				{"url": "https://example.org/paper.html", "host_type": "repository"}
			],
			"z_authors": [{"raw_author_name": "G. Kucsko"}]
		}`)
	}))
	defer server.Close()

	tool := NewUnpaywallTool(Options{UnpaywallURL: server.URL, Client: server.Client(), Email: "lab@example.org"})
	result, err := tool.Invoke(context.Background(), map[string]any{"doi": "10.1038/nature12373"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("Expected success, got %s: %s", result.Status, result.Stderr)
	}

	for _, want := range []string{
		"UNPAYWALL OPEN ACCESS INFORMATION",
		"Title: Nanometre-scale thermometry in a living cell",
		"Is Open Access: true",
		"OA Status: green",
		"BEST OPEN ACCESS LOCATION",
		"URL: https://example.org/paper.html",
		"License: cc-by",
		"Authors: G. Kucsko",
	} {
		if !strings.Contains(result.Stdout, want) {
			t.Errorf("Expected %q in output:\n%s", want, result.Stdout)
		}
	}
}

func TestUnpaywallNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	tool := NewUnpaywallTool(Options{UnpaywallURL: server.URL, Client: server.Client(), Email: "lab@example.org"})
	result, err := tool.Invoke(context.Background(), map[string]any{"doi": "10.1/missing"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("Expected informational success for unknown DOI, got %s", result.Status)
	}
	if !strings.Contains(result.Stdout, "not found in Unpaywall database") {
		t.Errorf("Expected not-found message, got %q", result.Stdout)
	}
}

func TestUnpaywallRequiresEmail(t *testing.T) {
	tool := NewUnpaywallTool(Options{})
	result, err := tool.Invoke(context.Background(), map[string]any{"doi": "10.1038/nature12373"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("Expected failure without a contact email")
	}
	if !strings.Contains(result.Stderr, "email") {
		t.Errorf("Expected email requirement in message, got %q", result.Stderr)
	}
}

func TestUnpaywallFulltext(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/fulltext", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "The full body of the paper.")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"title": "A Paper",
			"doi": "10.1/abc",
			"is_oa": true,
			"best_oa_location": {"url": "%s/fulltext", "host_type": "repository"}
		}`, server.URL)
	})

	tool := NewUnpaywallTool(Options{UnpaywallURL: server.URL, Client: server.Client(), Email: "lab@example.org"})
	result, err := tool.Invoke(context.Background(), map[string]any{
		"doi":          "10.1/abc",
		"get_fulltext": true,
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("Expected success, got %s: %s", result.Status, result.Stderr)
	}
	if !strings.Contains(result.Stdout, "FULL TEXT") {
		t.Errorf("Expected full text section:\n%s", result.Stdout)
	}
	if !strings.Contains(result.Stdout, "The full body of the paper.") {
		t.Errorf("Expected fetched text:\n%s", result.Stdout)
	}
}

func TestUnpaywallFulltextUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title": "A Paper", "doi": "10.1/abc", "is_oa": false}`)
	}))
	defer server.Close()

	tool := NewUnpaywallTool(Options{UnpaywallURL: server.URL, Client: server.Client(), Email: "lab@example.org"})
	result, err := tool.Invoke(context.Background(), map[string]any{
		"doi":          "10.1/abc",
		"get_fulltext": true,
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(result.Stdout, "Full text could not be retrieved") {
		t.Errorf("Expected unavailable note:\n%s", result.Stdout)
	}
}

func TestUnpaywallFulltextTruncation(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/fulltext", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, strings.Repeat("x", 200))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"title":"A Paper","doi":"10.1/abc","is_oa":true,
			"best_oa_location":{"url":"%s/fulltext"}}`, server.URL)
	})

	tool := NewUnpaywallTool(Options{
		UnpaywallURL:     server.URL,
		Client:           server.Client(),
		Email:            "lab@example.org",
		MaxFulltextChars: 50,
	})
	result, err := tool.Invoke(context.Background(), map[string]any{
		"doi":          "10.1/abc",
		"get_fulltext": true,
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(result.Stdout, "[... text truncated at 50 characters ...]") {
		t.Errorf("Expected truncation marker:\n%s", result.Stdout)
	}
}
