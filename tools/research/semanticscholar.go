package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/llmtoolhub/toolhub-mcp-go/runner"
	"github.com/llmtoolhub/toolhub-mcp-go/tools/types"
)

const paperFields = "paperId,externalIds,title,abstract,authors,year,publicationDate,citationCount,venue"

// abstractLimit caps the summary carried per result.
const abstractLimit = 500

// PaperSearchTool searches for academic papers on Semantic Scholar and
// returns formatted metadata: title, authors, abstract, citation count,
// publication date, and external identifiers.
type PaperSearchTool struct {
	baseURL string
	client  *http.Client
	schema  *types.Schema
}

// NewPaperSearchTool creates a Semantic Scholar search tool.
func NewPaperSearchTool(opts Options) *PaperSearchTool {
	opts.normalize()

	schema := types.NewSchema().
		Add("query", types.Param{
			Type:        types.TypeString,
			Description: "The search query string (e.g., 'transformer neural networks', 'CRISPR gene therapy').",
			Required:    true,
		}).
		Add("limit", types.Param{
			Type:        types.TypeInteger,
			Description: "Maximum number of results to return. Defaults to 5.",
			Default:     5,
			Minimum:     types.Float(1),
			Maximum:     types.Float(50),
		})

	return &PaperSearchTool{
		baseURL: opts.SemanticScholarURL,
		client:  opts.Client,
		schema:  schema,
	}
}

func (t *PaperSearchTool) Name() string { return "search_semantic_scholar" }

func (t *PaperSearchTool) Description() string {
	return "Search for academic papers on Semantic Scholar using a query string. " +
		"Returns the top results with comprehensive metadata including paper title, authors, " +
		"abstract summary, citation count, publication date, and external identifiers (arXiv ID, DOI, etc.). " +
		"Use this tool to find relevant research papers across various fields including machine learning, " +
		"computer science, biology, physics, and more."
}

func (t *PaperSearchTool) Schema() *types.Schema { return t.schema }

type paperSearchResponse struct {
	Total int     `json:"total"`
	Data  []paper `json:"data"`
}

type paper struct {
	PaperID         string         `json:"paperId"`
	ExternalIDs     map[string]any `json:"externalIds"`
	Title           string         `json:"title"`
	Abstract        string         `json:"abstract"`
	Authors         []paperAuthor  `json:"authors"`
	Year            int            `json:"year"`
	PublicationDate string         `json:"publicationDate"`
	CitationCount   int            `json:"citationCount"`
	Venue           string         `json:"venue"`
}

type paperAuthor struct {
	Name string `json:"name"`
}

func (t *PaperSearchTool) Invoke(ctx context.Context, args map[string]any) (*runner.Result, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return toolFailure("search query cannot be empty"), nil
	}
	limit := intArg(args, "limit", 5)

	endpoint := fmt.Sprintf("%s/paper/search?query=%s&limit=%d&fields=%s",
		t.baseURL, url.QueryEscape(query), limit, paperFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return toolFailure(fmt.Sprintf("could not build Semantic Scholar request: %v", err)), nil
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return toolFailure(fmt.Sprintf("could not reach Semantic Scholar API: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return toolFailure(fmt.Sprintf(
			"Semantic Scholar API returned status code %d. Message: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))), nil
	}

	var parsed paperSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return toolFailure(fmt.Sprintf("could not decode Semantic Scholar response: %v", err)), nil
	}
	if len(parsed.Data) == 0 {
		return runner.Success(fmt.Sprintf("No papers found for query: %q", query)), nil
	}

	formatted := make([]string, 0, len(parsed.Data))
	for _, p := range parsed.Data {
		formatted = append(formatted, formatPaper(p))
		if len(formatted) >= limit {
			break
		}
	}

	return runner.Success(fmt.Sprintf("\n%s\n\n%s\n\n%s",
		resultDivider, strings.Join(formatted, "\n\n"+resultDivider+"\n\n"), resultDivider)), nil
}

func formatPaper(p paper) string {
	title := orNA(p.Title)
	venue := orNA(p.Venue)
	pubDate := p.PublicationDate
	if pubDate == "" {
		pubDate = fmt.Sprintf("%d", p.Year)
	}

	arxivID, doi := "N/A", "N/A"
	if p.ExternalIDs != nil {
		if v, ok := p.ExternalIDs["ArXiv"].(string); ok && v != "" {
			arxivID = v
		}
		if v, ok := p.ExternalIDs["DOI"].(string); ok && v != "" {
			doi = v
		}
	}

	abstract := orNA(p.Abstract)
	if runes := []rune(abstract); len(runes) > abstractLimit {
		abstract = string(runes[:abstractLimit]) + "..."
	}

	authors := "N/A"
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	if len(names) > 0 {
		if len(names) > 5 {
			authors = fmt.Sprintf("%s et al. (%d total)", strings.Join(names[:5], ", "), len(names))
		} else {
			authors = strings.Join(names, ", ")
		}
	}

	return fmt.Sprintf(
		"Title: %s\n"+
			"Authors: %s\n"+
			"Published: %s (Year: %d)\n"+
			"Venue: %s\n"+
			"Citation Count: %d\n"+
			"\n"+
			"Summary: %s\n"+
			"\n"+
			"Identifiers:\n"+
			"  - Semantic Scholar ID: %s\n"+
			"  - arXiv ID: %s\n"+
			"  - DOI: %s",
		title, authors, pubDate, p.Year, venue, p.CitationCount, abstract,
		orNA(p.PaperID), arxivID, doi)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
