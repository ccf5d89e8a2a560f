package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/llmtoolhub/toolhub-mcp-go/logger"
	"github.com/llmtoolhub/toolhub-mcp-go/runner"
	"github.com/llmtoolhub/toolhub-mcp-go/tools/types"
)

// UnpaywallTool looks up open access status and locations for a paper
// by DOI, and can fetch the full text from the best available open
// access location.
type UnpaywallTool struct {
	baseURL  string
	client   *http.Client
	email    string
	maxChars int
	schema   *types.Schema
}

// NewUnpaywallTool creates an Unpaywall lookup tool.
func NewUnpaywallTool(opts Options) *UnpaywallTool {
	opts.normalize()

	schema := types.NewSchema().
		Add("doi", types.Param{
			Type: types.TypeString,
			Description: "Digital Object Identifier (DOI) of the paper to search for. " +
				"Examples: '10.1038/nature12373', '10.1016/j.cell.2013.02.022'.",
			Required: true,
		}).
		Add("email", types.Param{
			Type: types.TypeString,
			Description: "Email address for API calls (required by Unpaywall for rate limiting and contact). " +
				"Defaults to the configured contact address if not provided.",
		}).
		Add("get_fulltext", types.Param{
			Type: types.TypeBoolean,
			Description: "If true, attempts to retrieve the full text of the paper from the best " +
				"open access location. Defaults to false.",
			Default: false,
		})

	return &UnpaywallTool{
		baseURL:  opts.UnpaywallURL,
		client:   opts.Client,
		email:    opts.Email,
		maxChars: opts.MaxFulltextChars,
		schema:   schema,
	}
}

func (t *UnpaywallTool) Name() string { return "search_unpaywall" }

func (t *UnpaywallTool) Description() string {
	return "Search for open access information using the Unpaywall API and optionally retrieve full text. " +
		"Takes a DOI (Digital Object Identifier) and returns open access status, " +
		"available copies, and access links. " +
		"If get_fulltext=true, attempts to retrieve the full paper text from the open access location."
}

func (t *UnpaywallTool) Schema() *types.Schema { return t.schema }

type unpaywallResponse struct {
	Title          string       `json:"title"`
	DOI            string       `json:"doi"`
	JournalName    string       `json:"journal_name"`
	Year           int          `json:"year"`
	IsOA           bool         `json:"is_oa"`
	OAStatus       string       `json:"oa_status"`
	JournalIsOA    bool         `json:"journal_is_oa"`
	PublishedDate  string       `json:"published_date"`
	BestOALocation *oaLocation  `json:"best_oa_location"`
	OALocations    []oaLocation `json:"oa_locations"`
	ZAuthors       []struct {
		RawAuthorName string `json:"raw_author_name"`
	} `json:"z_authors"`
}

type oaLocation struct {
	URL      string `json:"url"`
	HostType string `json:"host_type"`
	Version  string `json:"version"`
	License  string `json:"license"`
}

func (t *UnpaywallTool) Invoke(ctx context.Context, args map[string]any) (*runner.Result, error) {
	doi, _ := args["doi"].(string)
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return toolFailure("DOI is required"), nil
	}

	email, _ := args["email"].(string)
	if email == "" {
		email = t.email
	}
	if email == "" {
		return toolFailure("an email address is required by the Unpaywall API; " +
			"pass the 'email' argument or configure a contact address"), nil
	}

	getFulltext, _ := args["get_fulltext"].(bool)

	// DOIs contain path separators that belong in the request path.
	endpoint := fmt.Sprintf("%s/%s?email=%s", t.baseURL, doi, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return toolFailure(fmt.Sprintf("could not build Unpaywall request: %v", err)), nil
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return toolFailure(fmt.Sprintf("could not reach Unpaywall API: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return runner.Success(fmt.Sprintf("Paper with DOI %q not found in Unpaywall database", doi)), nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return toolFailure(fmt.Sprintf(
			"Unpaywall API returned status code %d. Message: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))), nil
	}

	var parsed unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return toolFailure(fmt.Sprintf("could not decode Unpaywall response: %v", err)), nil
	}

	text := formatUnpaywall(parsed)
	if getFulltext {
		fulltext := t.fetchFulltext(ctx, parsed)
		if fulltext != "" {
			text += "\n\n" + resultDivider + "\nFULL TEXT\n" + resultDivider + "\n" + fulltext
		} else {
			text += "\n\nNOTE: Full text could not be retrieved from available OA locations."
		}
	}
	return runner.Success(text), nil
}

// fetchFulltext tries the best OA location first, then the remaining
// locations, and returns the first text body retrieved.
func (t *UnpaywallTool) fetchFulltext(ctx context.Context, data unpaywallResponse) string {
	var locations []string
	if data.BestOALocation != nil && data.BestOALocation.URL != "" {
		locations = append(locations, data.BestOALocation.URL)
	}
	for _, loc := range data.OALocations {
		if loc.URL != "" && (len(locations) == 0 || loc.URL != locations[0]) {
			locations = append(locations, loc.URL)
		}
	}

	for _, location := range locations {
		text, err := t.fetchText(ctx, location)
		if err != nil {
			logger.Debug("Full text fetch failed", "url", location, "error", err)
			continue
		}
		if text == "" {
			continue
		}
		if runes := []rune(text); len(runes) > t.maxChars {
			text = string(runes[:t.maxChars]) +
				fmt.Sprintf("\n\n[... text truncated at %d characters ...]", t.maxChars)
		}
		return text
	}
	return ""
}

// fetchText retrieves a text document from one OA location. Non-text
// content (PDF and other binary formats) is skipped; extracting those
// needs a dedicated parser.
func (t *UnpaywallTool) fetchText(ctx context.Context, location string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status code %d", resp.StatusCode)
	}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text/plain") && !strings.Contains(contentType, "text/html") {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(t.maxChars)*4))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func formatUnpaywall(data unpaywallResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\nUNPAYWALL OPEN ACCESS INFORMATION\n%s\n", resultDivider, resultDivider)
	fmt.Fprintf(&b, "\nTitle: %s\n", orNA(data.Title))
	fmt.Fprintf(&b, "DOI: %s\n", orNA(data.DOI))
	if data.JournalName != "" {
		fmt.Fprintf(&b, "Journal: %s\n", data.JournalName)
	}
	if data.Year != 0 {
		fmt.Fprintf(&b, "Year: %d\n", data.Year)
	}

	fmt.Fprintf(&b, "\n%s\nOPEN ACCESS STATUS\n%s\n", sectionDivider, sectionDivider)
	fmt.Fprintf(&b, "Is Open Access: %t\n", data.IsOA)
	if data.OAStatus != "" {
		fmt.Fprintf(&b, "OA Status: %s\n", data.OAStatus)
	}
	if data.JournalIsOA {
		fmt.Fprintf(&b, "Journal is fully open access: Yes\n")
	}

	if data.BestOALocation != nil {
		fmt.Fprintf(&b, "\n%s\nBEST OPEN ACCESS LOCATION\n%s\n", sectionDivider, sectionDivider)
		writeLocation(&b, "", *data.BestOALocation)
	}
	if len(data.OALocations) > 0 {
		fmt.Fprintf(&b, "\n%s\nALL OPEN ACCESS LOCATIONS\n%s\n", sectionDivider, sectionDivider)
		for i, loc := range data.OALocations {
			fmt.Fprintf(&b, "\nLocation %d:\n", i+1)
			writeLocation(&b, "  ", loc)
		}
	}

	if data.PublishedDate != "" || len(data.ZAuthors) > 0 {
		fmt.Fprintf(&b, "\n%s\nADDITIONAL INFORMATION\n%s\n", sectionDivider, sectionDivider)
		if data.PublishedDate != "" {
			fmt.Fprintf(&b, "Published Date: %s\n", data.PublishedDate)
		}
		names := make([]string, 0, len(data.ZAuthors))
		for _, a := range data.ZAuthors {
			if a.RawAuthorName != "" {
				names = append(names, a.RawAuthorName)
			}
		}
		if len(names) > 0 {
			authors := strings.Join(names, ", ")
			if len(names) > 5 {
				authors = fmt.Sprintf("%s, ... and %d more", strings.Join(names[:5], ", "), len(names)-5)
			}
			fmt.Fprintf(&b, "Authors: %s\n", authors)
		}
	}

	b.WriteString("\n" + resultDivider)
	return b.String()
}

func writeLocation(b *strings.Builder, indent string, loc oaLocation) {
	if loc.URL != "" {
		fmt.Fprintf(b, "%sURL: %s\n", indent, loc.URL)
	}
	if loc.HostType != "" {
		fmt.Fprintf(b, "%sHost Type: %s\n", indent, loc.HostType)
	}
	if loc.Version != "" {
		fmt.Fprintf(b, "%sVersion: %s\n", indent, loc.Version)
	}
	if loc.License != "" {
		fmt.Fprintf(b, "%sLicense: %s\n", indent, loc.License)
	}
}
