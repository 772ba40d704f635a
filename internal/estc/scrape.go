// Package estc looks up bibliographic metadata on the public English Short
// Title Catalogue site. The site serves static HTML only, so records are
// scraped: the landing page for a citation number links to a detail view
// whose "format 002" rendering lays fields out as labelled table cells.
package estc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html"

	"github.com/printprobability/ingest-book/internal/cache"
	"github.com/printprobability/ingest-book/internal/ratelimit"
)

// Record holds the fields scraped from one catalogue entry.
type Record struct {
	Number             string `json:"number"`
	Title              string `json:"title"`
	Author             string `json:"author"`
	PublisherInfo      string `json:"publisher_info"`
	Description        string `json:"description"`
	Locations          string `json:"locations"`
	GeneralNotes       string `json:"general_notes"`
	CitationNotes      string `json:"citation_notes"`
	ElectronicLocation string `json:"electronic_location"`
}

// fieldLabels maps Record fields to the <td> labels of the format-002 view.
var fieldLabels = []struct {
	label  string
	assign func(*Record, string)
}{
	{"ESTC Citation No.", func(r *Record, v string) { r.Number = v }},
	{"Main Title", func(r *Record, v string) { r.Title = v }},
	{"ME-Personal Name", func(r *Record, v string) { r.Author = v }},
	{"Imprint", func(r *Record, v string) { r.PublisherInfo = v }},
	{"Phys.Description", func(r *Record, v string) { r.Description = v }},
	{"Location", func(r *Record, v string) { r.Locations = v }},
	{"General Note", func(r *Record, v string) { r.GeneralNotes = v }},
	{"Citation/Ref. Note", func(r *Record, v string) { r.CitationNotes = v }},
	{"Electronic Location", func(r *Record, v string) { r.ElectronicLocation = v }},
}

// Client scrapes the catalogue site.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewClient creates a scraper for the catalogue at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		limiter:    ratelimit.New("estc", 1),
	}
}

// LookupCached resolves a citation number, serving repeated lookups from
// the response cache.
func (c *Client) LookupCached(ctx context.Context, estcNumber string) (*Record, error) {
	record, _, err := cache.GetOrFetch(cache.ESTCCacheTable, estcNumber, func() (*Record, error) {
		return c.Lookup(ctx, estcNumber)
	})
	return record, err
}

// Lookup resolves a citation number to its scraped record.
func (c *Client) Lookup(ctx context.Context, estcNumber string) (*Record, error) {
	detailURL, err := c.detailURL(ctx, estcNumber)
	if err != nil {
		return nil, err
	}

	doc, err := c.fetchHTML(ctx, detailURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalogue detail page for %s: %w", estcNumber, err)
	}

	record := &Record{}
	for _, field := range fieldLabels {
		field.assign(record, labelledValues(doc, field.label))
	}

	if record.Number != estcNumber {
		return nil, fmt.Errorf("catalogue returned citation %q for requested number %q", record.Number, estcNumber)
	}
	return record, nil
}

// detailURL fetches the landing page and rewrites its set_entry link to the
// format-002 field view.
func (c *Client) detailURL(ctx context.Context, estcNumber string) (string, error) {
	doc, err := c.fetchHTML(ctx, fmt.Sprintf("%s/%s", c.baseURL, estcNumber))
	if err != nil {
		return "", fmt.Errorf("failed to fetch catalogue page for %s: %w", estcNumber, err)
	}

	href := findEntryLink(doc)
	if href == "" {
		return "", fmt.Errorf("no catalogue entry link found for %s", estcNumber)
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("bad catalogue entry link for %s: %w", estcNumber, err)
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	resolved := base.ResolveReference(parsed)

	query := resolved.Query()
	query.Set("format", "002")
	resolved.RawQuery = query.Encode()
	return resolved.String(), nil
}

// fetchHTML gets a page and parses it, retrying transient failures with
// exponential backoff. The catalogue site drops connections routinely.
func (c *Client) fetchHTML(ctx context.Context, pageURL string) (*html.Node, error) {
	var doc *html.Node

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("catalogue returned %s for %s", resp.Status, pageURL)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		doc, err = html.Parse(resp.Body)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return doc, nil
}

// findEntryLink returns the href of the first anchor pointing at a
// set_entry view.
func findEntryLink(n *html.Node) string {
	var result string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if result != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attr(n, "href"); strings.Contains(href, "set_entry") {
				result = href
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return result
}

// labelledValues collects the text of every <td> that directly follows a
// <td> whose text equals label, joined the way multi-valued catalogue
// fields are flattened.
func labelledValues(doc *html.Node, label string) string {
	var values []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "td" && text(n) == label {
			if sibling := nextElement(n, "td"); sibling != nil {
				value := strings.ReplaceAll(text(sibling), "\u00a0", " ")
				if value != "" && value != "nan" {
					values = append(values, value)
				} else {
					values = append(values, "")
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return strings.Join(values, "\t---\t")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func nextElement(n *html.Node, tag string) *html.Node {
	for sibling := n.NextSibling; sibling != nil; sibling = sibling.NextSibling {
		if sibling.Type == html.ElementNode && sibling.Data == tag {
			return sibling
		}
	}
	return nil
}
