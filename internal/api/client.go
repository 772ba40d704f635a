package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/printprobability/ingest-book/internal/config"
	"github.com/printprobability/ingest-book/internal/errors"
	"github.com/printprobability/ingest-book/internal/ratelimit"
)

// Client talks to the print & probability REST backend. All calls carry the
// bearer token and are throttled through a shared rate limiter.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		limiter:    ratelimit.New("printprobdb", 10),
	}
}

// NewClientFromConfig builds a client from the global configuration,
// loading the bearer token and the CA bundle it names.
func NewClientFromConfig() (*Client, error) {
	token, err := LoadToken(config.TokenFile)
	if err != nil {
		return nil, err
	}
	httpClient, err := NewHTTPClient(config.CertFile)
	if err != nil {
		return nil, err
	}
	return NewClient(config.APIBaseURL, token, httpClient), nil
}

// LoadToken reads the API bearer token from a file, trimming surrounding
// whitespace.
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read API token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("API token file %s is empty", path)
	}
	return token, nil
}

// NewHTTPClient builds an HTTP client that verifies the backend's TLS
// certificate against the CA bundle at certFile. An empty certFile falls
// back to the system trust store.
func NewHTTPClient(certFile string) (*http.Client, error) {
	client := &http.Client{Timeout: 60 * time.Second}
	if certFile == "" {
		return client, nil
	}

	pem, err := os.ReadFile(certFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates parsed from CA bundle %s", certFile)
	}

	client.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: pool},
	}
	return client, nil
}

// listResponse is the backend's paginated list envelope.
type listResponse[T any] struct {
	Results []T `json:"results"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("%s %s returned %s: %s", method, path, resp.Status, truncate(data, 300))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

func truncate(data []byte, max int) string {
	s := string(data)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// GetBook fetches one book by UUID. A 404 becomes a NotFoundError.
func (c *Client) GetBook(ctx context.Context, id string) (*Book, error) {
	var book Book
	status, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/books/%s/", id), nil, nil, &book)
	if status == http.StatusNotFound {
		return nil, errors.NewNotFoundError("book", id)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooksByESTC returns all books matching an ESTC number.
func (c *Client) ListBooksByESTC(ctx context.Context, estc string) ([]Book, error) {
	return c.listBooks(ctx, url.Values{"estc": {estc}})
}

// ListBooksByVID returns all books matching an EEBO VID.
func (c *Client) ListBooksByVID(ctx context.Context, vid string) ([]Book, error) {
	return c.listBooks(ctx, url.Values{"vid": {vid}})
}

func (c *Client) listBooks(ctx context.Context, query url.Values) ([]Book, error) {
	var resp listResponse[Book]
	if _, err := c.do(ctx, http.MethodGet, "/books/", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// CreateBook creates a book and returns the backend's record, including the
// freshly issued UUID.
func (c *Client) CreateBook(ctx context.Context, book *Book) (*Book, error) {
	var created Book
	if _, err := c.do(ctx, http.MethodPost, "/books/", nil, book, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("backend created book without an id for ESTC %s", book.ESTC)
	}
	return &created, nil
}

// CreateCharacterRun opens a new character run scoped to a book. The
// backend issues the run identifier.
func (c *Client) CreateCharacterRun(ctx context.Context, bookID string) (*Run, error) {
	var run Run
	payload := map[string]string{"book": bookID}
	if _, err := c.do(ctx, http.MethodPost, "/runs/characters/", nil, payload, &run); err != nil {
		return nil, err
	}
	if run.ID == "" {
		return nil, fmt.Errorf("backend created character run without an id for book %s", bookID)
	}
	return &run, nil
}

// GetCharacterRun recovers the run an already-persisted character belongs
// to. A 404 becomes a RunNotFoundError.
func (c *Client) GetCharacterRun(ctx context.Context, characterID string) (*Run, error) {
	var run Run
	status, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/runs/characters/%s", characterID), nil, nil, &run)
	if status == http.StatusNotFound {
		return nil, errors.NewRunNotFoundError(characterID, "")
	}
	if err != nil {
		return nil, err
	}
	if run.ID == "" {
		return nil, errors.NewRunNotFoundError(characterID, "backend returned a run without an id")
	}
	return &run, nil
}

// ListCharacterClasses returns the currently registered character classes.
func (c *Client) ListCharacterClasses(ctx context.Context) ([]CharacterClass, error) {
	var resp listResponse[CharacterClass]
	query := url.Values{"limit": {"500"}}
	if _, err := c.do(ctx, http.MethodGet, "/character_classes/", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// CreateCharacterClass registers a new character class, using the code as
// both classname and label.
func (c *Client) CreateCharacterClass(ctx context.Context, code string) (*CharacterClass, error) {
	var created CharacterClass
	payload := CharacterClass{Classname: code, Label: code}
	if _, err := c.do(ctx, http.MethodPost, "/character_classes/", nil, payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// BulkPages transfers a whole page batch for a book, creating or updating
// depending on update.
func (c *Client) BulkPages(ctx context.Context, bookID string, pages []PageRecord, tifRoot string, update bool) (json.RawMessage, error) {
	path := fmt.Sprintf("/books/%s/bulk_pages/", bookID)
	if update {
		path = fmt.Sprintf("/books/%s/bulk_pages_update/", bookID)
	}
	payload := map[string]any{"pages": pages, "tif_root": tifRoot}
	var ack json.RawMessage
	if _, err := c.do(ctx, http.MethodPost, path, nil, payload, &ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// BulkLines transfers a whole line batch for a book.
func (c *Client) BulkLines(ctx context.Context, bookID string, lines []LineRecord, update bool) (json.RawMessage, error) {
	path := fmt.Sprintf("/books/%s/bulk_lines/", bookID)
	if update {
		path = fmt.Sprintf("/books/%s/bulk_lines_update/", bookID)
	}
	payload := map[string]any{"lines": lines}
	var ack json.RawMessage
	if _, err := c.do(ctx, http.MethodPost, path, nil, payload, &ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// BulkCharacters transfers one character chunk for a book, tagged with the
// run it belongs to.
func (c *Client) BulkCharacters(ctx context.Context, bookID string, characters []CharacterRecord, runID string, update bool) (json.RawMessage, error) {
	path := fmt.Sprintf("/books/%s/bulk_characters/", bookID)
	if update {
		path = fmt.Sprintf("/books/%s/bulk_characters_update/", bookID)
	}
	payload := map[string]any{"characters": characters, "character_run_id": runID}
	var ack json.RawMessage
	if _, err := c.do(ctx, http.MethodPost, path, nil, payload, &ack); err != nil {
		return nil, err
	}
	return ack, nil
}
