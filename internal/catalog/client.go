package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Entry is one remote catalog record.
type Entry struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CollectionID string `json:"collection_id"`
	FileName     string `json:"file_name"`
	ContentHash  string `json:"content_hash"`
	DownloadRef  string `json:"download_ref"`
}

// Page is one page of a collection listing. Total may be zero when the
// remote side does not report an overall count.
type Page struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// ListOptions filters a collection listing.
type ListOptions struct {
	Page     int
	PageSize int
	Query    string
}

// Client defines the catalog operations the reconciliation core consumes.
type Client interface {
	ListCollection(ctx context.Context, collectionID string, opts ListOptions) (Page, error)
	GetEntry(ctx context.Context, id string) (*Entry, error)
}

// HTTPClient talks to the remote catalog API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a catalog client.
func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) (*HTTPClient, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("catalog base url required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ListCollection fetches one page of a collection listing.
func (c *HTTPClient) ListCollection(ctx context.Context, collectionID string, opts ListOptions) (Page, error) {
	collectionID = strings.TrimSpace(collectionID)
	if collectionID == "" {
		return Page{}, errors.New("collection id must not be empty")
	}

	endpoint, err := url.Parse(c.baseURL + "/collections/" + url.PathEscape(collectionID) + "/entries")
	if err != nil {
		return Page{}, fmt.Errorf("parse catalog url: %w", err)
	}
	params := url.Values{}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	if q := strings.TrimSpace(opts.Query); q != "" {
		params.Set("query", q)
	}
	endpoint.RawQuery = params.Encode()

	var page Page
	if err := c.getJSON(ctx, endpoint.String(), &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// GetEntry fetches a single catalog entry by id. Returns nil when the remote
// side reports 404.
func (c *HTTPClient) GetEntry(ctx context.Context, id string) (*Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("entry id must not be empty")
	}

	var entry Entry
	err := c.getJSON(ctx, c.baseURL+"/entries/"+url.PathEscape(id), &entry)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Download opens the content stream behind a download reference. The caller
// owns the returned body.
func (c *HTTPClient) Download(ctx context.Context, ref string) (io.ReadCloser, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("download ref must not be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/download/"+url.PathEscape(ref), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("catalog download: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

var errNotFound = errors.New("catalog entry not found")

func (c *HTTPClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return errNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("catalog request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// FetchAllEntries pages through an entire collection. It stops when a page
// comes back short or empty, or when the reported total has been reached.
func FetchAllEntries(ctx context.Context, client Client, collectionID string, pageSize int) ([]Entry, error) {
	if pageSize <= 0 {
		pageSize = 50
	}

	var all []Entry
	for page := 1; ; page++ {
		result, err := client.ListCollection(ctx, collectionID, ListOptions{Page: page, PageSize: pageSize})
		if err != nil {
			return nil, fmt.Errorf("list collection page %d: %w", page, err)
		}
		all = append(all, result.Entries...)

		if len(result.Entries) < pageSize {
			return all, nil
		}
		if result.Total > 0 && len(all) >= result.Total {
			return all, nil
		}
	}
}
