// Package vectorstock runs keyword searches against the VectorStock search
// API and saves each run in the folder layout the reconciler reads.
package vectorstock

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/agentstation/utc"

	"github.com/agentstation/curator/internal/transport"
	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
)

// ServiceName identifies this API in errors and logs.
const ServiceName = "vectorstock"

// SearchErrorFile records a failed search next to its query files.
const SearchErrorFile = "search_error.json"

// Client is a VectorStock search client.
type Client struct {
	baseURL   string
	transport *transport.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the search endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTransport sets the HTTP transport.
func WithTransport(t *transport.Client) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// NewClient creates a new search client.
func NewClient(opts ...Option) *Client {
	c := &Client{baseURL: constants.DefaultSearchBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = transport.New()
	}
	return c
}

// URL returns the request URL for validated params.
func (c *Client) URL(p Params) string {
	return c.baseURL + "?" + p.Query().Encode()
}

// Search validates p and runs the query, returning the decoded response.
func (c *Client) Search(ctx context.Context, p Params) (map[string]any, error) {
	p, err := p.Validate()
	if err != nil {
		return nil, err
	}
	return c.search(ctx, p)
}

func (c *Client) search(ctx context.Context, p Params) (map[string]any, error) {
	resp, err := c.transport.Get(ctx, c.URL(p))
	if err != nil {
		if errors.IsCanceled(err) {
			return nil, err
		}
		return nil, errors.WrapAPI(ServiceName, 0, err)
	}

	var body map[string]any
	if err := transport.DecodeResponse(resp, ServiceName, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// queryFile is the saved request line.
type queryFile struct {
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Method    string `json:"method"`
}

// paramsFile is the saved parameter set.
type paramsFile struct {
	Timestamp  string `json:"timestamp"`
	Parameters Params `json:"parameters"`
}

// resultsFile is the saved response.
type resultsFile struct {
	Timestamp      string         `json:"timestamp"`
	Query          string         `json:"query"`
	ParametersUsed Params         `json:"parameters_used"`
	Results        map[string]any `json:"results"`
}

// errorFile is saved instead of resultsFile when the search fails.
type errorFile struct {
	Timestamp      string `json:"timestamp"`
	Query          string `json:"query"`
	ParametersUsed Params `json:"parameters_used"`
	Error          string `json:"error"`
}

// Saved describes one saved search.
type Saved struct {
	Dir       string
	Timestamp string
	URL       string
	Images    int
}

// SearchAndSave validates p, records the query and parameters in dir, runs
// the search and saves the response. A failed search leaves an error file
// in dir and returns the error.
func (c *Client) SearchAndSave(ctx context.Context, dir string, p Params) (*Saved, error) {
	p, err := p.Validate()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}

	logger := logging.FromContext(ctx).With().Str("dir", dir).Str("keywords", p.Keywords).Logger()
	ts := utc.Now().Time.Format(constants.TimeFormatFilename)
	saved := &Saved{Dir: dir, Timestamp: ts, URL: c.URL(p)}

	if err := writeJSON(filepath.Join(dir, constants.SearchQueryFile), queryFile{Timestamp: ts, URL: saved.URL, Method: "GET"}); err != nil {
		return nil, err
	}
	if err := writeJSON(filepath.Join(dir, constants.SearchParamsFile), paramsFile{Timestamp: ts, Parameters: p}); err != nil {
		return nil, err
	}

	results, err := c.search(ctx, p)
	if err != nil {
		logger.Error().Err(err).Msg("Search failed")
		if werr := writeJSON(filepath.Join(dir, SearchErrorFile), errorFile{
			Timestamp:      ts,
			Query:          p.Keywords,
			ParametersUsed: p,
			Error:          err.Error(),
		}); werr != nil {
			logger.Warn().Err(werr).Msg("Could not save search error")
		}
		return nil, err
	}

	if err := writeJSON(filepath.Join(dir, constants.SearchResultsFile), resultsFile{
		Timestamp:      ts,
		Query:          p.Keywords,
		ParametersUsed: p,
		Results:        results,
	}); err != nil {
		return nil, err
	}

	saved.Images = countImages(results)
	logger.Info().Int("images", saved.Images).Msg("Search saved")
	return saved, nil
}

func countImages(results map[string]any) int {
	images, ok := results["images"].([]any)
	if !ok {
		return 0
	}
	return len(images)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WrapResource("encode", "search file", path, err)
	}
	return errors.WrapIO("write", path, os.WriteFile(path, data, constants.FilePermissions))
}
