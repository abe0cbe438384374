package vectorstock

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/reconciler"
	"github.com/agentstation/curator/pkg/sources"
)

// Search is one named entry of a search list file.
type Search struct {
	Name string `json:"name,omitempty"`
	Params
}

// LoadSearches reads a JSON array of searches from path.
func LoadSearches(path string) ([]Search, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var searches []Search
	if err := json.Unmarshal(data, &searches); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return searches, nil
}

// Outcome is the result of one search in a batch run.
type Outcome struct {
	Name  string
	Dir   string
	Saved *Saved
	Err   error
}

// RunBatch runs searches in order, saving search i (1-based) under
// <outputDir>/<prefix>i. A failed search is recorded in its Outcome and
// the run continues; only cancellation stops it early.
func (c *Client) RunBatch(ctx context.Context, outputDir string, searches []Search) ([]Outcome, error) {
	logger := logging.FromContext(ctx)
	outcomes := make([]Outcome, 0, len(searches))

	for i, s := range searches {
		if err := ctx.Err(); err != nil {
			return outcomes, errors.WrapResource("run", "search batch", outputDir, err)
		}

		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Search_%d", i+1)
		}
		dir := filepath.Join(outputDir, fmt.Sprintf("%s%d", constants.DefaultSourcePrefix, i+1))

		saved, err := c.SearchAndSave(ctx, dir, s.Params)
		outcomes = append(outcomes, Outcome{Name: name, Dir: dir, Saved: saved, Err: err})
		if err != nil {
			logger.Error().Err(err).Str("search", name).Msg("Search failed, continuing")
			continue
		}
		logger.Info().Str("search", name).Int("images", saved.Images).Msg("Search completed")
	}
	return outcomes, nil
}

// Source runs a search list and hands the responses to reconciliation
// directly, one batch per search, without touching the filesystem.
type Source struct {
	client   *Client
	searches []Search
}

// NewSource creates a live search source.
func NewSource(client *Client, searches []Search) *Source {
	return &Source{client: client, searches: searches}
}

// ID returns the identifier of this source.
func (s *Source) ID() sources.ID {
	return sources.VectorStockID
}

// Batches runs every search. A failed search becomes an empty batch and a
// warning.
func (s *Source) Batches(ctx context.Context) (*sources.Result, error) {
	result := &sources.Result{}
	for i, search := range s.searches {
		name := catalogs.SourceName(fmt.Sprintf("%s%d", constants.DefaultSourcePrefix, i+1))
		body, err := s.client.Search(ctx, search.Params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.WrapResource("fetch", "batches", string(name), ctx.Err())
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", name, err))
			result.Batches = append(result.Batches, reconciler.Batch{Source: name})
			continue
		}
		result.Batches = append(result.Batches, reconciler.Batch{Source: name, Records: images(body)})
	}
	return result, nil
}

func images(body map[string]any) []catalogs.Record {
	raw, ok := body["images"].([]any)
	if !ok {
		return nil
	}
	records := make([]catalogs.Record, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]any); ok {
			records = append(records, catalogs.Record(m))
		}
	}
	return records
}
