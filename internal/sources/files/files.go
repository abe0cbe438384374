// Package files loads result batches saved by earlier searches. Each
// subfolder of the input directory whose name carries the source prefix is
// one source; its results file holds the items under results.images.
package files

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/logging"
	"github.com/agentstation/curator/pkg/reconciler"
	"github.com/agentstation/curator/pkg/sources"
)

// Source reads search_* folders beneath a directory.
type Source struct {
	dir    string
	prefix string
}

// Option configures a Source.
type Option func(*Source)

// WithPrefix sets the folder name prefix that marks a source folder.
func WithPrefix(prefix string) Option {
	return func(s *Source) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New creates a folder source rooted at dir.
func New(dir string, opts ...Option) *Source {
	s := &Source{dir: dir, prefix: constants.DefaultSourcePrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the identifier of this source.
func (s *Source) ID() sources.ID {
	return sources.FilesID
}

// resultsFile is the saved shape of one search.
type resultsFile struct {
	Results *struct {
		Images []catalogs.Record `json:"images"`
	} `json:"results"`
}

// Batches returns one batch per source folder, in folder name order.
// A missing or unreadable results file yields an empty batch and a warning.
func (s *Source) Batches(ctx context.Context) (*sources.Result, error) {
	logger := logging.FromContext(ctx)

	info, err := os.Stat(s.dir)
	if err != nil {
		return nil, errors.WrapIO("stat", s.dir, err)
	}
	if !info.IsDir() {
		return nil, &errors.ValidationError{Field: "input_dir", Value: s.dir, Message: "not a directory"}
	}

	folders, err := s.folders()
	if err != nil {
		return nil, err
	}
	logger.Info().Str("dir", s.dir).Int("folders", len(folders)).Msg("Found source folders")

	result := &sources.Result{Batches: make([]reconciler.Batch, 0, len(folders))}
	for _, name := range folders {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapResource("load", "batches", s.dir, err)
		}

		records, warning := loadRecords(filepath.Join(s.dir, name, constants.SearchResultsFile))
		if warning != "" {
			warning = name + ": " + warning
			result.Warnings = append(result.Warnings, warning)
			logger.Warn().Str("source", name).Msg(warning)
		}
		logger.Debug().Str("source", name).Int("records", len(records)).Msg("Loaded source folder")

		result.Batches = append(result.Batches, reconciler.Batch{
			Source:  catalogs.SourceName(name),
			Records: records,
		})
	}
	return result, nil
}

func (s *Source) folders() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.WrapIO("read", s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), s.prefix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// loadRecords reads the images of one results file. Problems are reported
// as a warning string rather than an error.
func loadRecords(path string) ([]catalogs.Record, string) {
	f, err := os.Open(path) //nolint:gosec // path is built from the operator's input directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Sprintf("%s does not exist", filepath.Base(path))
		}
		return nil, fmt.Sprintf("cannot read %s: %v", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var file resultsFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Sprintf("cannot parse %s: %v", filepath.Base(path), err)
	}
	if file.Results == nil || file.Results.Images == nil {
		return nil, fmt.Sprintf("no images found in %s", filepath.Base(path))
	}
	return file.Results.Images, ""
}
