package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/curator/pkg/catalogs"
	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/provenance"
	"github.com/agentstation/curator/pkg/selector"
)

// Run is one recorded curation run.
type Run struct {
	ID              string    `json:"id" yaml:"id"`
	StartedAt       time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time `json:"finished_at" yaml:"finished_at"` // zero until CompleteRun
	Input           string    `json:"input,omitempty" yaml:"input,omitempty"`
	Seed            uint64    `json:"seed" yaml:"seed"`
	RequestedTarget int       `json:"requested_target" yaml:"requested_target"`
	Target          int       `json:"target" yaml:"target"`
	MinPerSource    int       `json:"min_per_source" yaml:"min_per_source"`
	UniverseSize    int       `json:"universe_size" yaml:"universe_size"`
	SelectedCount   int       `json:"selected_count" yaml:"selected_count"`
	MissingCount    int       `json:"missing_count" yaml:"missing_count"`
}

// Finished reports whether the run was completed.
func (r *Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// RunParams are the settings a run starts with.
type RunParams struct {
	Input        string
	Seed         uint64
	TargetSize   int
	MinPerSource int
}

// CreateRun records a new run and returns its ID.
func (s *Store) CreateRun(ctx context.Context, p RunParams) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, started_at, input, seed, requested_target, min_per_source)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, formatTime(utc.Now().Time), p.Input, int64(p.Seed), p.TargetSize, p.MinPerSource)
		return err
	})
	if err != nil {
		return "", errors.WrapResource("create", "run", id, err)
	}
	return id, nil
}

// SaveProvenance stores the provenance a run selected from. It returns the
// number of (item, source) pairs written.
func (s *Store) SaveProvenance(ctx context.Context, runID string, m provenance.Map) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		n = 0
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO provenance (run_id, item_id, source) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for _, id := range m.IDs() {
			for _, source := range m.Sources(id) {
				res, err := stmt.ExecContext(ctx, runID, string(id), string(source))
				if err != nil {
					return err
				}
				if affected, _ := res.RowsAffected(); affected > 0 {
					n++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.WrapResource("save", "provenance", runID, err)
	}
	return n, nil
}

// SaveSelection stores the selections and shortfalls of a run, replacing
// any saved before, and updates the run's counters.
func (s *Store) SaveSelection(ctx context.Context, runID string, result *selector.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE runs SET target = ?, universe_size = ?, selected_count = ? WHERE id = ?`,
			result.Metadata.Target, result.Metadata.UniverseSize, len(result.Selections), runID)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return &errors.NotFoundError{Resource: "run", ID: runID}
		}

		for _, table := range []string{"selections", "shortfalls"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
				return err
			}
		}

		for i, sel := range result.Selections {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO selections (run_id, position, item_id, reason, sources) VALUES (?, ?, ?, ?, ?)`,
				runID, i, string(sel.ItemID), string(sel.Reason), provenance.Join(sel.Provenance)); err != nil {
				return err
			}
		}
		for _, sf := range result.Shortfalls {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO shortfalls (run_id, kind, source, required, available) VALUES (?, ?, ?, ?, ?)`,
				runID, string(sf.Kind), string(sf.Source), sf.Required, sf.Available); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return err
		}
		return errors.WrapResource("save", "selection", runID, err)
	}
	return nil
}

// CompleteRun marks a run finished and records how many selected items the
// catalog lacked.
func (s *Store) CompleteRun(ctx context.Context, runID string, missing int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE runs SET finished_at = ?, missing_count = ? WHERE id = ?`,
			formatTime(utc.Now().Time), missing, runID)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return &errors.NotFoundError{Resource: "run", ID: runID}
		}
		return nil
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return err
		}
		return errors.WrapResource("complete", "run", runID, err)
	}
	return nil
}

// DeleteRun removes a run and everything recorded for it.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"shortfalls", "selections", "provenance"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, runID); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return &errors.NotFoundError{Resource: "run", ID: runID}
		}
		return nil
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return err
		}
		return errors.WrapResource("delete", "run", runID, err)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, input, seed, requested_target, target,
	min_per_source, universe_size, selected_count, missing_count`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r        Run
		started  sql.NullString
		finished sql.NullString
		seed     int64
	)
	if err := row.Scan(&r.ID, &started, &finished, &r.Input, &seed, &r.RequestedTarget, &r.Target,
		&r.MinPerSource, &r.UniverseSize, &r.SelectedCount, &r.MissingCount); err != nil {
		return nil, err
	}
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished)
	r.Seed = uint64(seed)
	return &r, nil
}

// GetRun returns the run with id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, &errors.NotFoundError{Resource: "run", ID: id}
	}
	if err != nil {
		return nil, errors.WrapResource("load", "run", id, err)
	}
	return r, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapResource("list", "runs", "", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.WrapResource("list", "runs", "", err)
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("list", "runs", "", err)
	}
	return runs, nil
}

// LoadProvenance returns the provenance saved for a run.
func (s *Store) LoadProvenance(ctx context.Context, runID string) (provenance.Map, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT item_id, source FROM provenance WHERE run_id = ?`, runID)
	if err != nil {
		return nil, errors.WrapResource("load", "provenance", runID, err)
	}
	defer func() { _ = rows.Close() }()

	m := make(provenance.Map)
	for rows.Next() {
		var id, source string
		if err := rows.Scan(&id, &source); err != nil {
			return nil, errors.WrapResource("load", "provenance", runID, err)
		}
		m.Add(catalogs.ItemID(id), catalogs.SourceName(source))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("load", "provenance", runID, err)
	}
	return m, nil
}

// LoadSelections returns the saved selections of a run in selection order.
func (s *Store) LoadSelections(ctx context.Context, runID string) ([]selector.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, reason, sources FROM selections WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, errors.WrapResource("load", "selection", runID, err)
	}
	defer func() { _ = rows.Close() }()

	selections := []selector.Selection{}
	for rows.Next() {
		var id, reason, joined string
		if err := rows.Scan(&id, &reason, &joined); err != nil {
			return nil, errors.WrapResource("load", "selection", runID, err)
		}
		selections = append(selections, selector.Selection{
			ItemID:     catalogs.ItemID(id),
			Provenance: provenance.Split(joined),
			Reason:     selector.Reason(reason),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("load", "selection", runID, err)
	}
	return selections, nil
}

// LoadShortfalls returns the saved shortfalls of a run.
func (s *Store) LoadShortfalls(ctx context.Context, runID string) ([]selector.Shortfall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, source, required, available FROM shortfalls WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, errors.WrapResource("load", "shortfalls", runID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []selector.Shortfall
	for rows.Next() {
		var sf selector.Shortfall
		var kind, source string
		if err := rows.Scan(&kind, &source, &sf.Required, &sf.Available); err != nil {
			return nil, errors.WrapResource("load", "shortfalls", runID, err)
		}
		sf.Kind = selector.ShortfallKind(kind)
		sf.Source = catalogs.SourceName(source)
		out = append(out, sf)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("load", "shortfalls", runID, err)
	}
	return out, nil
}
