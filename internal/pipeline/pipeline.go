// =============================================================================
// Census Bulk Importer - Record Pipeline
// =============================================================================
//
// This module contains the core import logic. It turns the flat list of rows
// decoded from a spreadsheet into a community → tower → unit hierarchy, tracks
// in-place edits to individual records, and flattens the hierarchy back into
// rows for submission.
//
// STATE MACHINE:
//   Empty   --Load-->               Loaded
//   Loaded  --BeginEdit-->          Editing
//   Editing --CloseEdit-->          Loaded
//   Loaded  --Submit (success)-->   Empty
//
// CONCURRENCY:
//   A Pipeline is driven from a single goroutine. It is not safe for
//   concurrent use; the only exclusivity it enforces is the single open
//   EditSession.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ginjaninja78/census-bulk-importer/internal/types"
)

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle state of a Pipeline.
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateEditing
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateEditing:
		return "editing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// =============================================================================
// PIPELINE
// =============================================================================

// Submitter delivers exported rows to the import endpoint.
type Submitter interface {
	Submit(ctx context.Context, sessionID string, rows []types.Row) error
}

// EditSession is the single in-flight edit of one record.
type EditSession struct {
	record     *Record
	generation int
}

// Record returns the record under edit.
func (s *EditSession) Record() *Record {
	return s.record
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithSessionIDs replaces the session id generator.
func WithSessionIDs(next func() string) Option {
	return func(p *Pipeline) {
		p.newSessionID = next
	}
}

// Pipeline groups, edits and exports the records of one import.
type Pipeline struct {
	logger       *log.Logger
	newSessionID func() string

	names     *FieldNames
	hierarchy *Hierarchy
	session   *EditSession

	// generation increases on every Load so stale sessions can be detected.
	generation int
}

// New creates an Empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:       log.Default(),
		newSessionID: func() string { return uuid.New().String() },
		names:        NewFieldNames(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	switch {
	case p.hierarchy == nil:
		return StateEmpty
	case p.session != nil:
		return StateEditing
	default:
		return StateLoaded
	}
}

// Hierarchy returns the loaded hierarchy, or nil when Empty.
func (p *Pipeline) Hierarchy() *Hierarchy {
	return p.hierarchy
}

// Load replaces any previous data with rows grouped by GroupKeyPath.
//
// Every record gets a TempID of the form "person_<index>". Absent or empty
// grouping columns fall back to NoCommunity, NoTower and NoUnit. A previous
// hierarchy and any open edit session are discarded, even when Load fails.
//
// RETURNS:
//   - The new hierarchy.
//   - ErrEmptyInput when rows is empty.
//   - ErrFieldCollision when two headers share an internal key.
func (p *Pipeline) Load(rows []types.Row) (*Hierarchy, error) {
	p.generation++
	p.reset()

	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	names := NewFieldNames()
	h := newHierarchy(p.newSessionID())

	for i, row := range rows {
		rec := &Record{
			tempID: fmt.Sprintf("person_%d", i),
			attrs:  make(map[string]string, row.Len()),
		}
		for _, f := range row.Fields() {
			key, err := names.Register(f.Name)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			rec.set(key, f.Value)
		}
		rec.path = GroupKeyPath{
			Community: valueOr(row, CommunityField, NoCommunity),
			Tower:     valueOr(row, TowerField, NoTower),
			Unit:      valueOr(row, UnitField, NoUnit),
		}
		rec.refreshLabel()
		h.add(rec)
	}

	p.names = names
	p.hierarchy = h

	p.logger.Info("Loaded import data",
		"session", h.SessionID,
		"records", h.Len(),
		"communities", len(h.communities),
		"columns", names.Len())

	return h, nil
}

// valueOr returns the named field, or fallback when it is absent or empty.
func valueOr(row types.Row, name, fallback string) string {
	if v, ok := row.Get(name); ok && v != "" {
		return v
	}
	return fallback
}

// BeginEdit opens the edit session on rec.
func (p *Pipeline) BeginEdit(rec *Record) (*EditSession, error) {
	if p.hierarchy == nil {
		return nil, ErrNoData
	}
	if p.session != nil {
		return nil, ErrConcurrentEdit
	}
	if rec == nil {
		return nil, ErrUnknownRecord
	}
	if known, ok := p.hierarchy.Record(rec.tempID); !ok || known != rec {
		return nil, ErrUnknownRecord
	}

	p.session = &EditSession{record: rec, generation: p.generation}
	p.logger.Debug("Opened edit session", "record", rec.tempID, "label", rec.label)
	return p.session, nil
}

// BeginEditByID opens the edit session on the record with the given TempID.
func (p *Pipeline) BeginEditByID(tempID string) (*EditSession, error) {
	if p.hierarchy == nil {
		return nil, ErrNoData
	}
	rec, ok := p.hierarchy.Record(tempID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRecord, tempID)
	}
	return p.BeginEdit(rec)
}

// ApplyEdit overwrites the fields named in updates on the session's record.
// Keys may be original headers or internal keys; fields not named are left
// untouched. The record's label is recomputed afterwards.
func (p *Pipeline) ApplyEdit(s *EditSession, updates map[string]string) error {
	if err := p.checkSession(s); err != nil {
		return err
	}

	rec := s.record
	for _, name := range slices.Sorted(maps.Keys(updates)) {
		key := Normalize(name)
		if !p.names.Known(key) {
			if _, err := p.names.Register(name); err != nil {
				return err
			}
		}
		rec.set(key, updates[name])
	}
	rec.refreshLabel()

	p.logger.Debug("Applied edit", "record", rec.tempID, "fields", len(updates), "label", rec.label)
	return nil
}

// CloseEdit ends the session. Changes were already applied by ApplyEdit.
func (p *Pipeline) CloseEdit(s *EditSession) error {
	if err := p.checkSession(s); err != nil {
		return err
	}
	p.session = nil
	p.logger.Debug("Closed edit session", "record", s.record.tempID)
	return nil
}

func (p *Pipeline) checkSession(s *EditSession) error {
	if s == nil || s != p.session || s.generation != p.generation {
		return ErrSessionClosed
	}
	return nil
}

// Row returns rec as a row with original headers in column order.
func (p *Pipeline) Row(rec *Record) types.Row {
	var row types.Row
	for _, key := range rec.keys {
		row.Set(p.names.Display(key), rec.attrs[key])
	}
	return row
}

// Export flattens the hierarchy in traversal order. TempIDs are not part of
// the output. An Empty pipeline exports an empty slice.
func (p *Pipeline) Export() []types.Row {
	records := p.hierarchy.Records()
	rows := make([]types.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, p.Row(rec))
	}
	return rows
}

// Submit exports the records and hands them to s. On success the pipeline
// returns to Empty. On failure it returns a *SubmissionError and keeps the
// data so the caller can retry.
func (p *Pipeline) Submit(ctx context.Context, s Submitter) (int, error) {
	switch p.State() {
	case StateEmpty:
		return 0, ErrNoData
	case StateEditing:
		return 0, ErrEditInProgress
	}

	rows := p.Export()
	sessionID := p.hierarchy.SessionID

	if err := s.Submit(ctx, sessionID, rows); err != nil {
		subErr := &SubmissionError{Err: err}
		var coder interface{ HTTPStatus() int }
		if errors.As(err, &coder) {
			subErr.StatusCode = coder.HTTPStatus()
		}
		p.logger.Error("Submission failed", "session", sessionID, "err", err)
		return 0, subErr
	}

	p.logger.Info("Submission acknowledged", "session", sessionID, "records", len(rows))
	p.reset()
	return len(rows), nil
}

func (p *Pipeline) reset() {
	p.hierarchy = nil
	p.session = nil
	p.names = NewFieldNames()
}
