// Package insight is the facade over dataset management and querying.
// It owns the operation-level contracts: id validation, duplicate and
// not-found detection, archive error classification, and the result
// cap. The heavy lifting lives in ingest, store, and query.
package insight

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"insight/internal/geo"
	"insight/internal/ingest"
	"insight/internal/query"
	"insight/internal/record"
	"insight/internal/store"
)

// DefaultMaxResults caps how many records a query may produce. The cap
// applies to the post-transformation result, before ordering, so a
// too-large query fails without paying for the sort.
const DefaultMaxResults = 5000

// Facade exposes the dataset lifecycle and query operations.
//
// Thread-safety model:
//   - All operations are safe from any goroutine
//   - Mutations of the same dataset id serialize on a per-id lock
//   - Queries never block mutations of other datasets
type Facade struct {
	store   *store.Store
	builder *ingest.Builder
	log     zerolog.Logger

	maxResults int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option allows configuration of facade parameters.
type Option func(*Facade)

// WithMaxResults overrides the query result cap.
func WithMaxResults(n int) Option {
	return func(f *Facade) {
		f.maxResults = n
	}
}

// WithLogger sets the facade logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Facade) {
		f.log = log
		f.builder.Log = log
	}
}

// WithResolver sets the address resolver used for room datasets.
func WithResolver(r geo.Resolver) Option {
	return func(f *Facade) {
		f.builder.Geo = r
	}
}

// New creates a Facade persisting datasets under dir.
func New(dir string, opts ...Option) (*Facade, error) {
	st, err := store.Open(dir)
	if err != nil {
		return nil, err
	}
	f := &Facade{
		store:      st,
		builder:    &ingest.Builder{Log: zerolog.Nop()},
		log:        zerolog.Nop(),
		maxResults: DefaultMaxResults,
		locks:      make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// lockID returns the mutex serializing mutations of one dataset id.
func (f *Facade) lockID(id string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[id]
	if !ok {
		l = &sync.Mutex{}
		f.locks[id] = l
	}
	return l
}

// AddDataset ingests raw zip content as a new dataset and returns the
// ids of every dataset added so far, including the new one. The add is
// all-or-nothing: on any error the dataset list is unchanged.
func (f *Facade) AddDataset(ctx context.Context, id string, kind record.Kind, content []byte) ([]string, error) {
	if !record.ValidID(id) {
		return nil, newInvalidIDError(id)
	}

	l := f.lockID(id)
	l.Lock()
	defer l.Unlock()

	if f.store.Exists(id) {
		return nil, newDuplicateError(id)
	}

	ds, err := f.builder.Build(ctx, id, kind, content)
	if err != nil {
		return nil, classifyIngestError(id, err)
	}

	if err := f.store.Save(ctx, ds); err != nil {
		return nil, newStorageError(id, err)
	}
	f.log.Info().Str("dataset", id).Str("kind", string(kind)).Int("rows", ds.NumRows).Msg("dataset added")

	return f.datasetIDs(ctx)
}

// RemoveDataset deletes the dataset and its persisted file, returning
// the removed id.
func (f *Facade) RemoveDataset(ctx context.Context, id string) (string, error) {
	if !record.ValidID(id) {
		return "", newInvalidIDError(id)
	}

	l := f.lockID(id)
	l.Lock()
	defer l.Unlock()

	if err := f.store.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", newNotFoundError(id)
		}
		return "", newStorageError(id, err)
	}
	f.log.Info().Str("dataset", id).Msg("dataset removed")
	return id, nil
}

// ListDatasets returns a summary of every added dataset, sorted by id.
func (f *Facade) ListDatasets(ctx context.Context) ([]record.Info, error) {
	infos, err := f.store.List(ctx)
	if err != nil {
		return nil, newStorageError("", err)
	}
	return infos, nil
}

// PerformQuery runs a raw JSON query against the dataset it names.
// Results are filtered, optionally grouped and aggregated, capped,
// ordered, and projected onto the requested columns, in that order.
func (f *Facade) PerformQuery(ctx context.Context, raw []byte) ([]record.Record, error) {
	q, err := query.Parse(raw)
	if err != nil {
		return nil, newMalformedQueryError(err)
	}
	if err := query.Validate(q); err != nil {
		return nil, newMalformedQueryError(err)
	}

	id := q.DatasetID()
	ds, err := f.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newNotFoundError(id)
		}
		return nil, newStorageError(id, err)
	}

	results := query.ApplyFilter(q.Where, ds.Records)
	if q.Transformations != nil {
		results = query.ApplyTransformations(q.Transformations, results)
	}
	if len(results) > f.maxResults {
		return nil, newResultTooLargeError(len(results), f.maxResults)
	}
	query.ApplyOrder(q.Options.Order, results)
	return query.Project(q.Options.Columns, results), nil
}

func (f *Facade) datasetIDs(ctx context.Context) ([]string, error) {
	infos, err := f.store.List(ctx)
	if err != nil {
		return nil, newStorageError("", err)
	}
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}
	return ids, nil
}

// classifyIngestError maps ingest sentinels onto the coded surface.
func classifyIngestError(id string, err error) error {
	switch {
	case errors.Is(err, ingest.ErrNotArchive), errors.Is(err, ingest.ErrMissingFolder):
		return &Error{Code: ErrCodeUnsupportedArchive, Message: err.Error(), DatasetID: id, Err: err}
	case errors.Is(err, ingest.ErrMissingCourses),
		errors.Is(err, ingest.ErrMissingSections),
		errors.Is(err, ingest.ErrMissingBuildings),
		errors.Is(err, ingest.ErrMissingRooms):
		return &Error{Code: ErrCodeEmptyDataset, Message: err.Error(), DatasetID: id, Err: err}
	}
	return newStorageError(id, err)
}
