// Package ingest builds datasets from raw archive content. It
// normalizes the two heterogeneous source shapes - course-section JSON
// files and scraped room pages - into the uniform record model.
//
// Per-file parsing fans out across a bounded worker group and joins in
// the original file enumeration order, so dataset record order is
// deterministic regardless of scheduling. A file that fails to parse
// is logged and skipped; the dataset only fails when no file yields a
// valid record.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"insight/internal/geo"
	"insight/internal/record"
)

// Sentinel errors for the kind-specific empty-dataset and bad-archive
// conditions. The facade maps them onto its coded error surface.
var (
	ErrNotArchive       = errors.New("content is not a zip archive")
	ErrMissingFolder    = errors.New("archive is missing the required top-level folder")
	ErrMissingCourses   = errors.New("no course files in dataset")
	ErrMissingSections  = errors.New("no valid course sections in dataset")
	ErrMissingBuildings = errors.New("no buildings in dataset")
	ErrMissingRooms     = errors.New("no valid rooms in dataset")
)

const defaultConcurrency = 8

// Builder normalizes raw archives into datasets.
type Builder struct {
	Geo geo.Resolver
	Log zerolog.Logger

	// Concurrency bounds the per-file parsing fan-out. Defaults to 8.
	Concurrency int
}

// Build produces a validated dataset from raw zip content. The archive
// must contain a top-level folder matching the kind ("courses/" or
// "rooms/").
func (b *Builder) Build(ctx context.Context, id string, kind record.Kind, content []byte) (*record.Dataset, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}

	prefix := string(kind) + "/"
	if !hasFolder(zr, prefix) {
		return nil, fmt.Errorf("%w: %q", ErrMissingFolder, prefix)
	}

	var records []record.Record
	switch kind {
	case record.KindRooms:
		if b.Geo == nil {
			return nil, errors.New("rooms ingestion requires an address resolver")
		}
		records, err = b.buildRooms(ctx, id, zr)
	default:
		records, err = b.buildCourses(ctx, id, zr)
	}
	if err != nil {
		return nil, err
	}

	return &record.Dataset{
		ID:      id,
		Kind:    kind,
		NumRows: len(records),
		Records: records,
	}, nil
}

func (b *Builder) concurrency() int {
	if b.Concurrency > 0 {
		return b.Concurrency
	}
	return defaultConcurrency
}

// hasFolder reports whether any archive entry lives under the prefix.
// Some zip writers omit explicit directory entries, so file paths are
// checked rather than directory records.
func hasFolder(zr *zip.Reader, prefix string) bool {
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, prefix) {
			return true
		}
	}
	return false
}

// filesUnder returns the non-directory entries below prefix in archive
// order, which fixes the join order for the fan-out.
func filesUnder(zr *zip.Reader, prefix string) []*zip.File {
	var out []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasPrefix(f.Name, prefix) || f.Name == prefix {
			continue
		}
		out = append(out, f)
	}
	return out
}

func readAll(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func findFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// joinGroups flattens per-file results in enumeration order.
func joinGroups(groups [][]record.Record) []record.Record {
	var total int
	for _, g := range groups {
		total += len(g)
	}
	out := make([]record.Record, 0, total)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// fanOut runs fn per index over a bounded worker group. Workers only
// fail the group on context cancellation; per-file problems are
// handled inside fn.
func (b *Builder) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency())
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i)
		})
	}
	return g.Wait()
}
