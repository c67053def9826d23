// Package store provides durable storage for datasets.
//
// Layout is one SQLite database file per dataset id under the data
// directory (<dir>/<id>.db), holding the dataset header and its
// records as JSON rows. Adds are atomic: the database is built under a
// staging name and renamed into place only after a successful commit,
// so a crash mid-add never leaves a partially written dataset behind.
//
// Loaded datasets are cached in memory; the list operation merges the
// cache with whatever is on disk.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"insight/internal/record"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound reports that no dataset with the requested id exists in
// memory or on disk.
var ErrNotFound = errors.New("dataset not found")

// Store manages the data directory and the in-memory dataset cache.
type Store struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*record.Dataset
}

// Open prepares a store rooted at dir, creating the directory if
// needed. Opening is idempotent and performs no dataset reads; records
// load lazily per query.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{
		dir:   dir,
		cache: make(map[string]*record.Dataset),
	}, nil
}

// Path returns the on-disk location of a dataset's database file.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+".db")
}

// Exists reports whether a dataset with the given id is present in
// memory or on disk.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	_, cached := s.cache[id]
	s.mu.RUnlock()
	if cached {
		return true
	}
	_, err := os.Stat(s.Path(id))
	return err == nil
}

// Save persists a dataset and caches it. The database is written to a
// staging file and renamed into place, so a failure at any point
// leaves no trace under the dataset's id.
func (s *Store) Save(ctx context.Context, ds *record.Dataset) error {
	staging := filepath.Join(s.dir, ".staging-"+uuid.NewString()+".db")
	if err := s.writeDatabase(ctx, staging, ds); err != nil {
		os.Remove(staging)
		return err
	}
	if err := os.Rename(staging, s.Path(ds.ID)); err != nil {
		os.Remove(staging)
		return fmt.Errorf("commit dataset %q: %w", ds.ID, err)
	}

	s.mu.Lock()
	s.cache[ds.ID] = ds
	s.mu.Unlock()
	return nil
}

func (s *Store) writeDatabase(ctx context.Context, path string, ds *record.Dataset) error {
	db, err := openDatabase(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO dataset (id, kind, num_rows) VALUES (?, ?, ?)
	`, ds.ID, string(ds.Kind), ds.NumRows); err != nil {
		return fmt.Errorf("write dataset header: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO records (seq, fields) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare record insert: %w", err)
	}
	defer insert.Close()

	for seq, rec := range ds.Records {
		fields, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %d: %w", seq, err)
		}
		if _, err := insert.ExecContext(ctx, seq, string(fields)); err != nil {
			return fmt.Errorf("write record %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load returns the dataset with the given id, reading it from disk on
// a cache miss.
func (s *Store) Load(ctx context.Context, id string) (*record.Dataset, error) {
	s.mu.RLock()
	ds, cached := s.cache[id]
	s.mu.RUnlock()
	if cached {
		return ds, nil
	}

	path := s.Path(id)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset %q: %w", id, ErrNotFound)
	}

	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ds, err = readDataset(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("read dataset %q: %w", id, err)
	}

	s.mu.Lock()
	s.cache[id] = ds
	s.mu.Unlock()
	return ds, nil
}

func readDataset(ctx context.Context, db *sql.DB) (*record.Dataset, error) {
	ds := &record.Dataset{}
	var kind string
	err := db.QueryRowContext(ctx, `
		SELECT id, kind, num_rows FROM dataset
	`).Scan(&ds.ID, &kind, &ds.NumRows)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	ds.Kind = record.Kind(kind)

	rows, err := db.QueryContext(ctx, `
		SELECT fields FROM records ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fields string
		if err := rows.Scan(&fields); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec record.Record
		if err := json.Unmarshal([]byte(fields), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		ds.Records = append(ds.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return ds, nil
}

// Delete removes the dataset from memory and disk. Deleting an unknown
// id returns ErrNotFound.
func (s *Store) Delete(id string) error {
	if !s.Exists(id) {
		return fmt.Errorf("dataset %q: %w", id, ErrNotFound)
	}

	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()

	if err := os.Remove(s.Path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove dataset %q: %w", id, err)
	}
	// WAL sidecars survive the main file when the last close skipped
	// its checkpoint.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(s.Path(id) + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove dataset %q sidecar: %w", id, err)
		}
	}
	return nil
}

// List returns header information for every known dataset, merging
// in-memory and on-disk state, sorted by id.
func (s *Store) List(ctx context.Context) ([]record.Info, error) {
	ids := make(map[string]bool)

	s.mu.RLock()
	infos := make(map[string]record.Info)
	for id, ds := range s.cache {
		ids[id] = true
		infos[id] = record.Info{ID: id, Kind: ds.Kind, NumRows: ds.NumRows}
	}
	s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".db") || strings.HasPrefix(name, ".") {
			continue
		}
		id := strings.TrimSuffix(name, ".db")
		if ids[id] {
			continue
		}
		info, err := s.readInfo(ctx, id)
		if err != nil {
			return nil, err
		}
		ids[id] = true
		infos[id] = info
	}

	out := make([]record.Info, 0, len(infos))
	for _, info := range infos {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// readInfo reads only the dataset header, avoiding a full record scan
// for the list operation.
func (s *Store) readInfo(ctx context.Context, id string) (record.Info, error) {
	db, err := openDatabase(s.Path(id))
	if err != nil {
		return record.Info{}, err
	}
	defer db.Close()

	var info record.Info
	var kind string
	err = db.QueryRowContext(ctx, `
		SELECT id, kind, num_rows FROM dataset
	`).Scan(&info.ID, &kind, &info.NumRows)
	if err != nil {
		return record.Info{}, fmt.Errorf("read header of %q: %w", id, err)
	}
	info.Kind = record.Kind(kind)
	return info, nil
}

// openDatabase opens a dataset database and applies the schema and the
// required pragmas.
func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY during bulk inserts.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
