package table

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"sspdb/internal/blob"
)

const contentType = "text/csv"

// Observer receives the outcome of every table operation.
type Observer interface {
	Observe(ctx context.Context, table, operation string, success bool, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) Observe(context.Context, string, string, bool, time.Duration) {}

// Option configures a Table.
type Option func(*options)

type options struct {
	observer Observer
	key      string
}

// WithObserver routes operation outcomes to o.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observer = o
		}
	}
}

// WithKey overrides the blob key, which defaults to the schema file name.
func WithKey(key string) Option {
	return func(opts *options) {
		if key != "" {
			opts.key = key
		}
	}
}

// Table is the flat-file store for one entity type. It keeps no state between
// calls: every operation reads the current file, and mutations replace it
// through the blob store (temp file + rename on the filesystem driver).
// A Table is not safe for concurrent mutation from several goroutines or
// processes; callers serialise access.
type Table[T any] struct {
	schema   Schema[T]
	store    blob.Store
	key      string
	observer Observer
}

// New returns a table bound to store. The file must exist (see Init) before
// other operations succeed.
func New[T any](store blob.Store, schema Schema[T], opts ...Option) *Table[T] {
	o := options{observer: noopObserver{}, key: schema.File}
	for _, opt := range opts {
		opt(&o)
	}
	return &Table[T]{schema: schema, store: store, key: o.key, observer: o.observer}
}

// Name returns the logical table name.
func (t *Table[T]) Name() string { return t.schema.Table }

// Key returns the blob key holding the table.
func (t *Table[T]) Key() string { return t.key }

// Schema returns the table schema.
func (t *Table[T]) Schema() Schema[T] { return t.schema }

// Init writes a header-only file when none exists. It reports whether a file
// was created.
func (t *Table[T]) Init(ctx context.Context) (bool, error) {
	_, err := t.store.Head(ctx, t.key)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, blob.ErrNotFound) {
		return false, fmt.Errorf("stat table %s: %w", t.schema.Table, err)
	}
	if err := t.write(ctx, t.schema.Header(), nil); err != nil {
		return false, err
	}
	return true, nil
}

// Save upserts v: rows sharing its identifier are dropped and v is written
// last. With no prior row it is a pure append. The returned value is v in its
// stored form, as a later read would decode it.
func (t *Table[T]) Save(ctx context.Context, v T) (T, error) {
	start := time.Now()
	saved, err := t.save(ctx, v)
	t.observe(ctx, "save", err, start)
	if err != nil {
		var zero T
		return zero, err
	}
	return saved, nil
}

func (t *Table[T]) save(ctx context.Context, v T) (T, error) {
	if t.schema.Normalize != nil {
		v = t.schema.Normalize(v)
	}
	if t.schema.Validate != nil {
		if err := t.schema.Validate(v); err != nil {
			return v, err
		}
	}
	snap, err := t.read(ctx)
	if err != nil {
		return v, err
	}
	record := snap.order(t.schema.EncodeRow(v))
	kept, removed := snap.without(t.schema.Key(v))
	if removed == 0 && snap.newlineTerminated {
		return v, t.append(ctx, snap.header, kept, record)
	}
	return v, t.write(ctx, snap.header, append(kept, record))
}

// FindByID returns the first row whose identifier matches id. A malformed id
// or a missing row is a miss, not an error.
func (t *Table[T]) FindByID(ctx context.Context, id string) (T, bool, error) {
	start := time.Now()
	v, ok, err := t.findByID(ctx, id)
	t.observe(ctx, "find_by_id", err, start)
	return v, ok, err
}

func (t *Table[T]) findByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	key, err := t.schema.CanonicalKey(id)
	if err != nil {
		return zero, false, nil
	}
	snap, err := t.read(ctx)
	if err != nil {
		return zero, false, err
	}
	for i := range snap.records {
		if snap.keys[i] != key {
			continue
		}
		v, err := t.decode(snap, i)
		if err != nil {
			return zero, false, err
		}
		return v, true, nil
	}
	return zero, false, nil
}

// All reads the file once and returns a single-use sequence decoding its rows
// in file order. I/O failures are returned immediately; a row that fails to
// decode is yielded as a *RowError and iteration may continue past it.
func (t *Table[T]) All(ctx context.Context) (iter.Seq2[T, error], error) {
	start := time.Now()
	snap, err := t.read(ctx)
	t.observe(ctx, "scan", err, start)
	if err != nil {
		return nil, err
	}
	return func(yield func(T, error) bool) {
		for i := range snap.records {
			v, err := t.decode(snap, i)
			if !yield(v, err) {
				return
			}
		}
	}, nil
}

// FindAll decodes every row in file order. The first row that fails to decode
// aborts the listing with a *RowError.
func (t *Table[T]) FindAll(ctx context.Context) ([]T, error) {
	start := time.Now()
	out, err := t.findAll(ctx)
	t.observe(ctx, "find_all", err, start)
	return out, err
}

func (t *Table[T]) findAll(ctx context.Context) ([]T, error) {
	snap, err := t.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(snap.records))
	for i := range snap.records {
		v, err := t.decode(snap, i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DeleteByID removes every row with identifier id and reports whether any
// existed. The file is only rewritten when something was removed.
func (t *Table[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	ok, err := t.deleteByID(ctx, id)
	t.observe(ctx, "delete", err, start)
	return ok, err
}

func (t *Table[T]) deleteByID(ctx context.Context, id string) (bool, error) {
	key, err := t.schema.CanonicalKey(id)
	if err != nil {
		return false, nil
	}
	snap, err := t.read(ctx)
	if err != nil {
		return false, err
	}
	kept, removed := snap.without(key)
	if removed == 0 {
		return false, nil
	}
	if err := t.write(ctx, snap.header, kept); err != nil {
		return false, err
	}
	return true, nil
}

// Rows returns the raw header and records as stored, for exporters that need
// the text form.
func (t *Table[T]) Rows(ctx context.Context) ([]string, [][]string, error) {
	snap, err := t.read(ctx)
	if err != nil {
		return nil, nil, err
	}
	return snap.header, snap.records, nil
}

type snapshot struct {
	header   []string
	keyIndex int
	records  [][]string
	// keys holds each row's identifier in canonical form, so a hand-edited
	// upper-case uuid still matches its lookups.
	keys              []string
	lines             []int
	newlineTerminated bool
}

func (s *snapshot) without(key string) ([][]string, int) {
	kept := make([][]string, 0, len(s.records))
	removed := 0
	for i, rec := range s.records {
		if s.keys[i] == key {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, removed
}

// order lays row out in file header order.
func (s *snapshot) order(row Row) []string {
	out := make([]string, len(s.header))
	for i, name := range s.header {
		out[i] = row[name]
	}
	return out
}

func (t *Table[T]) decode(snap *snapshot, i int) (T, error) {
	rec := snap.records[i]
	if len(rec) != len(snap.header) {
		var zero T
		return zero, &RowError{
			Table: t.key,
			Line:  snap.lines[i],
			Err:   fmt.Errorf("%w: %d fields, header has %d", ErrMalformedRecord, len(rec), len(snap.header)),
		}
	}
	row := make(Row, len(rec))
	for j, name := range snap.header {
		row[name] = rec[j]
	}
	v, err := t.schema.Decode(row)
	if err != nil {
		return v, &RowError{Table: t.key, Line: snap.lines[i], Err: err}
	}
	return v, nil
}

func (t *Table[T]) read(ctx context.Context) (*snapshot, error) {
	_, rc, err := t.store.Get(ctx, t.key)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", t.schema.Table, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", t.schema.Table, err)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	raw, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read table %s: %w: missing header", t.schema.Table, ErrMalformedRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w: %v", t.schema.Table, ErrMalformedRecord, err)
	}
	header, err := t.schema.bindHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", t.schema.Table, err)
	}
	snap := &snapshot{
		header:            header,
		keyIndex:          indexOfName(header, KeyColumn),
		newlineTerminated: len(data) == 0 || data[len(data)-1] == '\n',
	}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read table %s: %w: %v", t.schema.Table, ErrMalformedRecord, err)
		}
		line, _ := r.FieldPos(0)
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if len(rec) <= snap.keyIndex {
			return nil, &RowError{Table: t.key, Line: line, Err: fmt.Errorf("%w: row has no %s field", ErrMalformedRecord, KeyColumn)}
		}
		key, err := t.schema.CanonicalKey(rec[snap.keyIndex])
		if err != nil {
			key = rec[snap.keyIndex]
		}
		snap.records = append(snap.records, rec)
		snap.keys = append(snap.keys, key)
		snap.lines = append(snap.lines, line)
	}
	return snap, nil
}

func (t *Table[T]) write(ctx context.Context, header []string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("encode table %s: %w", t.schema.Table, err)
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("encode table %s: %w", t.schema.Table, err)
	}
	if _, err := t.store.Put(ctx, t.key, bytes.NewReader(buf.Bytes()), blob.PutOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("write table %s: %w", t.schema.Table, err)
	}
	return nil
}

func (t *Table[T]) append(ctx context.Context, header []string, records [][]string, record []string) error {
	appender, ok := t.store.(blob.Appender)
	if !ok {
		return t.write(ctx, header, append(records, record))
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("encode table %s: %w", t.schema.Table, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode table %s: %w", t.schema.Table, err)
	}
	if _, err := appender.Append(ctx, t.key, &buf); err != nil {
		return fmt.Errorf("append table %s: %w", t.schema.Table, err)
	}
	return nil
}

func (t *Table[T]) observe(ctx context.Context, op string, err error, start time.Time) {
	t.observer.Observe(ctx, t.schema.Table, op, err == nil, time.Since(start))
}

func indexOfName(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
