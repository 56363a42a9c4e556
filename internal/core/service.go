// Package core is the service layer over the entity tables: CRUD pass-through,
// staff reference checks, the subordinates query and the observability hooks
// (logging, metrics, tracing) wrapped around every operation.
package core

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"sspdb/internal/table"
	"sspdb/pkg/domain"
)

// Repository is the storage contract a Service sits on. *table.Table
// satisfies it.
type Repository[T any] interface {
	Save(ctx context.Context, v T) (T, error)
	FindByID(ctx context.Context, id string) (T, bool, error)
	FindAll(ctx context.Context) ([]T, error)
	All(ctx context.Context) (iter.Seq2[T, error], error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// Reference is one staff association carried by a record.
type Reference struct {
	Field string
	Ref   domain.Ref
}

// StaffLookup reports whether a staff member with id exists.
type StaffLookup func(ctx context.Context, id string) (bool, error)

// Option configures a Service.
type Option func(*serviceConfig)

type serviceConfig struct {
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
	clock     func() time.Time
	checkRefs bool
}

func defaultConfig() serviceConfig {
	return serviceConfig{
		logger:    noopLogger{},
		metrics:   noopMetrics{},
		tracer:    noopTracer{},
		clock:     time.Now,
		checkRefs: true,
	}
}

// WithLogger sets the service logger.
func WithLogger(l Logger) Option {
	return func(c *serviceConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetricsRecorder sets the per-operation metrics sink.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(c *serviceConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracer sets the per-operation tracer.
func WithTracer(t Tracer) Option {
	return func(c *serviceConfig) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithClock overrides the time source used for derived ages.
func WithClock(now func() time.Time) Option {
	return func(c *serviceConfig) {
		if now != nil {
			c.clock = now
		}
	}
}

// WithReferenceCheck toggles the write-time check that referenced staff exist.
func WithReferenceCheck(enabled bool) Option {
	return func(c *serviceConfig) { c.checkRefs = enabled }
}

// Service is a thin facade over one entity table.
type Service[T any] struct {
	entity domain.EntityType
	repo   Repository[T]
	key    func(T) string
	refs   func(T) []Reference
	staff  StaffLookup
	cfg    serviceConfig
}

// NewService wraps repo. refs and staff may be nil for entities without
// associations; staff is consulted for every present reference on Save.
func NewService[T any](entity domain.EntityType, repo Repository[T], key func(T) string, refs func(T) []Reference, staff StaffLookup, opts ...Option) *Service[T] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Service[T]{entity: entity, repo: repo, key: key, refs: refs, staff: staff, cfg: cfg}
}

// Entity returns the entity type served.
func (s *Service[T]) Entity() domain.EntityType { return s.entity }

// Now returns the service clock reading.
func (s *Service[T]) Now() time.Time { return s.cfg.clock() }

// Save checks references and upserts v.
func (s *Service[T]) Save(ctx context.Context, v T) (T, error) {
	var saved T
	err := s.run(ctx, "save", func(ctx context.Context) error {
		if err := s.checkReferences(ctx, v); err != nil {
			return err
		}
		var err error
		saved, err = s.repo.Save(ctx, v)
		return err
	}, "id", s.key(v))
	return saved, err
}

// FindByID returns the record with id; a miss is (zero, false, nil).
func (s *Service[T]) FindByID(ctx context.Context, id string) (T, bool, error) {
	var (
		v  T
		ok bool
	)
	err := s.run(ctx, "find", func(ctx context.Context) error {
		var err error
		v, ok, err = s.repo.FindByID(ctx, id)
		return err
	}, "id", id)
	return v, ok, err
}

// Get is FindByID with a miss reported as ErrNotFound.
func (s *Service[T]) Get(ctx context.Context, id string) (T, error) {
	v, ok, err := s.FindByID(ctx, id)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, ErrNotFound{Entity: s.entity, ID: id}
	}
	return v, nil
}

// FindAll lists every record in file order. One malformed row fails the
// whole listing.
func (s *Service[T]) FindAll(ctx context.Context) ([]T, error) {
	var out []T
	err := s.run(ctx, "list", func(ctx context.Context) error {
		var err error
		out, err = s.repo.FindAll(ctx)
		return err
	})
	return out, err
}

// FindValid lists every decodable record, logging and skipping rows that
// fail to decode. The skipped row errors are returned alongside.
func (s *Service[T]) FindValid(ctx context.Context) ([]T, []error, error) {
	var (
		out     []T
		skipped []error
	)
	err := s.run(ctx, "scan", func(ctx context.Context) error {
		seq, err := s.repo.All(ctx)
		if err != nil {
			return err
		}
		for v, err := range seq {
			var rowErr *table.RowError
			if errors.As(err, &rowErr) {
				s.cfg.logger.Warn("skipping malformed row", "entity", s.entity, "line", rowErr.Line, "error", rowErr.Err)
				skipped = append(skipped, err)
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	return out, skipped, err
}

// DeleteByID removes the record and reports whether it existed. Records that
// reference it are left untouched.
func (s *Service[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.run(ctx, "delete", func(ctx context.Context) error {
		var err error
		removed, err = s.repo.DeleteByID(ctx, id)
		return err
	}, "id", id)
	return removed, err
}

func (s *Service[T]) checkReferences(ctx context.Context, v T) error {
	if !s.cfg.checkRefs || s.refs == nil || s.staff == nil {
		return nil
	}
	for _, ref := range s.refs(v) {
		if !ref.Ref.Valid {
			continue
		}
		ok, err := s.staff(ctx, ref.Ref.String())
		if err != nil {
			return fmt.Errorf("check %s: %w", ref.Field, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s %s", ErrReferenceNotFound, ref.Field, ref.Ref)
		}
	}
	return nil
}

func (s *Service[T]) run(ctx context.Context, op string, fn func(context.Context) error, kv ...any) error {
	operation := op + "_" + string(s.entity)
	ctx, span := s.cfg.tracer.Start(ctx, operation)
	start := time.Now()
	err := fn(ctx)
	s.cfg.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	span.End(err)

	fields := append([]any{"entity", s.entity}, kv...)
	if err != nil {
		s.cfg.logger.Error(operation+" failed", append(fields, "error", err)...)
		return err
	}
	s.cfg.logger.Debug(operation, fields...)
	return nil
}
