// Package memory provides an in-process transformer.Store.
package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"transformer/internal/model"
	"transformer/internal/transformer"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrUnknownRelation = errors.New("unknown relation")
	ErrInvalidAttempts = errors.New("attempts must be positive")
)

// RelationDef declares a one-to-many relation: records of Target whose
// ForeignKey attribute holds the owner's ID.
type RelationDef struct {
	Target     string
	ForeignKey string
}

type table struct {
	ids  []string
	rows map[string]*model.Attributes
}

func (t *table) clone() *table {
	c := &table{ids: slices.Clone(t.ids), rows: make(map[string]*model.Attributes, len(t.rows))}
	for id, attrs := range t.rows {
		c.rows[id] = attrs.Clone()
	}

	return c
}

// Store keeps records in memory. It is safe for concurrent use; RunAtomic
// restores the state captured at its start when an attempt fails, but does
// not isolate concurrent writers.
type Store struct {
	mu        sync.RWMutex
	tables    map[string]*table
	relations map[string]map[string]RelationDef
	newID     func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDs overrides identifier generation.
func WithIDs(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		tables:    make(map[string]*table),
		relations: make(map[string]map[string]RelationDef),
		newID:     uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// DefineRelation declares the accessor of owner records. An empty
// foreignKey defaults to "<owner>_id".
func (s *Store) DefineRelation(owner, accessor, target, foreignKey string) {
	if foreignKey == "" {
		foreignKey = owner + "_id"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.relations[owner] == nil {
		s.relations[owner] = make(map[string]RelationDef)
	}

	s.relations[owner][accessor] = RelationDef{Target: target, ForeignKey: foreignKey}
}

// Create implements transformer.Store.
func (s *Store) Create(ctx context.Context, typ string, attrs *model.Attributes) (*model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tables[typ]
	if t == nil {
		t = &table{rows: make(map[string]*model.Attributes)}
		s.tables[typ] = t
	}

	id := s.newID()
	t.ids = append(t.ids, id)
	t.rows[id] = attrs.Clone()

	return model.Load(typ, id, attrs.Clone()), nil
}

// Update implements transformer.Store. It reports false for unknown records.
func (s *Store) Update(ctx context.Context, rec *model.Record, attrs *model.Attributes) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tables[rec.Type]
	if t == nil || t.rows[rec.ID] == nil {
		return false, nil
	}

	t.rows[rec.ID].Merge(attrs)

	return true, nil
}

// Get returns a stored record.
func (s *Store) Get(_ context.Context, typ, id string) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.tables[typ]
	if t == nil || t.rows[id] == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, typ, id)
	}

	return model.Load(typ, id, t.rows[id].Clone()), nil
}

// All returns the records of typ in creation order.
func (s *Store) All(_ context.Context, typ string) []*model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.where(typ, func(*model.Attributes) bool { return true })
}

// Count returns the number of records of typ.
func (s *Store) Count(typ string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t := s.tables[typ]; t != nil {
		return len(t.ids)
	}

	return 0
}

// FetchRelated implements transformer.Store.
func (s *Store) FetchRelated(ctx context.Context, rec *model.Record, accessor string) (transformer.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	def, ok := s.relations[rec.Type][accessor]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, rec.Type, accessor)
	}

	return &relation{store: s, owner: rec, def: def}, nil
}

type txKey struct{}

// RunAtomic implements transformer.Store. Every failed attempt restores the
// records present when RunAtomic started. Nested calls join the outer one.
func (s *Store) RunAtomic(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		return ErrInvalidAttempts
	}

	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	saved := s.snapshot()
	txCtx := context.WithValue(ctx, txKey{}, true)

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn(txCtx)
		if err == nil {
			return struct{}{}, nil
		}

		s.restore(saved)

		if ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(err)
		}

		return struct{}{}, err
	},
		backoff.WithBackOff(&backoff.ZeroBackOff{}),
		backoff.WithMaxTries(uint(attempts)),
	)

	return err
}

func (s *Store) snapshot() map[string]*table {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*table, len(s.tables))
	for typ, t := range s.tables {
		out[typ] = t.clone()
	}

	return out
}

func (s *Store) restore(saved map[string]*table) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables = make(map[string]*table, len(saved))
	for typ, t := range maps.All(saved) {
		s.tables[typ] = t.clone()
	}
}

// where must be called with s.mu held.
func (s *Store) where(typ string, match func(*model.Attributes) bool) []*model.Record {
	t := s.tables[typ]
	if t == nil {
		return nil
	}

	var out []*model.Record

	for _, id := range t.ids {
		if attrs := t.rows[id]; match(attrs) {
			out = append(out, model.Load(typ, id, attrs.Clone()))
		}
	}

	return out
}

type relation struct {
	store *Store
	owner *model.Record
	def   RelationDef
}

func (r *relation) TargetType() string {
	return r.def.Target
}

func (r *relation) Records(ctx context.Context) ([]*model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.where(r.def.Target, func(a *model.Attributes) bool {
		v, ok := a.Get(r.def.ForeignKey)
		return ok && v == r.owner.ID
	}), nil
}

func (r *relation) CreateChild(ctx context.Context, attrs *model.Attributes) (*model.Record, error) {
	linked := attrs.Clone()
	linked.Set(r.def.ForeignKey, r.owner.ID)

	return r.store.Create(ctx, r.def.Target, linked)
}
