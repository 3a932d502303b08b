// Package sqlite provides a SQLite-backed transformer.Store.
//
// Records of every type share one table; their attributes are stored as a
// JSON object in field order. Relations are one-to-many: related records
// carry the owner's ID in a foreign key attribute.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"transformer/internal/model"
	"transformer/internal/storage/sqlite/migrations"
	"transformer/internal/transformer"
)

var (
	ErrPathRequired    = errors.New("storage path is required")
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateID     = errors.New("record id already exists")
	ErrUnknownRelation = errors.New("unknown relation")
	ErrInvalidAttempts = errors.New("attempts must be positive")
)

// RelationDef declares a one-to-many relation: records of Target whose
// ForeignKey attribute holds the owner's ID.
type RelationDef struct {
	Target     string
	ForeignKey string
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists records in SQLite.
type Store struct {
	db    *sql.DB
	newID func() string
	now   func() time.Time

	mu        sync.RWMutex
	relations map[string]map[string]RelationDef
}

// Option configures a Store.
type Option func(*Store)

// WithIDs sets the record ID generator. The default generates UUIDs.
func WithIDs(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// Open opens a SQLite store at path and applies the embedded migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{
		db:        db,
		newID:     uuid.NewString,
		now:       time.Now,
		relations: make(map[string]map[string]RelationDef),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
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
	raw, err := encodeAttrs(attrs)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	now := s.now().UTC().UnixMilli()

	_, err = s.conn(ctx).ExecContext(ctx,
		`INSERT INTO records (type, id, attrs, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		typ, id, raw, now, now,
	)
	if err != nil {
		if isConstraint(err) {
			return nil, fmt.Errorf("%w: %s %s", ErrDuplicateID, typ, id)
		}

		return nil, fmt.Errorf("insert %s: %w", typ, err)
	}

	return model.Load(typ, id, attrs.Clone()), nil
}

// Update implements transformer.Store. attrs are merged into the stored
// attributes; unknown records report false.
func (s *Store) Update(ctx context.Context, rec *model.Record, attrs *model.Attributes) (bool, error) {
	q := s.conn(ctx)

	stored, err := s.load(ctx, q, rec.Type, rec.ID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	merged := stored.Attributes()
	merged.Merge(attrs)

	raw, err := encodeAttrs(merged)
	if err != nil {
		return false, err
	}

	res, err := q.ExecContext(ctx,
		`UPDATE records SET attrs = ?, updated_at = ? WHERE type = ? AND id = ?`,
		raw, s.now().UTC().UnixMilli(), rec.Type, rec.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update %s %s: %w", rec.Type, rec.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update %s %s: %w", rec.Type, rec.ID, err)
	}

	return n > 0, nil
}

// Get returns a stored record.
func (s *Store) Get(ctx context.Context, typ, id string) (*model.Record, error) {
	return s.load(ctx, s.conn(ctx), typ, id)
}

// All returns the records of typ in creation order.
func (s *Store) All(ctx context.Context, typ string) ([]*model.Record, error) {
	return s.query(ctx, typ,
		`SELECT id, attrs FROM records WHERE type = ? ORDER BY rowid`, typ)
}

// Count returns the number of records of typ.
func (s *Store) Count(ctx context.Context, typ string) (int, error) {
	var n int

	err := s.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE type = ?`, typ).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", typ, err)
	}

	return n, nil
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

// RunAtomic implements transformer.Store. Each attempt runs in its own
// transaction, rolled back on failure. Nested calls join the outer one.
func (s *Store) RunAtomic(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		return ErrInvalidAttempts
	}

	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := s.attempt(ctx, fn)
		if err != nil && ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(err)
		}

		return struct{}{}, err
	},
		backoff.WithBackOff(&backoff.ZeroBackOff{}),
		backoff.WithMaxTries(uint(attempts)),
	)

	return err
}

func (s *Store) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// conn returns the transaction carried by ctx, or the database.
func (s *Store) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}

	return s.db
}

func (s *Store) load(ctx context.Context, q querier, typ, id string) (*model.Record, error) {
	var raw string

	err := q.QueryRowContext(ctx, `SELECT attrs FROM records WHERE type = ? AND id = ?`, typ, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, typ, id)
	}

	if err != nil {
		return nil, fmt.Errorf("select %s %s: %w", typ, id, err)
	}

	attrs, err := decodeAttrs(raw)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", typ, id, err)
	}

	return model.Load(typ, id, attrs), nil
}

func (s *Store) query(ctx context.Context, typ, query string, args ...any) ([]*model.Record, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", typ, err)
	}
	defer rows.Close()

	var out []*model.Record

	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", typ, err)
		}

		attrs, err := decodeAttrs(raw)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", typ, id, err)
		}

		out = append(out, model.Load(typ, id, attrs))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", typ, err)
	}

	return out, nil
}

func encodeAttrs(attrs *model.Attributes) (string, error) {
	if attrs == nil {
		return "{}", nil
	}

	raw, err := attrs.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode attributes: %w", err)
	}

	return string(raw), nil
}

func decodeAttrs(raw string) (*model.Attributes, error) {
	attrs := model.NewAttributes()
	if err := attrs.UnmarshalJSON([]byte(raw)); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}

	return attrs, nil
}

func isConstraint(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}

	return false
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
	return r.store.query(ctx, r.def.Target,
		`SELECT id, attrs FROM records
		 WHERE type = ? AND json_extract(attrs, '$."' || ? || '"') = ?
		 ORDER BY rowid`,
		r.def.Target, r.def.ForeignKey, r.owner.ID,
	)
}

func (r *relation) CreateChild(ctx context.Context, attrs *model.Attributes) (*model.Record, error) {
	linked := attrs.Clone()
	linked.Set(r.def.ForeignKey, r.owner.ID)

	return r.store.Create(ctx, r.def.Target, linked)
}
