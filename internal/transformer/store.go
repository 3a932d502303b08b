package transformer

import (
	"context"

	"transformer/internal/model"
)

// Store persists records. Implementations must be safe for concurrent use.
type Store interface {
	// Create persists a new record of type typ.
	Create(ctx context.Context, typ string, attrs *model.Attributes) (*model.Record, error)
	// Update writes attrs to an existing record. It reports false when
	// nothing was updated.
	Update(ctx context.Context, rec *model.Record, attrs *model.Attributes) (bool, error)
	// FetchRelated returns the relation of rec named accessor.
	FetchRelated(ctx context.Context, rec *model.Record, accessor string) (Relation, error)
	// RunAtomic runs fn in a transaction, retrying it up to attempts times.
	// Changes of failed attempts are rolled back.
	RunAtomic(ctx context.Context, attempts int, fn func(ctx context.Context) error) error
}

// Relation describes the records reachable from one record through an accessor.
type Relation interface {
	// TargetType is the type of the related records.
	TargetType() string
	// Records lists the related records.
	Records(ctx context.Context) ([]*model.Record, error)
	// CreateChild persists a new related record linked to the owner.
	CreateChild(ctx context.Context, attrs *model.Attributes) (*model.Record, error)
}

// RelationSchema is implemented by stores that are told their relations
// instead of discovering them.
type RelationSchema interface {
	DefineRelation(owner, accessor, target, foreignKey string)
}
