package transformer

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownDefinition   = errors.New("unknown transformer definition")
	ErrDuplicateDefinition = errors.New("transformer definition already registered")
	ErrInvalidDefinition   = errors.New("invalid transformer definition")
	ErrNoStore             = errors.New("no store configured")
	ErrMaxDepth            = errors.New("maximum relation depth exceeded")
	ErrNotUpdated          = errors.New("record was not updated")
	ErrProjected           = errors.New("collection was projected to records")
	ErrUnknownOp           = errors.New("unknown collection operation")
	ErrOpArgs              = errors.New("invalid collection operation arguments")
)

// Persistence operations reported in PersistenceError.Op.
const (
	OpCreate        = "create"
	OpUpdate        = "update"
	OpFetchRelated  = "fetch_related"
	OpRelatedRecord = "related_records"
)

// PersistenceError reports a store failure for one record.
type PersistenceError struct {
	// Type is the record type.
	Type string
	// Op is the failed store operation.
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Type, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// TransactionError reports an atomic dispatch that failed on every attempt.
type TransactionError struct {
	Attempts int
	Err      error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
