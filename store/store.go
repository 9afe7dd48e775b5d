// Package store is the document store contract used by the resource services,
// with a MongoDB implementation and an in-memory one.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateKey is returned when a unique index is violated.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidID is returned by ParseID for malformed identifiers.
	ErrInvalidID = errors.New("invalid identifier")
)

// Filter is an equality filter on top-level document fields.
type Filter map[string]any

// SortField orders results by one field.
type SortField struct {
	Field      string
	Descending bool
}

// FindOptions controls ordering and offset pagination of FindMany.
type FindOptions struct {
	Sort  []SortField
	Skip  int64
	Limit int64
}

// UpdateOptions controls UpdateByID. Override replaces the whole document
// instead of merging fields; Upsert inserts when nothing matches.
type UpdateOptions struct {
	Override bool
	Upsert   bool
}

// Collection is one named collection of documents. Documents are any values
// the bson codec can marshal; out arguments are pointers to decode into.
type Collection interface {
	Name() string
	Insert(ctx context.Context, doc any) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID, out any) error
	FindOne(ctx context.Context, filter Filter, out any) error
	FindMany(ctx context.Context, filter Filter, opts FindOptions, out any) error
	UpdateByID(ctx context.Context, id primitive.ObjectID, fields any, opts UpdateOptions, out any) error
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	DeleteMany(ctx context.Context, filter Filter) (int64, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}

// ParseID validates a hex ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}
