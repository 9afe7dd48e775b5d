// Package services holds the post, comment and user resources. Each resource
// owns its collection, checks ownership before mutating and returns apperr
// errors that the HTTP layer maps to status codes.
package services

import (
	"context"
	"errors"
	"time"

	"blogapi/apperr"
	"blogapi/authz"
	"blogapi/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 30
	MaxPerPage     = 100

	defaultTimeout = 10 * time.Second
)

// Pagination selects one page of a listing. Zero values fall back to the
// defaults; range checks happen at the HTTP boundary.
type Pagination struct {
	Page    int
	PerPage int
}

func (p Pagination) normalize() Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// findOptions sorts newest first with _id as tie-break so pages are stable.
func (p Pagination) findOptions() store.FindOptions {
	p = p.normalize()
	return store.FindOptions{
		Sort: []store.SortField{
			{Field: "createdAt", Descending: true},
			{Field: "_id", Descending: true},
		},
		Skip:  int64(p.Page-1) * int64(p.PerPage),
		Limit: int64(p.PerPage),
	}
}

// Options are shared by every resource.
type Options struct {
	Logger  *logrus.Logger
	Timeout time.Duration
}

type base struct {
	log     *logrus.Entry
	timeout time.Duration
	now     func() time.Time
}

func newBase(component string, opts Options) base {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return base{
		log:     logger.WithField("component", component),
		timeout: timeout,
		now:     utcNow,
	}
}

func (b base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// Mongo stores milliseconds; truncating keeps returned values equal to what
// a later read decodes.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func principalID(p authz.Principal) (primitive.ObjectID, error) {
	id, err := store.ParseID(p.ID)
	if err != nil {
		return primitive.NilObjectID, apperr.Unauthorized("invalid principal")
	}
	return id, nil
}

// lookupErr converts a failed single-document read into NotFound or Store.
func lookupErr(err error, op, notFound string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("%s", notFound)
	}
	return apperr.Store(op, err)
}

// visible restricts reads to documents that were not soft-deleted.
func visible(f store.Filter) store.Filter {
	out := store.Filter{"deleted": false}
	for k, v := range f {
		out[k] = v
	}
	return out
}
