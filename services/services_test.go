package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"blogapi/authz"
	"blogapi/models"
	"blogapi/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// clock hands out strictly increasing timestamps.
type clock struct {
	t time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// failingCollection wraps a collection and fails the operations named in fail.
type failingCollection struct {
	store.Collection
	fail map[string]bool
}

var errStoreDown = errors.New("store unavailable")

func (f *failingCollection) DeleteMany(ctx context.Context, filter store.Filter) (int64, error) {
	if f.fail["DeleteMany"] {
		return 0, errStoreDown
	}
	return f.Collection.DeleteMany(ctx, filter)
}

func (f *failingCollection) FindMany(ctx context.Context, filter store.Filter, opts store.FindOptions, out any) error {
	if f.fail["FindMany"] {
		return errStoreDown
	}
	return f.Collection.FindMany(ctx, filter, opts, out)
}

// hookCollection runs a callback around selected operations to interleave
// a second writer.
type hookCollection struct {
	store.Collection
	beforeDelete func()
	afterInsert  func()
}

func (h *hookCollection) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	if h.beforeDelete != nil {
		h.beforeDelete()
	}
	return h.Collection.DeleteByID(ctx, id)
}

func (h *hookCollection) Insert(ctx context.Context, doc any) (primitive.ObjectID, error) {
	id, err := h.Collection.Insert(ctx, doc)
	if err == nil && h.afterInsert != nil {
		h.afterInsert()
	}
	return id, err
}

type fixture struct {
	posts    *store.MemoryCollection
	comments *store.MemoryCollection
	users    *store.MemoryCollection
	postSvc  *PostService
	comSvc   *CommentService
	userSvc  *UserService
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		posts:    store.NewMemoryCollection("posts"),
		comments: store.NewMemoryCollection("comments"),
		users:    store.NewMemoryCollection("users", "email"),
	}
	opts := Options{Logger: quietLogger(), Timeout: time.Second}
	c := newClock()

	f.postSvc = NewPostService(f.posts, f.comments, opts)
	f.postSvc.now = c.now
	f.comSvc = NewCommentService(f.comments, f.posts, opts)
	f.comSvc.now = c.now
	f.userSvc = NewUserService(f.users, opts)
	f.userSvc.now = c.now
	return f
}

func newPrincipal() authz.Principal {
	return authz.Principal{ID: primitive.NewObjectID().Hex(), Role: models.RoleUser}
}

func (f *fixture) createPost(t *testing.T, p authz.Principal, title string) models.Post {
	t.Helper()
	post, err := f.postSvc.Create(context.Background(), p, models.PostFields{Title: title, Message: "body of " + title})
	require.NoError(t, err)
	return post
}

func (f *fixture) createComment(t *testing.T, p authz.Principal, postID primitive.ObjectID, msg string) models.Comment {
	t.Helper()
	comment, err := f.comSvc.Create(context.Background(), p, postID.Hex(), models.CommentFields{Message: msg})
	require.NoError(t, err)
	return comment
}

func (f *fixture) count(t *testing.T, c store.Collection, filter store.Filter) int64 {
	t.Helper()
	n, err := c.Count(context.Background(), filter)
	require.NoError(t, err)
	return n
}
