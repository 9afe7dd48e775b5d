package services

import (
	"context"
	"testing"
	"time"

	"blogapi/apperr"
	"blogapi/authz"
	"blogapi/models"
	"blogapi/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func strPtr(s string) *string { return &s }

func TestCreatePostSetsCreator(t *testing.T) {
	f := newFixture(t)
	alice := newPrincipal()

	post := f.createPost(t, alice, "A")
	assert.False(t, post.ID.IsZero())
	assert.Equal(t, alice.ID, post.CreatedBy.Hex())
	assert.Equal(t, alice.ID, post.UpdatedBy.Hex())
	assert.True(t, post.Active)
	assert.False(t, post.Deleted)

	stored, err := f.postSvc.Get(context.Background(), post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, post.Transform(), stored.Transform())
}

func TestCreatePostValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.postSvc.Create(context.Background(), newPrincipal(), models.PostFields{Message: "no title"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.postSvc.Create(context.Background(), authz.Principal{ID: "not-an-id"}, models.PostFields{Title: "A"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	assert.Zero(t, f.count(t, f.posts, store.Filter{}))
}

func TestGetPostNotFound(t *testing.T) {
	f := newFixture(t)

	for _, id := range []string{"bogus", "", "zzzzzzzzzzzzzzzzzzzzzzzz", primitive.NewObjectID().Hex()} {
		_, err := f.postSvc.Get(context.Background(), id)
		assert.ErrorIs(t, err, apperr.ErrNotFound, "id %q", id)
	}
}

func TestSoftDeletedPostIsHidden(t *testing.T) {
	f := newFixture(t)
	alice := newPrincipal()

	hidden := models.NewPost(primitive.NewObjectID(), models.PostFields{Title: "gone"}, time.Now().UTC())
	hidden.Deleted = true
	id, err := f.posts.Insert(context.Background(), hidden)
	require.NoError(t, err)
	f.createPost(t, alice, "visible")

	_, err = f.postSvc.Get(context.Background(), id.Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	posts, total, err := f.postSvc.List(context.Background(), PostFilter{}, Pagination{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, posts, 1)
	assert.Equal(t, "visible", posts[0].Title)
}

func TestListPostsPagination(t *testing.T) {
	f := newFixture(t)
	alice := newPrincipal()

	for _, title := range []string{"p1", "p2", "p3", "p4", "p5"} {
		f.createPost(t, alice, title)
	}

	tests := []struct {
		name  string
		page  Pagination
		want  []string
		total int64
	}{
		{"defaults", Pagination{}, []string{"p5", "p4", "p3", "p2", "p1"}, 5},
		{"first page", Pagination{Page: 1, PerPage: 2}, []string{"p5", "p4"}, 5},
		{"second page", Pagination{Page: 2, PerPage: 2}, []string{"p3", "p2"}, 5},
		{"last partial page", Pagination{Page: 3, PerPage: 2}, []string{"p1"}, 5},
		{"past the end", Pagination{Page: 4, PerPage: 2}, []string{}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, total, err := f.postSvc.List(context.Background(), PostFilter{}, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)

			titles := []string{}
			for _, p := range posts {
				titles = append(titles, p.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestListPostsSameCreatedAt(t *testing.T) {
	f := newFixture(t)
	alice := newPrincipal()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.postSvc.now = func() time.Time { return fixed }

	a := f.createPost(t, alice, "a")
	b := f.createPost(t, alice, "b")

	posts, _, err := f.postSvc.List(context.Background(), PostFilter{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	// equal timestamps fall back to _id descending
	newer, older := a, b
	if b.ID.Hex() > a.ID.Hex() {
		newer, older = b, a
	}
	assert.Equal(t, newer.ID, posts[0].ID)
	assert.Equal(t, older.ID, posts[1].ID)
}

func TestListPostsByTitle(t *testing.T) {
	f := newFixture(t)
	alice := newPrincipal()
	f.createPost(t, alice, "go")
	f.createPost(t, alice, "rust")
	f.createPost(t, alice, "go")

	posts, total, err := f.postSvc.List(context.Background(), PostFilter{Title: "go"}, Pagination{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, p := range posts {
		assert.Equal(t, "go", p.Title)
	}
}

func TestListPostsStoreFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewPostService(&failingCollection{Collection: f.posts, fail: map[string]bool{"FindMany": true}}, f.comments, Options{Logger: quietLogger()})

	_, _, err := svc.List(context.Background(), PostFilter{}, Pagination{})
	assert.ErrorIs(t, err, apperr.ErrStore)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestUpdatePostKeepsCreator(t *testing.T) {
	f := newFixture(t)
	alice := newPrincipal()
	post := f.createPost(t, alice, "A")

	updated, err := f.postSvc.Update(context.Background(), alice, post.ID.Hex(), models.PostPatch{Title: strPtr("B")})
	require.NoError(t, err)

	assert.Equal(t, post.ID, updated.ID)
	assert.Equal(t, "B", updated.Title)
	assert.Equal(t, post.Message, updated.Message)
	assert.Equal(t, post.CreatedBy, updated.CreatedBy)
	assert.True(t, post.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(post.UpdatedAt))
	assert.True(t, updated.Active)
	assert.False(t, updated.Deleted)
}

func TestUpdatePostRejected(t *testing.T) {
	f := newFixture(t)
	alice, bob := newPrincipal(), newPrincipal()
	post := f.createPost(t, alice, "A")

	_, err := f.postSvc.Update(context.Background(), bob, post.ID.Hex(), models.PostPatch{Title: strPtr("B")})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.postSvc.Update(context.Background(), alice, post.ID.Hex(), models.PostPatch{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.postSvc.Update(context.Background(), alice, "nope", models.PostPatch{Title: strPtr("B")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	stored, err := f.postSvc.Get(context.Background(), post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "A", stored.Title)
}

func TestReplacePost(t *testing.T) {
	f := newFixture(t)
	alice, bob := newPrincipal(), newPrincipal()
	post := f.createPost(t, alice, "A")

	_, err := f.postSvc.Replace(context.Background(), bob, post.ID.Hex(), models.PostFields{Title: "B"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	replaced, err := f.postSvc.Replace(context.Background(), alice, post.ID.Hex(), models.PostFields{Title: "B"})
	require.NoError(t, err)
	assert.Equal(t, post.ID, replaced.ID)
	assert.Equal(t, "B", replaced.Title)
	assert.Empty(t, replaced.Message)
	assert.Equal(t, post.CreatedBy, replaced.CreatedBy)
	assert.True(t, post.CreatedAt.Equal(replaced.CreatedAt))
	assert.True(t, replaced.Active)
	assert.EqualValues(t, 1, f.count(t, f.posts, store.Filter{}))
}

func TestRemovePostCascades(t *testing.T) {
	f := newFixture(t)
	alice, bob := newPrincipal(), newPrincipal()
	post := f.createPost(t, alice, "A")
	other := f.createPost(t, bob, "B")

	f.createComment(t, alice, post.ID, "c1")
	f.createComment(t, bob, post.ID, "c2")
	kept := f.createComment(t, alice, other.ID, "c3")

	require.NoError(t, f.postSvc.Remove(context.Background(), alice, post.ID.Hex()))

	_, err := f.postSvc.Get(context.Background(), post.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Zero(t, f.count(t, f.comments, store.Filter{"postId": post.ID}))

	_, err = f.comSvc.Get(context.Background(), kept.ID.Hex())
	assert.NoError(t, err)
	_, err = f.postSvc.Get(context.Background(), other.ID.Hex())
	assert.NoError(t, err)
}

func TestRemovePostForbidden(t *testing.T) {
	f := newFixture(t)
	alice, bob := newPrincipal(), newPrincipal()
	post := f.createPost(t, alice, "A")
	f.createComment(t, bob, post.ID, "c1")

	err := f.postSvc.Remove(context.Background(), bob, post.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.postSvc.Get(context.Background(), post.ID.Hex())
	assert.NoError(t, err)
	assert.EqualValues(t, 1, f.count(t, f.comments, store.Filter{"postId": post.ID}))
}

func TestRemovePostCascadeFailureKeepsPost(t *testing.T) {
	f := newFixture(t)
	alice := newPrincipal()
	post := f.createPost(t, alice, "A")
	f.createComment(t, alice, post.ID, "c1")

	broken := &failingCollection{Collection: f.comments, fail: map[string]bool{"DeleteMany": true}}
	svc := NewPostService(f.posts, broken, Options{Logger: quietLogger()})

	err := svc.Remove(context.Background(), alice, post.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrStore)
	assert.ErrorIs(t, err, errStoreDown)

	_, err = f.postSvc.Get(context.Background(), post.ID.Hex())
	assert.NoError(t, err)
	assert.EqualValues(t, 1, f.count(t, f.comments, store.Filter{"postId": post.ID}))
}

func TestRemovePostSweepsLateComment(t *testing.T) {
	f := newFixture(t)
	alice, bob := newPrincipal(), newPrincipal()
	post := f.createPost(t, alice, "A")
	f.createComment(t, bob, post.ID, "early")

	author, err := primitive.ObjectIDFromHex(bob.ID)
	require.NoError(t, err)
	posts := &hookCollection{Collection: f.posts, beforeDelete: func() {
		late := models.NewComment(author, post.ID, models.CommentFields{Message: "late"}, time.Now().UTC())
		_, err := f.comments.Insert(context.Background(), late)
		require.NoError(t, err)
	}}
	svc := NewPostService(posts, f.comments, Options{Logger: quietLogger()})

	require.NoError(t, svc.Remove(context.Background(), alice, post.ID.Hex()))
	assert.Zero(t, f.count(t, f.comments, store.Filter{"postId": post.ID}))
}

func TestRemovePostTwice(t *testing.T) {
	f := newFixture(t)
	alice := newPrincipal()
	post := f.createPost(t, alice, "A")

	require.NoError(t, f.postSvc.Remove(context.Background(), alice, post.ID.Hex()))
	assert.ErrorIs(t, f.postSvc.Remove(context.Background(), alice, post.ID.Hex()), apperr.ErrNotFound)
}

func TestPaginationFindOptions(t *testing.T) {
	opts := Pagination{Page: 3, PerPage: 10}.findOptions()
	assert.EqualValues(t, 20, opts.Skip)
	assert.EqualValues(t, 10, opts.Limit)
	assert.Equal(t, "createdAt", opts.Sort[0].Field)
	assert.True(t, opts.Sort[0].Descending)
	assert.Equal(t, "_id", opts.Sort[1].Field)

	opts = Pagination{PerPage: 500}.findOptions()
	assert.EqualValues(t, 0, opts.Skip)
	assert.EqualValues(t, MaxPerPage, opts.Limit)
}
