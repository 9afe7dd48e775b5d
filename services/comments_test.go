package services

import (
	"context"
	"testing"

	"blogapi/apperr"
	"blogapi/models"
	"blogapi/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateCommentOnMissingPost(t *testing.T) {
	f := newFixture(t)
	alice := newPrincipal()

	for _, postID := range []string{primitive.NewObjectID().Hex(), "bad-id"} {
		_, err := f.comSvc.Create(context.Background(), alice, postID, models.CommentFields{Message: "hi"})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	}
	assert.Zero(t, f.count(t, f.comments, store.Filter{}))
}

func TestCreateCommentOnPostRemovedMeanwhile(t *testing.T) {
	f := newFixture(t)
	alice := newPrincipal()
	post := f.createPost(t, alice, "A")

	comments := &hookCollection{Collection: f.comments, afterInsert: func() {
		require.NoError(t, f.posts.DeleteByID(context.Background(), post.ID))
	}}
	svc := NewCommentService(comments, f.posts, Options{Logger: quietLogger()})

	_, err := svc.Create(context.Background(), alice, post.ID.Hex(), models.CommentFields{Message: "hi"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Zero(t, f.count(t, f.comments, store.Filter{}))
}

func TestCreateComment(t *testing.T) {
	f := newFixture(t)
	alice, bob := newPrincipal(), newPrincipal()
	post := f.createPost(t, alice, "A")

	comment := f.createComment(t, bob, post.ID, "nice")
	assert.Equal(t, post.ID, comment.PostID)
	assert.Equal(t, bob.ID, comment.CreatedBy.Hex())
	assert.True(t, comment.Active)

	_, err := f.comSvc.Create(context.Background(), bob, post.ID.Hex(), models.CommentFields{Message: "  "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.EqualValues(t, 1, f.count(t, f.comments, store.Filter{}))
}

func TestListCommentsScopedToPost(t *testing.T) {
	f := newFixture(t)
	alice := newPrincipal()
	p1 := f.createPost(t, alice, "one")
	p2 := f.createPost(t, alice, "two")

	f.createComment(t, alice, p1.ID, "a")
	f.createComment(t, alice, p1.ID, "b")
	f.createComment(t, alice, p1.ID, "a")
	f.createComment(t, alice, p2.ID, "x")

	comments, total, err := f.comSvc.List(context.Background(), p1.ID.Hex(), CommentFilter{}, Pagination{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, comments, 3)
	assert.Equal(t, "a", comments[0].Message)
	assert.Equal(t, "b", comments[1].Message)
	for _, c := range comments {
		assert.Equal(t, p1.ID, c.PostID)
	}

	comments, total, err = f.comSvc.List(context.Background(), p1.ID.Hex(), CommentFilter{Message: "a"}, Pagination{PerPage: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, comments, 1)

	_, _, err = f.comSvc.List(context.Background(), primitive.NewObjectID().Hex(), CommentFilter{}, Pagination{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateCommentOwnership(t *testing.T) {
	f := newFixture(t)
	alice, bob := newPrincipal(), newPrincipal()
	post := f.createPost(t, alice, "A")
	comment := f.createComment(t, bob, post.ID, "first")

	// owning the post does not grant rights on its comments
	_, err := f.comSvc.Update(context.Background(), alice, comment.ID.Hex(), models.CommentPatch{Message: strPtr("hijack")})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	updated, err := f.comSvc.Update(context.Background(), bob, comment.ID.Hex(), models.CommentPatch{Message: strPtr("edited")})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Message)
	assert.Equal(t, comment.CreatedBy, updated.CreatedBy)
	assert.Equal(t, post.ID, updated.PostID)
	assert.True(t, comment.CreatedAt.Equal(updated.CreatedAt))
}

func TestReplaceComment(t *testing.T) {
	f := newFixture(t)
	alice := newPrincipal()
	post := f.createPost(t, alice, "A")
	comment := f.createComment(t, alice, post.ID, "first")

	_, err := f.comSvc.Replace(context.Background(), alice, comment.ID.Hex(), models.CommentFields{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	replaced, err := f.comSvc.Replace(context.Background(), alice, comment.ID.Hex(), models.CommentFields{Message: "second"})
	require.NoError(t, err)
	assert.Equal(t, comment.ID, replaced.ID)
	assert.Equal(t, "second", replaced.Message)
	assert.Equal(t, post.ID, replaced.PostID)
	assert.Equal(t, comment.CreatedBy, replaced.CreatedBy)
}

func TestRemoveComment(t *testing.T) {
	f := newFixture(t)
	alice, bob := newPrincipal(), newPrincipal()
	post := f.createPost(t, alice, "A")
	comment := f.createComment(t, bob, post.ID, "c")

	assert.ErrorIs(t, f.comSvc.Remove(context.Background(), alice, comment.ID.Hex()), apperr.ErrForbidden)
	assert.EqualValues(t, 1, f.count(t, f.comments, store.Filter{}))

	require.NoError(t, f.comSvc.Remove(context.Background(), bob, comment.ID.Hex()))
	_, err := f.comSvc.Get(context.Background(), comment.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// the post is untouched
	_, err = f.postSvc.Get(context.Background(), post.ID.Hex())
	assert.NoError(t, err)
}
