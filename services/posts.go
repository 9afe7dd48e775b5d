package services

import (
	"context"
	"errors"

	"blogapi/apperr"
	"blogapi/authz"
	"blogapi/models"
	"blogapi/store"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const postNotFound = "Post not found"

// PostFilter narrows a post listing. Empty fields are ignored.
type PostFilter struct {
	Title string
}

type PostService struct {
	base
	posts    store.Collection
	comments store.Collection
}

func NewPostService(posts, comments store.Collection, opts Options) *PostService {
	return &PostService{
		base:     newBase("posts", opts),
		posts:    posts,
		comments: comments,
	}
}

func (s *PostService) Get(ctx context.Context, id string) (models.Post, error) {
	oid, err := store.ParseID(id)
	if err != nil {
		return models.Post{}, apperr.NotFound(postNotFound)
	}
	return s.load(ctx, oid)
}

func (s *PostService) load(ctx context.Context, id primitive.ObjectID) (models.Post, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var post models.Post
	if err := s.posts.FindOne(ctx, visible(store.Filter{"_id": id}), &post); err != nil {
		return models.Post{}, lookupErr(err, "find post", postNotFound)
	}
	return post, nil
}

// List returns one page of posts and the total number of matches.
func (s *PostService) List(ctx context.Context, filter PostFilter, page Pagination) ([]models.Post, int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	f := store.Filter{}
	if filter.Title != "" {
		f["title"] = filter.Title
	}
	f = visible(f)

	posts := []models.Post{}
	if err := s.posts.FindMany(ctx, f, page.findOptions(), &posts); err != nil {
		return nil, 0, apperr.Store("list posts", err)
	}
	total, err := s.posts.Count(ctx, f)
	if err != nil {
		return nil, 0, apperr.Store("count posts", err)
	}
	return posts, total, nil
}

func (s *PostService) Create(ctx context.Context, p authz.Principal, fields models.PostFields) (models.Post, error) {
	author, err := principalID(p)
	if err != nil {
		return models.Post{}, err
	}
	if err := fields.Validate(); err != nil {
		return models.Post{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	post := models.NewPost(author, fields, s.now())
	id, err := s.posts.Insert(ctx, post)
	if err != nil {
		return models.Post{}, apperr.Store("insert post", err)
	}
	post.ID = id

	s.log.WithFields(logrus.Fields{"postId": id.Hex(), "userId": p.ID}).Info("post created")
	return post, nil
}

// Replace overwrites every writable field. Identity, creator and creation
// time are kept.
func (s *PostService) Replace(ctx context.Context, p authz.Principal, id string, fields models.PostFields) (models.Post, error) {
	editor, err := principalID(p)
	if err != nil {
		return models.Post{}, err
	}
	if err := fields.Validate(); err != nil {
		return models.Post{}, err
	}
	post, err := s.Get(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	if err := authz.RequireOwner(p, post); err != nil {
		return models.Post{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var saved models.Post
	next := post.Replaced(editor, fields, s.now())
	if err := s.posts.UpdateByID(ctx, post.ID, next, store.UpdateOptions{Override: true}, &saved); err != nil {
		return models.Post{}, lookupErr(err, "replace post", postNotFound)
	}
	return saved, nil
}

// Update merges the patched fields into the stored post.
func (s *PostService) Update(ctx context.Context, p authz.Principal, id string, patch models.PostPatch) (models.Post, error) {
	editor, err := principalID(p)
	if err != nil {
		return models.Post{}, err
	}
	if err := patch.Validate(); err != nil {
		return models.Post{}, err
	}
	post, err := s.Get(ctx, id)
	if err != nil {
		return models.Post{}, err
	}
	if err := authz.RequireOwner(p, post); err != nil {
		return models.Post{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	set := patch.Set()
	set["updatedBy"] = editor
	set["updatedAt"] = s.now()

	var saved models.Post
	if err := s.posts.UpdateByID(ctx, post.ID, set, store.UpdateOptions{}, &saved); err != nil {
		return models.Post{}, lookupErr(err, "update post", postNotFound)
	}
	return saved, nil
}

// Remove deletes the post's comments and then the post. When the comments
// cannot be deleted the post is left in place.
func (s *PostService) Remove(ctx context.Context, p authz.Principal, id string) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.RequireOwner(p, post); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.comments.DeleteMany(ctx, store.Filter{"postId": post.ID})
	if err != nil {
		s.log.WithError(err).WithField("postId", post.ID.Hex()).Error("cascade delete of comments failed")
		return apperr.Store("delete comments", err)
	}
	if err := s.posts.DeleteByID(ctx, post.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(postNotFound)
		}
		return apperr.Store("delete post", err)
	}
	// a comment whose insert raced the first sweep is gone after this one
	late, err := s.comments.DeleteMany(ctx, store.Filter{"postId": post.ID})
	if err != nil {
		s.log.WithError(err).WithField("postId", post.ID.Hex()).Warn("second comment sweep failed")
	}
	n += late

	s.log.WithFields(logrus.Fields{"postId": post.ID.Hex(), "comments": n}).Info("post removed")
	return nil
}
