package services

import (
	"context"
	"errors"

	"blogapi/apperr"
	"blogapi/authz"
	"blogapi/models"
	"blogapi/store"

	"github.com/sirupsen/logrus"
)

const commentNotFound = "Comment not found"

// CommentFilter narrows a comment listing. Empty fields are ignored.
type CommentFilter struct {
	Message string
}

type CommentService struct {
	base
	comments store.Collection
	posts    store.Collection
}

func NewCommentService(comments, posts store.Collection, opts Options) *CommentService {
	return &CommentService{
		base:     newBase("comments", opts),
		comments: comments,
		posts:    posts,
	}
}

func (s *CommentService) Get(ctx context.Context, id string) (models.Comment, error) {
	oid, err := store.ParseID(id)
	if err != nil {
		return models.Comment{}, apperr.NotFound(commentNotFound)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var comment models.Comment
	if err := s.comments.FindOne(ctx, visible(store.Filter{"_id": oid}), &comment); err != nil {
		return models.Comment{}, lookupErr(err, "find comment", commentNotFound)
	}
	return comment, nil
}

// postExists fails with NotFound unless postID names a visible post.
func (s *CommentService) postExists(ctx context.Context, postID string) (models.Post, error) {
	oid, err := store.ParseID(postID)
	if err != nil {
		return models.Post{}, apperr.NotFound(postNotFound)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var post models.Post
	if err := s.posts.FindOne(ctx, visible(store.Filter{"_id": oid}), &post); err != nil {
		return models.Post{}, lookupErr(err, "find post", postNotFound)
	}
	return post, nil
}

// List returns one page of the comments on postID and the total number of
// matches.
func (s *CommentService) List(ctx context.Context, postID string, filter CommentFilter, page Pagination) ([]models.Comment, int64, error) {
	post, err := s.postExists(ctx, postID)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	f := store.Filter{"postId": post.ID}
	if filter.Message != "" {
		f["message"] = filter.Message
	}
	f = visible(f)

	comments := []models.Comment{}
	if err := s.comments.FindMany(ctx, f, page.findOptions(), &comments); err != nil {
		return nil, 0, apperr.Store("list comments", err)
	}
	total, err := s.comments.Count(ctx, f)
	if err != nil {
		return nil, 0, apperr.Store("count comments", err)
	}
	return comments, total, nil
}

// Create adds a comment to an existing post. Nothing is written when the
// post does not exist.
func (s *CommentService) Create(ctx context.Context, p authz.Principal, postID string, fields models.CommentFields) (models.Comment, error) {
	author, err := principalID(p)
	if err != nil {
		return models.Comment{}, err
	}
	if err := fields.Validate(); err != nil {
		return models.Comment{}, err
	}
	post, err := s.postExists(ctx, postID)
	if err != nil {
		return models.Comment{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	comment := models.NewComment(author, post.ID, fields, s.now())
	id, err := s.comments.Insert(ctx, comment)
	if err != nil {
		return models.Comment{}, apperr.Store("insert comment", err)
	}
	comment.ID = id

	// the post may have been removed between the check and the insert
	if _, err := s.postExists(ctx, postID); err != nil {
		if derr := s.comments.DeleteByID(ctx, id); derr != nil && !errors.Is(derr, store.ErrNotFound) {
			s.log.WithError(derr).WithField("commentId", id.Hex()).Error("drop comment on removed post")
		}
		return models.Comment{}, err
	}

	s.log.WithFields(logrus.Fields{"commentId": id.Hex(), "postId": post.ID.Hex()}).Info("comment created")
	return comment, nil
}

func (s *CommentService) Replace(ctx context.Context, p authz.Principal, id string, fields models.CommentFields) (models.Comment, error) {
	editor, err := principalID(p)
	if err != nil {
		return models.Comment{}, err
	}
	if err := fields.Validate(); err != nil {
		return models.Comment{}, err
	}
	comment, err := s.Get(ctx, id)
	if err != nil {
		return models.Comment{}, err
	}
	if err := authz.RequireOwner(p, comment); err != nil {
		return models.Comment{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var saved models.Comment
	next := comment.Replaced(editor, fields, s.now())
	if err := s.comments.UpdateByID(ctx, comment.ID, next, store.UpdateOptions{Override: true}, &saved); err != nil {
		return models.Comment{}, lookupErr(err, "replace comment", commentNotFound)
	}
	return saved, nil
}

func (s *CommentService) Update(ctx context.Context, p authz.Principal, id string, patch models.CommentPatch) (models.Comment, error) {
	editor, err := principalID(p)
	if err != nil {
		return models.Comment{}, err
	}
	if err := patch.Validate(); err != nil {
		return models.Comment{}, err
	}
	comment, err := s.Get(ctx, id)
	if err != nil {
		return models.Comment{}, err
	}
	if err := authz.RequireOwner(p, comment); err != nil {
		return models.Comment{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	set := patch.Set()
	set["updatedBy"] = editor
	set["updatedAt"] = s.now()

	var saved models.Comment
	if err := s.comments.UpdateByID(ctx, comment.ID, set, store.UpdateOptions{}, &saved); err != nil {
		return models.Comment{}, lookupErr(err, "update comment", commentNotFound)
	}
	return saved, nil
}

func (s *CommentService) Remove(ctx context.Context, p authz.Principal, id string) error {
	comment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.RequireOwner(p, comment); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.comments.DeleteByID(ctx, comment.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(commentNotFound)
		}
		return apperr.Store("delete comment", err)
	}
	return nil
}
