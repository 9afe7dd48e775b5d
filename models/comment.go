package models

import (
	"strings"
	"time"

	"blogapi/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Message   string             `bson:"message" json:"message"`
	PostID    primitive.ObjectID `bson:"postId" json:"postId"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	UpdatedBy primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
	Active    bool               `bson:"active" json:"-"`
	Deleted   bool               `bson:"deleted" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type CommentFields struct {
	Message string
}

func (f CommentFields) Validate() error {
	if strings.TrimSpace(f.Message) == "" {
		return apperr.Validation("message is required")
	}
	return nil
}

// CommentPatch is a partial update; postId and createdBy are not patchable.
type CommentPatch struct {
	Message *string
}

func (p CommentPatch) Validate() error {
	if p.Message == nil {
		return apperr.Validation("nothing to update")
	}
	if strings.TrimSpace(*p.Message) == "" {
		return apperr.Validation("message must not be empty")
	}
	return nil
}

func (p CommentPatch) Set() bson.M {
	set := bson.M{}
	if p.Message != nil {
		set["message"] = *p.Message
	}
	return set
}

func NewComment(author, postID primitive.ObjectID, f CommentFields, now time.Time) Comment {
	return Comment{
		Message:   f.Message,
		PostID:    postID,
		CreatedBy: author,
		UpdatedBy: author,
		Active:    true,
		Deleted:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c Comment) Replaced(by primitive.ObjectID, f CommentFields, now time.Time) Comment {
	c.Message = f.Message
	c.UpdatedBy = by
	c.UpdatedAt = now
	return c
}

func (c Comment) Owner() string {
	return c.CreatedBy.Hex()
}

type CommentView struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	PostID    string    `json:"postId"`
	CreatedBy string    `json:"createdBy"`
	UpdatedBy string    `json:"updatedBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c Comment) Transform() CommentView {
	return CommentView{
		ID:        c.ID.Hex(),
		Message:   c.Message,
		PostID:    c.PostID.Hex(),
		CreatedBy: c.CreatedBy.Hex(),
		UpdatedBy: c.UpdatedBy.Hex(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func TransformComments(comments []Comment) []CommentView {
	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, c.Transform())
	}
	return views
}
