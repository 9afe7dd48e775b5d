package models

import (
	"strings"
	"time"

	"blogapi/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	UpdatedBy primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
	Active    bool               `bson:"active" json:"-"`
	Deleted   bool               `bson:"deleted" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PostFields are the fields a client may write on create and replace.
type PostFields struct {
	Title   string
	Message string
}

func (f PostFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return apperr.Validation("title is required")
	}
	return nil
}

// PostPatch is a partial update. Only title and message can be touched.
type PostPatch struct {
	Title   *string
	Message *string
}

func (p PostPatch) Validate() error {
	if p.Title == nil && p.Message == nil {
		return apperr.Validation("nothing to update")
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return apperr.Validation("title must not be empty")
	}
	return nil
}

// Set returns the $set document for the patch.
func (p PostPatch) Set() bson.M {
	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Message != nil {
		set["message"] = *p.Message
	}
	return set
}

// NewPost builds an unsaved post owned by author.
func NewPost(author primitive.ObjectID, f PostFields, now time.Time) Post {
	return Post{
		Title:     f.Title,
		Message:   f.Message,
		CreatedBy: author,
		UpdatedBy: author,
		Active:    true,
		Deleted:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Replaced returns p with its writable fields overwritten by f.
func (p Post) Replaced(by primitive.ObjectID, f PostFields, now time.Time) Post {
	p.Title = f.Title
	p.Message = f.Message
	p.UpdatedBy = by
	p.UpdatedAt = now
	return p
}

// Owner returns the hex id of the creating principal.
func (p Post) Owner() string {
	return p.CreatedBy.Hex()
}

// PostView is the API representation of a post.
type PostView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedBy string    `json:"createdBy"`
	UpdatedBy string    `json:"updatedBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p Post) Transform() PostView {
	return PostView{
		ID:        p.ID.Hex(),
		Title:     p.Title,
		Message:   p.Message,
		CreatedBy: p.CreatedBy.Hex(),
		UpdatedBy: p.UpdatedBy.Hex(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func TransformPosts(posts []Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, p.Transform())
	}
	return views
}
