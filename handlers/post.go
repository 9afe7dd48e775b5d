package handlers

import (
	"net/http"

	"blogapi/models"
	"blogapi/services"

	"github.com/gin-gonic/gin"
)

type PostRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message"`
}

func (r PostRequest) fields() models.PostFields {
	return models.PostFields{Title: r.Title, Message: r.Message}
}

// PostPatchRequest carries the fields of a PATCH; absent fields are left alone.
type PostPatchRequest struct {
	Title   *string `json:"title" binding:"omitempty,min=1"`
	Message *string `json:"message"`
}

type listPostsQuery struct {
	PageQuery
	Title string `form:"title"`
}

type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

func (h *PostHandler) List(c *gin.Context) {
	var q listPostsQuery
	if !bindQuery(c, &q) {
		return
	}

	posts, total, err := h.posts.List(c.Request.Context(), services.PostFilter{Title: q.Title}, q.pagination())
	if err != nil {
		fail(c, err)
		return
	}

	setTotal(c, total)
	c.JSON(http.StatusOK, models.TransformPosts(posts))
}

func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("postId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post.Transform())
}

func (h *PostHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req PostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.posts.Create(c.Request.Context(), p, req.fields())
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Location", "/v1/posts/"+post.ID.Hex())
	c.JSON(http.StatusCreated, post.Transform())
}

func (h *PostHandler) Replace(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req PostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.posts.Replace(c.Request.Context(), p, c.Param("postId"), req.fields())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post.Transform())
}

func (h *PostHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req PostPatchRequest
	if !bindJSON(c, &req) {
		return
	}

	patch := models.PostPatch{Title: req.Title, Message: req.Message}
	post, err := h.posts.Update(c.Request.Context(), p, c.Param("postId"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post.Transform())
}

func (h *PostHandler) Remove(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.posts.Remove(c.Request.Context(), p, c.Param("postId")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
