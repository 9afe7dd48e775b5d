package handlers

import (
	"net/http"

	"blogapi/models"
	"blogapi/services"

	"github.com/gin-gonic/gin"
)

type CommentRequest struct {
	Message string `json:"message" binding:"required"`
}

type CommentPatchRequest struct {
	Message *string `json:"message" binding:"omitempty,min=1"`
}

type listCommentsQuery struct {
	PageQuery
	Message string `form:"message"`
}

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// ListForPost serves GET /posts/:postId/comments.
func (h *CommentHandler) ListForPost(c *gin.Context) {
	var q listCommentsQuery
	if !bindQuery(c, &q) {
		return
	}

	comments, total, err := h.comments.List(c.Request.Context(), c.Param("postId"),
		services.CommentFilter{Message: q.Message}, q.pagination())
	if err != nil {
		fail(c, err)
		return
	}

	setTotal(c, total)
	c.JSON(http.StatusOK, models.TransformComments(comments))
}

// CreateForPost serves POST /posts/:postId/comments.
func (h *CommentHandler) CreateForPost(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), p, c.Param("postId"), models.CommentFields{Message: req.Message})
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Location", "/v1/comments/"+comment.ID.Hex())
	c.JSON(http.StatusCreated, comment.Transform())
}

func (h *CommentHandler) Get(c *gin.Context) {
	comment, err := h.comments.Get(c.Request.Context(), c.Param("commentId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment.Transform())
}

func (h *CommentHandler) Replace(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.Replace(c.Request.Context(), p, c.Param("commentId"), models.CommentFields{Message: req.Message})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment.Transform())
}

func (h *CommentHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req CommentPatchRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), p, c.Param("commentId"), models.CommentPatch{Message: req.Message})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment.Transform())
}

func (h *CommentHandler) Remove(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.comments.Remove(c.Request.Context(), p, c.Param("commentId")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
