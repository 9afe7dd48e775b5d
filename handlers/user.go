package handlers

import (
	"net/http"

	"blogapi/models"
	"blogapi/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), p.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Transform())
}

func (h *UserHandler) List(c *gin.Context) {
	var q PageQuery
	if !bindQuery(c, &q) {
		return
	}

	users, total, err := h.users.List(c.Request.Context(), q.pagination())
	if err != nil {
		fail(c, err)
		return
	}

	setTotal(c, total)
	c.JSON(http.StatusOK, models.TransformUsers(users))
}
