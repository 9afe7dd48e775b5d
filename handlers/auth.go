package handlers

import (
	"net/http"
	"time"

	"blogapi/authz"
	"blogapi/middleware"
	"blogapi/models"
	"blogapi/services"

	"github.com/gin-gonic/gin"
)

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      models.UserView `json:"user"`
}

type AuthHandler struct {
	users  *services.UserService
	secret string
	ttl    time.Duration
}

func NewAuthHandler(users *services.UserService, secret string, ttl time.Duration) *AuthHandler {
	return &AuthHandler{users: users, secret: secret, ttl: ttl}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.Registration{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		fail(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user models.User) {
	token, expiresAt, err := middleware.IssueToken(h.secret, authz.Principal{ID: user.ID.Hex(), Role: user.Role}, h.ttl)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, tokenResponse{Token: token, ExpiresAt: expiresAt, User: user.Transform()})
}
