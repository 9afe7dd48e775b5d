package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"blogapi/apperr"
	"blogapi/authz"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "principal"

type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for p that expires after ttl.
func IssueToken(secret string, p authz.Principal, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID: p.ID,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// JWTAuth requires a valid bearer token and stores the principal it names in
// the context.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// CORS preflight carries no credentials
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperr.Unauthorized("No authorization token provided"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abortWithError(c, apperr.Unauthorized("Format should be: Bearer <token>"))
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.UserID == "" {
			requestLogger(c).WithError(err).Debug("token rejected")
			abortWithError(c, apperr.Unauthorized("Token validation failed"))
			return
		}

		c.Set(principalKey, authz.Principal{ID: claims.UserID, Role: claims.Role})
		c.Set("userId", claims.UserID)
		c.Next()
	}
}

// RoleSource reports the role a user holds right now.
type RoleSource interface {
	CurrentRole(ctx context.Context, userID string) (string, error)
}

// RequireRole lets the request through only when the principal has one of
// roles. With a non-nil src the role is read from src instead of the token,
// so a demotion takes effect before the token expires. It must run after
// JWTAuth.
func RequireRole(src RoleSource, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			abortWithError(c, apperr.Unauthorized("Authentication required"))
			return
		}
		if src != nil {
			role, err := src.CurrentRole(c.Request.Context(), p.ID)
			if err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					err = apperr.Unauthorized("Account no longer exists")
				}
				abortWithError(c, err)
				return
			}
			p.Role = role
			c.Set(principalKey, p)
		}
		if !authz.HasRole(p, roles...) {
			abortWithError(c, apperr.Forbidden("You are not allowed to perform this action"))
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal JWTAuth stored in c.
func PrincipalFrom(c *gin.Context) (authz.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return authz.Principal{}, false
	}
	p, ok := v.(authz.Principal)
	return p, ok
}
