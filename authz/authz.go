// Package authz decides whether a principal may act on a resource.
package authz

import (
	"strings"

	"blogapi/apperr"
	"blogapi/models"
)

// Principal is the authenticated actor of a request.
type Principal struct {
	ID   string
	Role string
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Owned is implemented by resources that record their creator.
type Owned interface {
	Owner() string
}

// IsOwner reports whether p created r. Identifiers are compared in
// normalized string form so hex ids from tokens and documents agree.
func IsOwner(p Principal, r Owned) bool {
	id := normalize(p.ID)
	return id != "" && id == normalize(r.Owner())
}

// RequireOwner returns a Forbidden error unless p owns r.
func RequireOwner(p Principal, r Owned) error {
	if !IsOwner(p, r) {
		return apperr.Forbidden("You are not allowed to perform this action")
	}
	return nil
}

// HasRole reports whether p has one of roles. An empty list allows any
// authenticated principal.
func HasRole(p Principal, roles ...string) bool {
	if p.ID == "" {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
