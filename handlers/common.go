package handlers

import (
	"strconv"

	"blogapi/apperr"
	"blogapi/authz"
	"blogapi/middleware"
	"blogapi/services"

	"github.com/gin-gonic/gin"
)

const totalCountHeader = "X-Total-Count"

// PageQuery is the pagination part of every listing query string.
type PageQuery struct {
	Page    *int `form:"page" binding:"omitempty,min=1"`
	PerPage *int `form:"perPage" binding:"omitempty,min=1,max=100"`
}

func (q PageQuery) pagination() services.Pagination {
	p := services.Pagination{}
	if q.Page != nil {
		p.Page = *q.Page
	}
	if q.PerPage != nil {
		p.PerPage = *q.PerPage
	}
	return p
}

// fail hands err to the error middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		fail(c, apperr.Validation("%s", err.Error()))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, v any) bool {
	if err := c.ShouldBindQuery(v); err != nil {
		fail(c, apperr.Validation("%s", err.Error()))
		return false
	}
	return true
}

func principal(c *gin.Context) (authz.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		fail(c, apperr.Unauthorized("Authentication required"))
	}
	return p, ok
}

func setTotal(c *gin.Context, total int64) {
	c.Header(totalCountHeader, strconv.FormatInt(total, 10))
}
