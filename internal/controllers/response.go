package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/middleware"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Pagination holds the page size settings shared by list endpoints
type Pagination struct {
	DefaultSize int
	MaxSize     int
}

// PageResponse is the envelope returned by paginated endpoints
type PageResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// respondError writes a domain error with its status, anything else as a 500
func respondError(ctx *gin.Context, err error) {
	var domainErr *models.Error
	if errors.As(err, &domainErr) {
		ctx.JSON(domainErr.Kind.HTTPStatus(), domainErr.APIError())
		return
	}

	log.WithError(err).WithFields(log.Fields{
		"method": ctx.Request.Method,
		"path":   ctx.Request.URL.Path,
	}).Error("Request failed with unexpected error")
	ctx.JSON(http.StatusInternalServerError, models.NewAPIError(models.CodeInternalServer, "Internal server error"))
}

func respondBadRequest(ctx *gin.Context, message string, err error) {
	details := map[string]interface{}{}
	if err != nil {
		details["error"] = err.Error()
	}
	ctx.JSON(http.StatusBadRequest, models.NewAPIError(models.CodeBadRequest, message, details))
}

// requesterFrom returns the identity set by the auth middleware, or anonymous
func requesterFrom(ctx *gin.Context) services.Requester {
	return services.Requester{
		UserID: ctx.GetUint(middleware.UserIDKey),
		Role:   ctx.GetString(middleware.UserRoleKey),
	}
}

// idParam parses a positive numeric path parameter. It writes the 400 itself.
func idParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(ctx, "Invalid "+name+" format", nil)
		return 0, false
	}
	return uint(id), true
}

func queryFlag(ctx *gin.Context, name string) bool {
	switch ctx.Query(name) {
	case "1", "true", "True":
		return true
	default:
		return false
	}
}

// pageFrom reads the page and limit query parameters
func (p Pagination) pageFrom(ctx *gin.Context) (services.Page, bool) {
	page := services.Page{Number: 1, Size: p.DefaultSize}

	if raw := ctx.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondBadRequest(ctx, "Invalid page number", nil)
			return page, false
		}
		page.Number = n
	}
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondBadRequest(ctx, "Invalid limit", nil)
			return page, false
		}
		page.Size = min(n, p.MaxSize)
	}
	return page, true
}

func newPageResponse[T any](ctx *gin.Context, page services.Page, result services.PageResult[T]) PageResponse[T] {
	resp := PageResponse[T]{Count: result.Count, Results: result.Results}
	if resp.Results == nil {
		resp.Results = []T{}
	}
	if int64(page.Offset()+len(result.Results)) < result.Count {
		resp.Next = pageLink(ctx, page.Number+1)
	}
	if page.Number > 1 {
		resp.Previous = pageLink(ctx, page.Number-1)
	}
	return resp
}

func pageLink(ctx *gin.Context, number int) *string {
	u := *ctx.Request.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(number))
	u.RawQuery = q.Encode()

	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := ctx.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	link := scheme + "://" + ctx.Request.Host + u.RequestURI()
	return &link
}
