// Package logs provides application layer handlers for audit log inspection and purging.
package logs

import (
	"context"

	domainlogs "github.com/vaultkeep/audit-service/internal/domain/logs"
)

// PageQuery contains raw parameters for one page request.
type PageQuery struct {
	Category   string
	Offset     int
	Limit      int
	SortColumn string
	SortOrder  string
	Search     string
	Scope      string
}

// PageResult contains the page envelope plus the normalized paging values the
// caller can use to render "showing X of Y" and the page count.
type PageResult struct {
	TotalCount    int64
	FilteredCount int64
	Rows          []domainlogs.Event
	Offset        int
	Limit         int
	TotalPages    int64
}

// Limits bound client-supplied page sizes.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// PageHandler handles paginated audit log queries. It is stateless per call
// and read-only against the store.
type PageHandler struct {
	repo   domainlogs.Repository
	limits Limits
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(repo domainlogs.Repository, limits Limits) *PageHandler {
	if limits.DefaultPageSize <= 0 {
		limits.DefaultPageSize = 25
	}
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = 100
	}
	return &PageHandler{repo: repo, limits: limits}
}

// Handle executes one page request. Unknown categories are rejected; invalid
// sort columns and scopes are corrected to the category defaults.
func (h *PageHandler) Handle(ctx context.Context, query PageQuery) (*PageResult, error) {
	params, err := domainlogs.NewPageParams(domainlogs.PageQuery{
		Category:   query.Category,
		Offset:     query.Offset,
		Limit:      query.Limit,
		SortColumn: query.SortColumn,
		SortOrder:  query.SortOrder,
		Search:     query.Search,
		Scope:      query.Scope,
	}, h.limits.DefaultPageSize, h.limits.MaxPageSize)
	if err != nil {
		return nil, err
	}

	page, err := h.repo.Page(ctx, params)
	if err != nil {
		return nil, err
	}

	totalPages := int64(0)
	if page.FilteredCount > 0 {
		totalPages = (page.FilteredCount + int64(params.Limit) - 1) / int64(params.Limit)
	}

	return &PageResult{
		TotalCount:    page.TotalCount,
		FilteredCount: page.FilteredCount,
		Rows:          page.Rows,
		Offset:        params.Offset,
		Limit:         params.Limit,
		TotalPages:    totalPages,
	}, nil
}
