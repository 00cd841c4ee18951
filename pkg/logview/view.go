package logview

import (
	"context"
	"encoding/json"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 25

// CategoryView is the paginated state of one category tab. A view is created
// the first time its tab is activated and keeps its page, sort, and search
// settings when the user switches away and back.
type CategoryView struct {
	Category      Category
	Offset        int
	Limit         int
	SortColumn    string
	SortOrder     string
	Search        string
	Scope         string
	TotalCount    int64
	FilteredCount int64
	Rows          []json.RawMessage
	Loaded        bool

	// pending is the sequence token of the in-flight request, 0 when idle.
	// A response whose token no longer matches is discarded.
	pending uint64
}

func (v *CategoryView) request() PageRequest {
	return PageRequest{
		Offset:     v.Offset,
		Limit:      v.Limit,
		SortColumn: v.SortColumn,
		SortOrder:  v.SortOrder,
		Search:     v.Search,
		Scope:      v.Scope,
	}
}

func (v *CategoryView) apply(resp *PageResponse) {
	v.TotalCount = resp.TotalCount
	v.FilteredCount = resp.FilteredCount
	v.Rows = resp.Rows
	v.Loaded = true
}

// ViewState drives the whole audit log screen: which tab is active, the
// per-tab views, and the purge form bound to the active tab.
type ViewState struct {
	svc   Service
	limit int
	seq   uint64

	active Category
	views  map[Category]*CategoryView
	form   *PurgeForm
}

// NewViewState creates the screen state. Nothing is fetched until the first
// tab is activated.
func NewViewState(svc Service, pageSize int) *ViewState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ViewState{
		svc:   svc,
		limit: pageSize,
		views: make(map[Category]*CategoryView),
		form:  NewPurgeForm(),
	}
}

// Active returns the active category, or "" before the first activation.
func (s *ViewState) Active() Category {
	return s.active
}

// View returns the view for a category, or nil if its tab was never opened.
func (s *ViewState) View(cat Category) *CategoryView {
	return s.views[cat]
}

// Form returns the purge form bound to the active tab.
func (s *ViewState) Form() *PurgeForm {
	return s.form
}

// Activate switches to a tab. The first activation of a category creates its
// view and fetches the first page; later activations reuse the preserved
// state without refetching. Switching tabs rebinds the purge form and drops
// any pending confirmation.
func (s *ViewState) Activate(ctx context.Context, cat Category) (*CategoryView, error) {
	if s.active != cat {
		s.form.Rebind(cat)
		// An answer still in flight for the tab being left must not be
		// applied when it finally arrives.
		if prev := s.views[s.active]; prev != nil {
			prev.pending = 0
		}
	}
	s.active = cat

	if v, ok := s.views[cat]; ok {
		return v, nil
	}

	v := &CategoryView{Category: cat, Limit: s.limit, Scope: ScopeAll}
	s.views[cat] = v
	return v, s.fetch(ctx, v)
}

// Refresh refetches the active tab's current page.
func (s *ViewState) Refresh(ctx context.Context) error {
	v := s.views[s.active]
	if v == nil {
		return nil
	}
	return s.fetch(ctx, v)
}

// SetPage moves the active tab to the given row offset.
func (s *ViewState) SetPage(ctx context.Context, offset int) error {
	v := s.views[s.active]
	if v == nil {
		return nil
	}
	if offset < 0 {
		offset = 0
	}
	v.Offset = offset
	return s.fetch(ctx, v)
}

// SetSort changes the active tab's sort column and direction and returns to
// the first page.
func (s *ViewState) SetSort(ctx context.Context, column, order string) error {
	v := s.views[s.active]
	if v == nil {
		return nil
	}
	v.SortColumn = column
	v.SortOrder = order
	v.Offset = 0
	return s.fetch(ctx, v)
}

// SetSearch changes the active tab's search term and returns to the first
// page.
func (s *ViewState) SetSearch(ctx context.Context, term string) error {
	v := s.views[s.active]
	if v == nil {
		return nil
	}
	v.Search = term
	v.Offset = 0
	return s.fetch(ctx, v)
}

// SetScope narrows the active tab's search to one column and reruns the
// current search from the first page.
func (s *ViewState) SetScope(ctx context.Context, scope string) error {
	v := s.views[s.active]
	if v == nil {
		return nil
	}
	v.Scope = scope
	v.Offset = 0
	return s.fetch(ctx, v)
}

// ExecutePurge runs the purge form against the service and, on success,
// reloads the affected category's view.
func (s *ViewState) ExecutePurge(ctx context.Context) (*PurgeResult, error) {
	result, err := s.form.Execute(ctx, s.svc)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyPurge(ctx, result); err != nil {
		return result, err
	}
	return result, nil
}

// ApplyPurge reloads the view matching the purge result. If the current
// offset falls beyond the shrunken result set, the view is clamped to the
// last page that still has rows.
func (s *ViewState) ApplyPurge(ctx context.Context, result *PurgeResult) error {
	v := s.views[result.Category]
	if v == nil {
		return nil
	}
	if err := s.fetch(ctx, v); err != nil {
		return err
	}
	if int64(v.Offset) >= v.FilteredCount && v.Offset > 0 {
		v.Offset = lastPageOffset(v.FilteredCount, v.Limit)
		return s.fetch(ctx, v)
	}
	return nil
}

// fetch issues one page request for the view. Each request gets a fresh
// sequence token; if the view's token moved on while the request was in
// flight (the user paged, searched, or switched settings again), the
// response is discarded instead of clobbering the newer state.
func (s *ViewState) fetch(ctx context.Context, v *CategoryView) error {
	s.seq++
	token := s.seq
	v.pending = token

	resp, err := s.svc.FetchPage(ctx, v.Category, v.request())
	if v.pending != token {
		return nil
	}
	v.pending = 0
	if err != nil {
		return err
	}
	v.apply(resp)
	return nil
}

func lastPageOffset(filtered int64, limit int) int {
	if filtered <= 0 || limit <= 0 {
		return 0
	}
	return int((filtered - 1) / int64(limit) * int64(limit))
}
