// Package logview_test exercises the client view state machine.
package logview_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultkeep/audit-service/pkg/logview"
)

// =============================================================================
// Stub service
// =============================================================================

type fetchCall struct {
	category logview.Category
	req      logview.PageRequest
}

// stubService answers page requests from a programmable function and records
// every call.
type stubService struct {
	fetchFunc func(category logview.Category, req logview.PageRequest) (*logview.PageResponse, error)
	purgeFunc func(req logview.PurgeRequest) (*logview.PurgeResult, error)
	fetches   []fetchCall
	purges    []logview.PurgeRequest
}

func (s *stubService) FetchPage(_ context.Context, category logview.Category, req logview.PageRequest) (*logview.PageResponse, error) {
	s.fetches = append(s.fetches, fetchCall{category: category, req: req})
	if s.fetchFunc != nil {
		return s.fetchFunc(category, req)
	}
	return &logview.PageResponse{}, nil
}

func (s *stubService) Purge(_ context.Context, req logview.PurgeRequest) (*logview.PurgeResult, error) {
	s.purges = append(s.purges, req)
	if s.purgeFunc != nil {
		return s.purgeFunc(req)
	}
	return &logview.PurgeResult{Category: req.Category}, nil
}

func fixedPage(total, filtered int64) func(logview.Category, logview.PageRequest) (*logview.PageResponse, error) {
	return func(logview.Category, logview.PageRequest) (*logview.PageResponse, error) {
		return &logview.PageResponse{TotalCount: total, FilteredCount: filtered}, nil
	}
}

// =============================================================================
// Tab activation
// =============================================================================

func TestViewState_Activate(t *testing.T) {
	t.Run("first activation fetches the first page", func(t *testing.T) {
		svc := &stubService{fetchFunc: fixedPage(120, 120)}
		state := logview.NewViewState(svc, 25)
		ctx := context.Background()

		v, err := state.Activate(ctx, logview.Connections)

		require.NoError(t, err)
		assert.True(t, v.Loaded)
		assert.Equal(t, int64(120), v.TotalCount)
		require.Len(t, svc.fetches, 1)
		assert.Equal(t, logview.Connections, svc.fetches[0].category)
		assert.Equal(t, 0, svc.fetches[0].req.Offset)
		assert.Equal(t, 25, svc.fetches[0].req.Limit)
	})

	t.Run("nothing is fetched before the first activation", func(t *testing.T) {
		svc := &stubService{}
		state := logview.NewViewState(svc, 25)

		assert.Nil(t, state.View(logview.Items))
		assert.Empty(t, svc.fetches)
	})

	t.Run("re-activation reuses preserved state without refetching", func(t *testing.T) {
		svc := &stubService{fetchFunc: fixedPage(300, 300)}
		state := logview.NewViewState(svc, 25)
		ctx := context.Background()

		_, err := state.Activate(ctx, logview.Connections)
		require.NoError(t, err)
		require.NoError(t, state.SetPage(ctx, 50))
		require.NoError(t, state.SetSearch(ctx, "alice"))

		_, err = state.Activate(ctx, logview.FailedAuth)
		require.NoError(t, err)
		fetchesBefore := len(svc.fetches)

		v, err := state.Activate(ctx, logview.Connections)
		require.NoError(t, err)

		assert.Len(t, svc.fetches, fetchesBefore, "returning to an initialized tab must not refetch")
		assert.Equal(t, "alice", v.Search)
		assert.Equal(t, logview.Connections, state.Active())
	})

	t.Run("tab switch rebinds the purge form", func(t *testing.T) {
		svc := &stubService{}
		state := logview.NewViewState(svc, 25)
		ctx := context.Background()

		_, err := state.Activate(ctx, logview.Items)
		require.NoError(t, err)
		state.Form().SetDateRange("2024-01-01", "2024-01-31")
		require.NoError(t, state.Form().Confirm())

		_, err = state.Activate(ctx, logview.Admin)
		require.NoError(t, err)

		assert.Equal(t, logview.Admin, state.Form().Category())
		assert.Equal(t, logview.StateIdle, state.Form().State())
	})
}

// =============================================================================
// Paging, search, scope
// =============================================================================

func TestViewState_Navigation(t *testing.T) {
	t.Run("search and scope changes return to the first page", func(t *testing.T) {
		svc := &stubService{fetchFunc: fixedPage(500, 500)}
		state := logview.NewViewState(svc, 25)
		ctx := context.Background()

		_, err := state.Activate(ctx, logview.Items)
		require.NoError(t, err)
		require.NoError(t, state.SetPage(ctx, 75))

		require.NoError(t, state.SetSearch(ctx, "server"))
		assert.Equal(t, 0, state.View(logview.Items).Offset)

		require.NoError(t, state.SetPage(ctx, 50))
		require.NoError(t, state.SetScope(ctx, "label"))
		assert.Equal(t, 0, state.View(logview.Items).Offset)

		last := svc.fetches[len(svc.fetches)-1]
		assert.Equal(t, "server", last.req.Search)
		assert.Equal(t, "label", last.req.Scope)
		assert.Equal(t, 0, last.req.Offset)
	})

	t.Run("sort change returns to the first page", func(t *testing.T) {
		svc := &stubService{fetchFunc: fixedPage(500, 500)}
		state := logview.NewViewState(svc, 25)
		ctx := context.Background()

		_, err := state.Activate(ctx, logview.Admin)
		require.NoError(t, err)
		require.NoError(t, state.SetPage(ctx, 100))
		require.NoError(t, state.SetSort(ctx, "user", "asc"))

		last := svc.fetches[len(svc.fetches)-1]
		assert.Equal(t, "user", last.req.SortColumn)
		assert.Equal(t, "asc", last.req.SortOrder)
		assert.Equal(t, 0, last.req.Offset)
	})

	t.Run("navigation without an active view is a no-op", func(t *testing.T) {
		svc := &stubService{}
		state := logview.NewViewState(svc, 25)
		ctx := context.Background()

		require.NoError(t, state.SetPage(ctx, 25))
		require.NoError(t, state.SetSearch(ctx, "x"))
		require.NoError(t, state.Refresh(ctx))
		assert.Empty(t, svc.fetches)
	})

	t.Run("fetch error is surfaced and view stays unloaded", func(t *testing.T) {
		storeErr := errors.New("store unavailable")
		svc := &stubService{fetchFunc: func(logview.Category, logview.PageRequest) (*logview.PageResponse, error) {
			return nil, storeErr
		}}
		state := logview.NewViewState(svc, 25)

		v, err := state.Activate(context.Background(), logview.Errors)

		assert.ErrorIs(t, err, storeErr)
		assert.False(t, v.Loaded)
	})
}

// =============================================================================
// Stale responses
// =============================================================================

func TestViewState_StaleResponseDiscarded(t *testing.T) {
	svc := &stubService{}
	state := logview.NewViewState(svc, 25)
	ctx := context.Background()

	// While the connections page is in flight, the user switches to the
	// failed_auth tab. The connections response lands afterwards and must be
	// dropped instead of applied to a tab no longer of interest.
	switched := false
	svc.fetchFunc = func(category logview.Category, _ logview.PageRequest) (*logview.PageResponse, error) {
		if category == logview.Connections && !switched {
			switched = true
			_, err := state.Activate(ctx, logview.FailedAuth)
			require.NoError(t, err)
		}
		return &logview.PageResponse{TotalCount: 999, FilteredCount: 999}, nil
	}

	v, err := state.Activate(ctx, logview.Connections)
	require.NoError(t, err)

	assert.False(t, v.Loaded, "late response for a left tab must be discarded")
	assert.Equal(t, int64(0), v.TotalCount)
	assert.Equal(t, logview.FailedAuth, state.Active())
	assert.True(t, state.View(logview.FailedAuth).Loaded)
}

// =============================================================================
// Purge result routing
// =============================================================================

func TestViewState_ApplyPurge(t *testing.T) {
	t.Run("reloads the matching view", func(t *testing.T) {
		svc := &stubService{fetchFunc: fixedPage(50, 50)}
		state := logview.NewViewState(svc, 25)
		ctx := context.Background()

		_, err := state.Activate(ctx, logview.FailedAuth)
		require.NoError(t, err)
		fetchesBefore := len(svc.fetches)

		svc.fetchFunc = fixedPage(45, 45)
		err = state.ApplyPurge(ctx, &logview.PurgeResult{Category: logview.FailedAuth, DeletedCount: 5})

		require.NoError(t, err)
		assert.Len(t, svc.fetches, fetchesBefore+1)
		assert.Equal(t, int64(45), state.View(logview.FailedAuth).FilteredCount)
	})

	t.Run("never touches a view that was not opened", func(t *testing.T) {
		svc := &stubService{}
		state := logview.NewViewState(svc, 25)

		err := state.ApplyPurge(context.Background(), &logview.PurgeResult{Category: logview.Errors, DeletedCount: 12})

		require.NoError(t, err)
		assert.Empty(t, svc.fetches)
		assert.Nil(t, state.View(logview.Errors))
	})

	t.Run("clamps the offset to the last remaining page", func(t *testing.T) {
		svc := &stubService{fetchFunc: fixedPage(80, 80)}
		state := logview.NewViewState(svc, 25)
		ctx := context.Background()

		_, err := state.Activate(ctx, logview.Connections)
		require.NoError(t, err)
		require.NoError(t, state.SetPage(ctx, 75))

		// The purge shrank the set below the current offset.
		svc.fetchFunc = fixedPage(12, 12)
		err = state.ApplyPurge(ctx, &logview.PurgeResult{Category: logview.Connections, DeletedCount: 68})
		require.NoError(t, err)

		v := state.View(logview.Connections)
		assert.Equal(t, 0, v.Offset, "12 remaining rows fit on the first page")
		last := svc.fetches[len(svc.fetches)-1]
		assert.Equal(t, 0, last.req.Offset)
	})

	t.Run("clamps to a later page when rows remain", func(t *testing.T) {
		svc := &stubService{fetchFunc: fixedPage(200, 200)}
		state := logview.NewViewState(svc, 25)
		ctx := context.Background()

		_, err := state.Activate(ctx, logview.Connections)
		require.NoError(t, err)
		require.NoError(t, state.SetPage(ctx, 175))

		svc.fetchFunc = fixedPage(60, 60)
		err = state.ApplyPurge(ctx, &logview.PurgeResult{Category: logview.Connections, DeletedCount: 140})
		require.NoError(t, err)

		// 60 rows at 25 per page: pages start at 0, 25, 50.
		assert.Equal(t, 50, state.View(logview.Connections).Offset)
	})

	t.Run("offset inside the shrunken set is kept", func(t *testing.T) {
		svc := &stubService{fetchFunc: fixedPage(200, 200)}
		state := logview.NewViewState(svc, 25)
		ctx := context.Background()

		_, err := state.Activate(ctx, logview.Connections)
		require.NoError(t, err)
		require.NoError(t, state.SetPage(ctx, 25))
		fetchesBefore := len(svc.fetches)

		svc.fetchFunc = fixedPage(60, 60)
		err = state.ApplyPurge(ctx, &logview.PurgeResult{Category: logview.Connections, DeletedCount: 140})
		require.NoError(t, err)

		assert.Equal(t, 25, state.View(logview.Connections).Offset)
		assert.Len(t, svc.fetches, fetchesBefore+1, "no second fetch when the offset is still valid")
	})
}

// =============================================================================
// End-to-end purge through the form
// =============================================================================

func TestViewState_ExecutePurge(t *testing.T) {
	t.Run("success - confirmed purge reloads the active view", func(t *testing.T) {
		svc := &stubService{fetchFunc: fixedPage(40, 40)}
		svc.purgeFunc = func(req logview.PurgeRequest) (*logview.PurgeResult, error) {
			return &logview.PurgeResult{Category: req.Category, DeletedCount: 33}, nil
		}
		state := logview.NewViewState(svc, 25)
		ctx := context.Background()

		_, err := state.Activate(ctx, logview.FailedAuth)
		require.NoError(t, err)

		state.Form().SetDateRange("2024-01-01", "2024-01-31")
		require.NoError(t, state.Form().Confirm())

		svc.fetchFunc = fixedPage(7, 7)
		result, err := state.ExecutePurge(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(33), result.DeletedCount)
		assert.Equal(t, logview.StateCompleted, state.Form().State())
		assert.Equal(t, int64(7), state.View(logview.FailedAuth).FilteredCount)

		require.Len(t, svc.purges, 1)
		assert.Equal(t, logview.FailedAuth, svc.purges[0].Category)
		assert.True(t, svc.purges[0].Confirmed)
	})

	t.Run("error - unconfirmed purge never reaches the service", func(t *testing.T) {
		svc := &stubService{}
		state := logview.NewViewState(svc, 25)
		ctx := context.Background()

		_, err := state.Activate(ctx, logview.FailedAuth)
		require.NoError(t, err)
		state.Form().SetDateRange("2024-01-01", "2024-01-31")

		result, err := state.ExecutePurge(ctx)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, logview.ErrUnconfirmed)
		assert.Empty(t, svc.purges)
	})
}
