package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/club-portal/internal/models"
)

type pageFetcher struct {
	mu      sync.Mutex
	queries []models.ListQuery
	total   int
	err     error
}

func (f *pageFetcher) fetch(_ context.Context, q models.ListQuery) (models.ListResult[int], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return models.ListResult[int]{}, f.err
	}
	items := []int{}
	for i := (q.Page-1)*q.PerPage + 1; i <= q.Page*q.PerPage && i <= f.total; i++ {
		items = append(items, i)
	}
	last := (f.total + q.PerPage - 1) / q.PerPage
	return models.ListResult[int]{Data: items, Page: q.Page, PerPage: q.PerPage, Total: f.total, LastPage: last}, nil
}

func (f *pageFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *pageFetcher) last() models.ListQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func TestListControllerEachMutatorFetchesOnce(t *testing.T) {
	ctx := context.Background()
	f := &pageFetcher{total: 45}
	lc := NewListController[int](f.fetch, ListOptions{SortColumns: []string{"nombre"}}, nil)

	require.NoError(t, lc.Refetch(ctx))
	require.NoError(t, lc.GoToPage(ctx, 3))
	require.NoError(t, lc.ChangePerPage(ctx, 20))
	require.NoError(t, lc.SetSort(ctx, "nombre", "desc"))
	require.NoError(t, lc.SetSearch(ctx, "ana"))
	require.NoError(t, lc.SetFilters(ctx, map[string]string{"status": "activo"}))
	assert.Equal(t, 6, f.calls())

	state := lc.State()
	assert.Equal(t, 1, state.Query.Page)
	assert.Equal(t, 20, state.Query.PerPage)
	assert.Equal(t, "ana", state.Query.Search)
	assert.Equal(t, "nombre", state.Query.SortBy)
	assert.Equal(t, "desc", state.Query.SortOrder)
	assert.Equal(t, map[string]string{"status": "activo"}, state.Query.Filters)
	assert.Equal(t, 3, state.LastPage)
	assert.False(t, state.Loading)
}

func TestListControllerSearchAndFiltersResetPage(t *testing.T) {
	ctx := context.Background()
	f := &pageFetcher{total: 100}
	lc := NewListController[int](f.fetch, ListOptions{}, nil)
	require.NoError(t, lc.Refetch(ctx))

	require.NoError(t, lc.GoToPage(ctx, 4))
	require.NoError(t, lc.SetSearch(ctx, "perez"))
	assert.Equal(t, 1, f.last().Page)

	require.NoError(t, lc.GoToPage(ctx, 5))
	require.NoError(t, lc.SetFilters(ctx, map[string]string{"status": "", "id_rol": "2"}))
	assert.Equal(t, 1, f.last().Page)
	assert.Equal(t, map[string]string{"id_rol": "2"}, f.last().Filters)
}

func TestListControllerPageSortAndPerPageKeepPage(t *testing.T) {
	ctx := context.Background()
	f := &pageFetcher{total: 100}
	lc := NewListController[int](f.fetch, ListOptions{}, nil)
	require.NoError(t, lc.Refetch(ctx))
	require.NoError(t, lc.GoToPage(ctx, 3))

	require.NoError(t, lc.SetSort(ctx, "email", "asc"))
	assert.Equal(t, 3, f.last().Page)

	require.NoError(t, lc.ChangePerPage(ctx, 20))
	assert.Equal(t, 3, f.last().Page)

	// 100 rows at 50 per page only has 2 pages.
	require.NoError(t, lc.ChangePerPage(ctx, 50))
	assert.Equal(t, 2, f.last().Page)
}

func TestListControllerClampsPage(t *testing.T) {
	ctx := context.Background()
	f := &pageFetcher{total: 25}
	lc := NewListController[int](f.fetch, ListOptions{}, nil)
	require.NoError(t, lc.Refetch(ctx))

	require.NoError(t, lc.GoToPage(ctx, 9))
	assert.Equal(t, 3, f.last().Page)

	require.NoError(t, lc.GoToPage(ctx, -2))
	assert.Equal(t, 1, f.last().Page)
}

func TestListControllerRejectsInvalidInputWithoutFetching(t *testing.T) {
	ctx := context.Background()
	f := &pageFetcher{total: 5}
	lc := NewListController[int](f.fetch, ListOptions{SortColumns: []string{"nombre"}}, nil)

	assert.Error(t, lc.ChangePerPage(ctx, 7))
	assert.Error(t, lc.SetSort(ctx, "password", "asc"))
	assert.Error(t, lc.SetSort(ctx, "nombre", "sideways"))
	assert.Equal(t, 0, f.calls())
	assert.Equal(t, 10, lc.State().Query.PerPage)
}

func TestListControllerFailureKeepsItems(t *testing.T) {
	ctx := context.Background()
	f := &pageFetcher{total: 3}
	lc := NewListController[int](f.fetch, ListOptions{}, nil)
	require.NoError(t, lc.Refetch(ctx))

	f.err = errors.New("connection reset")
	assert.Error(t, lc.Refetch(ctx))

	state := lc.State()
	assert.Equal(t, []int{1, 2, 3}, state.Items)
	assert.Equal(t, "Error al cargar datos", state.Error)

	f.err = nil
	require.NoError(t, lc.Refetch(ctx))
	assert.Empty(t, lc.State().Error)
}

func TestListControllerDiscardsSupersededResponse(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan string, 2)

	fetch := func(_ context.Context, q models.ListQuery) (models.ListResult[string], error) {
		started <- q.Search
		if q.Search == "slow" {
			<-release
			return models.ListResult[string]{Data: []string{"stale"}, Total: 1, LastPage: 1}, nil
		}
		return models.ListResult[string]{Data: []string{"fresh"}, Total: 1, LastPage: 1}, nil
	}
	lc := NewListController[string](fetch, ListOptions{}, nil)

	done := make(chan error, 1)
	go func() { done <- lc.SetSearch(ctx, "slow") }()
	assert.Equal(t, "slow", <-started)
	assert.True(t, lc.State().Loading)

	require.NoError(t, lc.SetSearch(ctx, "fast"))
	assert.Equal(t, "fast", <-started)
	assert.Equal(t, []string{"fresh"}, lc.State().Items)

	close(release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("slow fetch did not return")
	}

	state := lc.State()
	assert.Equal(t, []string{"fresh"}, state.Items)
	assert.Equal(t, "fast", state.Query.Search)
	assert.False(t, state.Loading)
}
