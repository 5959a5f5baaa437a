package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/club-portal/internal/models"
	appErrors "github.com/noah-isme/club-portal/pkg/errors"
)

// DefaultPerPageOptions are the page sizes a list screen offers.
var DefaultPerPageOptions = []int{10, 20, 50, 100}

const listLoadFailed = "Error al cargar datos"

// Fetcher loads one page for the given query.
type Fetcher[T any] func(ctx context.Context, query models.ListQuery) (models.ListResult[T], error)

// ListOptions configures a ListController.
type ListOptions struct {
	PerPage        int
	PerPageOptions []int
	SortColumns    []string
}

// ListState is a point-in-time copy of a controller.
type ListState[T any] struct {
	Items          []T              `json:"items"`
	Query          models.ListQuery `json:"query"`
	Total          int              `json:"total"`
	LastPage       int              `json:"last_page"`
	Loading        bool             `json:"loading"`
	Error          string           `json:"error,omitempty"`
	PerPageOptions []int            `json:"per_page_options"`
}

// Pagination converts the state into the envelope pagination block.
func (s ListState[T]) Pagination() *models.Pagination {
	return &models.Pagination{Page: s.Query.Page, PerPage: s.Query.PerPage, Total: s.Total, LastPage: s.LastPage}
}

// ListController binds a fetcher to page, page size, search, sort and filters.
// Every mutator issues exactly one fetch. Fetches are tagged with a generation
// and only the latest one may update the state.
type ListController[T any] struct {
	mu          sync.Mutex
	fetch       Fetcher[T]
	logger      *zap.Logger
	perPageOpts []int
	sortColumns map[string]struct{}

	query      models.ListQuery
	items      []T
	total      int
	lastPage   int
	loading    bool
	errMessage string
	generation uint64
}

// NewListController constructs a controller. Nothing is fetched until a mutator runs.
func NewListController[T any](fetch Fetcher[T], opts ListOptions, logger *zap.Logger) *ListController[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	perPageOpts := opts.PerPageOptions
	if len(perPageOpts) == 0 {
		perPageOpts = DefaultPerPageOptions
	}
	perPage := opts.PerPage
	if !containsInt(perPageOpts, perPage) {
		perPage = perPageOpts[0]
	}
	var sortColumns map[string]struct{}
	if len(opts.SortColumns) > 0 {
		sortColumns = make(map[string]struct{}, len(opts.SortColumns))
		for _, col := range opts.SortColumns {
			sortColumns[col] = struct{}{}
		}
	}
	return &ListController[T]{
		fetch:       fetch,
		logger:      logger,
		perPageOpts: append([]int(nil), perPageOpts...),
		sortColumns: sortColumns,
		query:       models.ListQuery{Page: 1, PerPage: perPage},
		items:       []T{},
	}
}

// GoToPage moves to page n, clamped to [1, lastPage] once lastPage is known.
func (l *ListController[T]) GoToPage(ctx context.Context, n int) error {
	return l.run(ctx, func(q *models.ListQuery) error {
		q.Page = l.clampPage(n)
		return nil
	})
}

// ChangePerPage switches the page size. The page is kept unless it would fall
// past the last page for the known total.
func (l *ListController[T]) ChangePerPage(ctx context.Context, n int) error {
	return l.run(ctx, func(q *models.ListQuery) error {
		if !containsInt(l.perPageOpts, n) {
			return appErrors.Clone(appErrors.ErrValidation, "unsupported page size")
		}
		q.PerPage = n
		if l.total > 0 {
			last := (l.total + n - 1) / n
			if q.Page > last {
				q.Page = last
			}
		}
		return nil
	})
}

// SetSearch changes the free-text search and returns to page 1.
func (l *ListController[T]) SetSearch(ctx context.Context, text string) error {
	return l.run(ctx, func(q *models.ListQuery) error {
		q.Search = strings.TrimSpace(text)
		q.Page = 1
		return nil
	})
}

// SetSort orders by column in direction asc or desc. An empty column clears the sort.
func (l *ListController[T]) SetSort(ctx context.Context, column, direction string) error {
	return l.run(ctx, func(q *models.ListQuery) error {
		if column == "" {
			q.SortBy, q.SortOrder = "", ""
			return nil
		}
		if l.sortColumns != nil {
			if _, ok := l.sortColumns[column]; !ok {
				return appErrors.Clone(appErrors.ErrValidation, "column is not sortable")
			}
		}
		dir := strings.ToLower(strings.TrimSpace(direction))
		if dir == "" {
			dir = models.SortAsc
		}
		if dir != models.SortAsc && dir != models.SortDesc {
			return appErrors.Clone(appErrors.ErrValidation, "sort direction must be asc or desc")
		}
		q.SortBy, q.SortOrder = column, dir
		return nil
	})
}

// SetFilters replaces the filter map, dropping empty values, and returns to page 1.
func (l *ListController[T]) SetFilters(ctx context.Context, filters map[string]string) error {
	return l.run(ctx, func(q *models.ListQuery) error {
		active := make(map[string]string, len(filters))
		for key, value := range filters {
			if value = strings.TrimSpace(value); value != "" {
				active[key] = value
			}
		}
		if len(active) == 0 {
			active = nil
		}
		q.Filters = active
		q.Page = 1
		return nil
	})
}

// Refetch re-issues the current parameter set.
func (l *ListController[T]) Refetch(ctx context.Context) error {
	return l.run(ctx, func(*models.ListQuery) error { return nil })
}

// State returns a copy of the current state.
func (l *ListController[T]) State() ListState[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ListState[T]{
		Items:          append([]T{}, l.items...),
		Query:          l.query.Clone(),
		Total:          l.total,
		LastPage:       l.lastPage,
		Loading:        l.loading,
		Error:          l.errMessage,
		PerPageOptions: append([]int(nil), l.perPageOpts...),
	}
}

// Find returns the first loaded item matching match.
func (l *ListController[T]) Find(match func(T) bool) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, item := range l.items {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// run applies mutate to a copy of the query and fetches with the result. The
// lock is never held across the fetch.
func (l *ListController[T]) run(ctx context.Context, mutate func(*models.ListQuery) error) error {
	l.mu.Lock()
	next := l.query.Clone()
	if err := mutate(&next); err != nil {
		l.mu.Unlock()
		return err
	}
	l.query = next
	l.generation++
	gen := l.generation
	l.loading = true
	query := next.Clone()
	l.mu.Unlock()

	result, err := l.fetch(ctx, query)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		l.logger.Debug("discarding superseded list response", zap.Uint64("generation", gen), zap.Uint64("latest", l.generation))
		return nil
	}
	l.loading = false
	if err != nil {
		l.errMessage = appErrors.MessageOr(err, listLoadFailed)
		l.logger.Warn("list fetch failed", zap.Error(err))
		return err
	}
	l.errMessage = ""
	l.items = result.Data
	if l.items == nil {
		l.items = []T{}
	}
	l.total = result.Total
	l.lastPage = result.LastPage
	if l.lastPage < 1 {
		l.lastPage = 1
	}
	return nil
}

func (l *ListController[T]) clampPage(n int) int {
	if l.lastPage > 0 && n > l.lastPage {
		n = l.lastPage
	}
	if n < 1 {
		n = 1
	}
	return n
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
