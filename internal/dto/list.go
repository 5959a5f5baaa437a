package dto

// PageRequest moves a list screen to a page.
type PageRequest struct {
	Page int `json:"page" binding:"required"`
}

// PerPageRequest changes the page size.
type PerPageRequest struct {
	PerPage int `json:"per_page" binding:"required"`
}

// SearchRequest replaces the free-text search. An empty string clears it.
type SearchRequest struct {
	Search string `json:"search"`
}

// SortRequest orders the list. An empty column clears the sort.
type SortRequest struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

// FiltersRequest replaces every active filter. Empty values are dropped.
type FiltersRequest struct {
	Filters map[string]string `json:"filters"`
}
