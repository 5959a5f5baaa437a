package models

// Sort directions accepted by list endpoints.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListQuery is the parameter set of a paginated list fetch.
type ListQuery struct {
	Page      int               `json:"page"`
	PerPage   int               `json:"per_page"`
	Search    string            `json:"search,omitempty"`
	SortBy    string            `json:"sort_by,omitempty"`
	SortOrder string            `json:"sort_order,omitempty"`
	Filters   map[string]string `json:"filters,omitempty"`
}

// Clone returns a copy that does not share the filter map.
func (q ListQuery) Clone() ListQuery {
	clone := q
	if q.Filters != nil {
		clone.Filters = make(map[string]string, len(q.Filters))
		for k, v := range q.Filters {
			clone.Filters[k] = v
		}
	}
	return clone
}

// ListResult is one page of items as returned by the club API.
type ListResult[T any] struct {
	Data     []T `json:"data"`
	Page     int `json:"page"`
	PerPage  int `json:"perPage"`
	Total    int `json:"total"`
	LastPage int `json:"lastPage"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	Total    int `json:"total"`
	LastPage int `json:"last_page"`
}
