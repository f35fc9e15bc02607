package domain

import (
	"fmt"
	"math"
)

const (
	DefaultPage      = 0
	DefaultPerPage   = 10
	DefaultMinAmount = 5
)

type SearchMode string

const (
	SearchExisting    SearchMode = "existing"
	SearchNonExisting SearchMode = "non_existing"
	SearchMinAmount   SearchMode = "min_amount"
)

func ParseSearchMode(s string) (SearchMode, error) {
	switch m := SearchMode(s); m {
	case SearchExisting, SearchNonExisting, SearchMinAmount:
		return m, nil
	}
	return "", Validationf(OpQuery, "search must be one of existing, non_existing, min_amount, got %q", s)
}

type SortOrder string

const (
	OrderAscending  SortOrder = "asc"
	OrderDescending SortOrder = "desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case OrderAscending, OrderDescending:
		return o, nil
	}
	return "", Validationf(OpQuery, "order must be one of asc, desc, got %q", s)
}

// ProductQuery is a read intent built once per request by QueryFactory.
type ProductQuery struct {
	Mode    SearchMode
	Order   SortOrder
	Page    int
	PerPage int
	// MinAmount is the threshold of SearchMinAmount and is ignored otherwise.
	MinAmount int
}

func (q ProductQuery) Offset() int { return q.Page * q.PerPage }

func (q ProductQuery) Limit() int { return q.PerPage }

// Matches reports whether p passes the query's search mode filter.
func (q ProductQuery) Matches(p Product) bool {
	switch q.Mode {
	case SearchExisting:
		return p.Amount > 0
	case SearchNonExisting:
		return p.Amount == 0
	case SearchMinAmount:
		return p.Amount >= q.MinAmount
	}
	return false
}

// CacheKey identifies the page the query selects.
func (q ProductQuery) CacheKey() string {
	if q.Mode == SearchMinAmount {
		return fmt.Sprintf("%s:%d:%s:%d:%d", q.Mode, q.MinAmount, q.Order, q.Page, q.PerPage)
	}
	return fmt.Sprintf("%s:%s:%d:%d", q.Mode, q.Order, q.Page, q.PerPage)
}

// QueryFactory turns raw list parameters into a ProductQuery.
type QueryFactory struct {
	// DefaultMinAmount is the min_amount threshold used when the caller
	// supplies none.
	DefaultMinAmount int
	// MaxPerPage caps the page size; zero disables the cap.
	MaxPerPage int
}

func NewQueryFactory(defaultMinAmount, maxPerPage int) QueryFactory {
	return QueryFactory{DefaultMinAmount: defaultMinAmount, MaxPerPage: maxPerPage}
}

func (f QueryFactory) Build(searchMode, order string, page, perPage int, minAmount *int) (ProductQuery, error) {
	mode, err := ParseSearchMode(searchMode)
	if err != nil {
		return ProductQuery{}, err
	}
	sortOrder, err := ParseSortOrder(order)
	if err != nil {
		return ProductQuery{}, err
	}
	if page < 0 {
		return ProductQuery{}, Validationf(OpQuery, "page must be non-negative, got %d", page)
	}
	if perPage < 1 {
		return ProductQuery{}, Validationf(OpQuery, "perPage must be at least 1, got %d", perPage)
	}
	if f.MaxPerPage > 0 && perPage > f.MaxPerPage {
		return ProductQuery{}, Validationf(OpQuery, "perPage must be at most %d, got %d", f.MaxPerPage, perPage)
	}

	if page > math.MaxInt32/perPage {
		return ProductQuery{}, Validationf(OpQuery, "page %d is out of range", page)
	}

	// a caller threshold only applies to min_amount searches
	threshold := f.DefaultMinAmount
	if mode == SearchMinAmount && minAmount != nil {
		threshold = *minAmount
		if threshold < 0 {
			return ProductQuery{}, Validationf(OpQuery, "minAmount must be non-negative, got %d", threshold)
		}
	}

	return ProductQuery{
		Mode:      mode,
		Order:     sortOrder,
		Page:      page,
		PerPage:   perPage,
		MinAmount: threshold,
	}, nil
}
