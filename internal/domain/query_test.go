package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestQueryFactory_Build(t *testing.T) {
	factory := NewQueryFactory(DefaultMinAmount, 100)

	tests := []struct {
		name      string
		search    string
		order     string
		page      int
		perPage   int
		minAmount *int
		want      ProductQuery
	}{
		{
			name: "existing desc", search: "existing", order: "desc", page: 0, perPage: 10,
			want: ProductQuery{Mode: SearchExisting, Order: OrderDescending, Page: 0, PerPage: 10, MinAmount: 5},
		},
		{
			name: "non existing asc", search: "non_existing", order: "asc", page: 3, perPage: 1,
			want: ProductQuery{Mode: SearchNonExisting, Order: OrderAscending, Page: 3, PerPage: 1, MinAmount: 5},
		},
		{
			name: "min amount uses configured threshold", search: "min_amount", order: "asc", page: 0, perPage: 20,
			want: ProductQuery{Mode: SearchMinAmount, Order: OrderAscending, Page: 0, PerPage: 20, MinAmount: 5},
		},
		{
			name: "min amount with caller threshold", search: "min_amount", order: "desc", page: 1, perPage: 5, minAmount: intPtr(42),
			want: ProductQuery{Mode: SearchMinAmount, Order: OrderDescending, Page: 1, PerPage: 5, MinAmount: 42},
		},
		{
			name: "threshold is ignored outside min amount", search: "existing", order: "asc", page: 0, perPage: 10, minAmount: intPtr(-1),
			want: ProductQuery{Mode: SearchExisting, Order: OrderAscending, Page: 0, PerPage: 10, MinAmount: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := factory.Build(tt.search, tt.order, tt.page, tt.perPage, tt.minAmount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryFactory_BuildRejectsInvalidArguments(t *testing.T) {
	factory := NewQueryFactory(DefaultMinAmount, 100)

	tests := []struct {
		name      string
		search    string
		order     string
		page      int
		perPage   int
		minAmount *int
		message   string
	}{
		{name: "unknown search", search: "all", order: "asc", perPage: 10, message: `search must be one of existing, non_existing, min_amount, got "all"`},
		{name: "blank search", search: "", order: "asc", perPage: 10, message: `search must be one of existing, non_existing, min_amount, got ""`},
		{name: "blank order", search: "existing", order: "", perPage: 10, message: `order must be one of asc, desc, got ""`},
		{name: "unknown order", search: "existing", order: "sideways", perPage: 10, message: `order must be one of asc, desc, got "sideways"`},
		{name: "negative page", search: "existing", order: "asc", page: -1, perPage: 10, message: "page must be non-negative, got -1"},
		{name: "zero per page", search: "existing", order: "asc", perPage: 0, message: "perPage must be at least 1, got 0"},
		{name: "per page over cap", search: "existing", order: "asc", perPage: 101, message: "perPage must be at most 100, got 101"},
		{name: "negative threshold", search: "min_amount", order: "asc", perPage: 10, minAmount: intPtr(-3), message: "minAmount must be non-negative, got -3"},
		{name: "page overflows offset", search: "existing", order: "asc", page: 1 << 30, perPage: 100, message: "page 1073741824 is out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.Build(tt.search, tt.order, tt.page, tt.perPage, tt.minAmount)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.EqualError(t, err, tt.message)

			var pe *ProductError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, OpQuery, pe.Op)
		})
	}
}

func TestQueryFactory_NoCap(t *testing.T) {
	q, err := QueryFactory{}.Build("existing", "asc", 0, 10000, nil)
	require.NoError(t, err)
	assert.Equal(t, 10000, q.Limit())
	assert.Equal(t, 0, q.MinAmount)
}

func TestProductQuery_Matches(t *testing.T) {
	empty := Product{ID: 1, Name: "Ghost", Amount: 0}
	few := Product{ID: 2, Name: "Bolt", Amount: 3}
	many := Product{ID: 3, Name: "Widget", Amount: 5}

	existing := ProductQuery{Mode: SearchExisting}
	assert.False(t, existing.Matches(empty))
	assert.True(t, existing.Matches(few))
	assert.True(t, existing.Matches(many))

	nonExisting := ProductQuery{Mode: SearchNonExisting}
	assert.True(t, nonExisting.Matches(empty))
	assert.False(t, nonExisting.Matches(few))

	minAmount := ProductQuery{Mode: SearchMinAmount, MinAmount: 5}
	assert.False(t, minAmount.Matches(few))
	assert.True(t, minAmount.Matches(many), "threshold is inclusive")
}

func TestProductQuery_OffsetAndCacheKey(t *testing.T) {
	q := ProductQuery{Mode: SearchExisting, Order: OrderAscending, Page: 3, PerPage: 7, MinAmount: 5}
	assert.Equal(t, 21, q.Offset())
	assert.Equal(t, 7, q.Limit())
	assert.Equal(t, "existing:asc:3:7", q.CacheKey())

	q.Mode = SearchMinAmount
	assert.Equal(t, "min_amount:5:asc:3:7", q.CacheKey())
}
