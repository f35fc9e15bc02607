package repository

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mrEvil84/BlueStorage/internal/domain"
)

const productsTable = "products"

var productColumns = []string{"id", "name", "amount"}

// searchPredicate renders the filter of a search mode as a squirrel
// expression with "?" placeholders.
func searchPredicate(q domain.ProductQuery) (sq.Sqlizer, error) {
	switch q.Mode {
	case domain.SearchExisting:
		return sq.Gt{"amount": 0}, nil
	case domain.SearchNonExisting:
		return sq.Eq{"amount": 0}, nil
	case domain.SearchMinAmount:
		return sq.GtOrEq{"amount": q.MinAmount}, nil
	}
	return nil, fmt.Errorf("unsupported search mode %q", q.Mode)
}

// orderByClause sorts on the primary key, which is unique and so gives a
// total order that pages can be cut from.
func orderByClause(q domain.ProductQuery) (string, error) {
	switch q.Order {
	case domain.OrderAscending:
		return "id ASC", nil
	case domain.OrderDescending:
		return "id DESC", nil
	}
	return "", fmt.Errorf("unsupported sort order %q", q.Order)
}

// searchBuilder returns the full SELECT for a query.
func searchBuilder(q domain.ProductQuery) (sq.SelectBuilder, error) {
	pred, err := searchPredicate(q)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	order, err := orderByClause(q)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	return sq.Select(productColumns...).
		From(productsTable).
		Where(pred).
		OrderBy(order).
		Limit(uint64(q.Limit())).
		Offset(uint64(q.Offset())), nil
}
