// domain/product.go
package domain

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrConstraintViolation = errors.New("product data constraint violation")
)

type Product struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

// ProductRepository is the store capability the product use case depends on.
// Update and Delete return ErrProductNotFound when the id is absent.
type ProductRepository interface {
	Search(ctx context.Context, query ProductQuery) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product Product) error
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}
