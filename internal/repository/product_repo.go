package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/mrEvil84/BlueStorage/internal/domain"
)

const productsSchema = `
CREATE TABLE IF NOT EXISTS products (
    id     BIGSERIAL PRIMARY KEY,
    name   VARCHAR(255) NOT NULL CHECK (name <> ''),
    amount INTEGER NOT NULL DEFAULT 0 CHECK (amount >= 0)
)`

// postgres error codes
const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
)

type PostgresProductRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresProductRepository(db *sql.DB, logger *logrus.Logger) *PostgresProductRepository {
	return &PostgresProductRepository{
		db:  db,
		log: logger,
	}
}

// Migrate creates the products table when it does not exist yet.
func (r *PostgresProductRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, productsSchema); err != nil {
		r.log.Errorf("Repository: Failed to migrate products table: %v", err)
		return fmt.Errorf("could not migrate products table: %w", err)
	}
	return nil
}

func (r *PostgresProductRepository) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(r.db)
}

func (r *PostgresProductRepository) Search(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	sel, err := searchBuilder(q)
	if err != nil {
		return nil, err
	}
	rows, err := sel.PlaceholderFormat(sq.Dollar).RunWith(r.db).QueryContext(ctx)
	if err != nil {
		r.log.Errorf("Repository: Failed to search products (%s): %v", q.CacheKey(), err)
		return nil, fmt.Errorf("could not search products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Amount); err != nil {
			r.log.Errorf("Repository: Failed to scan product row: %v", err)
			return nil, fmt.Errorf("error scanning product data: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		r.log.Errorf("Repository: Error during products search iteration: %v", err)
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	r.log.Debugf("Repository: Retrieved %d products for %s", len(products), q.CacheKey())
	return products, nil
}

func (r *PostgresProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	product := &domain.Product{}
	err := r.builder().
		Select(productColumns...).
		From(productsTable).
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&product.ID, &product.Name, &product.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrProductNotFound)
		}
		r.log.Errorf("Repository: Failed to get product by ID %d: %v", id, err)
		return nil, fmt.Errorf("could not get product by id: %w", err)
	}
	return product, nil
}

func (r *PostgresProductRepository) Create(ctx context.Context, product *domain.Product) error {
	err := r.builder().
		Insert(productsTable).
		SetMap(map[string]interface{}{
			"name":   product.Name,
			"amount": product.Amount,
		}).
		Suffix("RETURNING id").
		QueryRowContext(ctx).
		Scan(&product.ID)
	if err != nil {
		if cErr := constraintError(err); cErr != nil {
			r.log.Warnf("Repository: Constraint violation creating product '%s': %v", product.Name, err)
			return cErr
		}
		r.log.Errorf("Repository: Failed to create product '%s': %v", product.Name, err)
		return fmt.Errorf("could not create product: %w", err)
	}
	r.log.Infof("Repository: Product created with ID: %d, Name: %s", product.ID, product.Name)
	return nil
}

// Update rewrites name and amount in a single statement, so the row lock
// taken by postgres serializes racing updates of the same id.
func (r *PostgresProductRepository) Update(ctx context.Context, product domain.Product) error {
	res, err := r.builder().
		Update(productsTable).
		SetMap(map[string]interface{}{
			"name":   product.Name,
			"amount": product.Amount,
		}).
		Where(sq.Eq{"id": product.ID}).
		ExecContext(ctx)
	if err != nil {
		if cErr := constraintError(err); cErr != nil {
			r.log.Warnf("Repository: Constraint violation updating product ID %d: %v", product.ID, err)
			return cErr
		}
		r.log.Errorf("Repository: Failed to update product ID %d: %v", product.ID, err)
		return fmt.Errorf("executing update: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Repository: Product with ID %d not found for update", product.ID)
		return fmt.Errorf("product with id %d: %w", product.ID, domain.ErrProductNotFound)
	}
	r.log.Infof("Repository: Product updated with ID: %d", product.ID)
	return nil
}

func (r *PostgresProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.builder().
		Delete(productsTable).
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	if err != nil {
		r.log.Errorf("Repository: Failed to delete product ID %d: %v", id, err)
		return fmt.Errorf("could not delete product: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not confirm product deletion: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Repository: Attempted to delete non-existent product ID %d", id)
		return fmt.Errorf("product with id %d: %w", id, domain.ErrProductNotFound)
	}
	r.log.Infof("Repository: Product deleted with ID: %d", id)
	return nil
}

func (r *PostgresProductRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func constraintError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}
	switch pqErr.Code {
	case pqCheckViolation, pqUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrConstraintViolation, pqErr.Message)
	}
	return nil
}
