package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mrEvil84/BlueStorage/internal/domain"
)

// productRecord is the gorm model of the products table.
type productRecord struct {
	ID     int64  `gorm:"primaryKey;autoIncrement"`
	Name   string `gorm:"size:255;not null;check:name <> ''"`
	Amount int    `gorm:"not null;default:0;check:amount >= 0"`
}

func (productRecord) TableName() string {
	return productsTable
}

func (p productRecord) toDomain() domain.Product {
	return domain.Product{ID: p.ID, Name: p.Name, Amount: p.Amount}
}

// GormProductRepository stores products through gorm. It backs the sqlite
// store used for local runs and tests.
type GormProductRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewGormProductRepository(db *gorm.DB, logger *logrus.Logger) *GormProductRepository {
	return &GormProductRepository{
		db:  db,
		log: logger,
	}
}

func (r *GormProductRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&productRecord{}); err != nil {
		r.log.Errorf("Repository: Failed to migrate products table: %v", err)
		return fmt.Errorf("could not migrate products table: %w", err)
	}
	return nil
}

func (r *GormProductRepository) Search(ctx context.Context, q domain.ProductQuery) ([]domain.Product, error) {
	pred, err := searchPredicate(q)
	if err != nil {
		return nil, err
	}
	order, err := orderByClause(q)
	if err != nil {
		return nil, err
	}
	where, args, err := pred.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building search predicate: %w", err)
	}

	var records []productRecord
	err = r.db.WithContext(ctx).
		Where(where, args...).
		Order(order).
		Limit(q.Limit()).
		Offset(q.Offset()).
		Find(&records).Error
	if err != nil {
		r.log.Errorf("Repository: Failed to search products (%s): %v", q.CacheKey(), err)
		return nil, fmt.Errorf("could not search products: %w", err)
	}

	products := make([]domain.Product, 0, len(records))
	for _, rec := range records {
		products = append(products, rec.toDomain())
	}
	r.log.Debugf("Repository: Retrieved %d products for %s", len(products), q.CacheKey())
	return products, nil
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var rec productRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with id %d: %w", id, domain.ErrProductNotFound)
		}
		r.log.Errorf("Repository: Failed to get product by ID %d: %v", id, err)
		return nil, fmt.Errorf("could not get product by id: %w", err)
	}
	product := rec.toDomain()
	return &product, nil
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	rec := productRecord{Name: product.Name, Amount: product.Amount}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isSQLiteConstraint(err) {
			r.log.Warnf("Repository: Constraint violation creating product '%s': %v", product.Name, err)
			return fmt.Errorf("%w: %v", domain.ErrConstraintViolation, err)
		}
		r.log.Errorf("Repository: Failed to create product '%s': %v", product.Name, err)
		return fmt.Errorf("could not create product: %w", err)
	}
	product.ID = rec.ID
	r.log.Infof("Repository: Product created with ID: %d, Name: %s", product.ID, product.Name)
	return nil
}

func (r *GormProductRepository) Update(ctx context.Context, product domain.Product) error {
	// A map keeps a zero amount in the SET list; Updates skips zero fields of a struct.
	result := r.db.WithContext(ctx).
		Model(&productRecord{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"name":   product.Name,
			"amount": product.Amount,
		})
	if err := result.Error; err != nil {
		if isSQLiteConstraint(err) {
			r.log.Warnf("Repository: Constraint violation updating product ID %d: %v", product.ID, err)
			return fmt.Errorf("%w: %v", domain.ErrConstraintViolation, err)
		}
		r.log.Errorf("Repository: Failed to update product ID %d: %v", product.ID, err)
		return fmt.Errorf("could not update product: %w", err)
	}
	if result.RowsAffected == 0 {
		r.log.Warnf("Repository: Product with ID %d not found for update", product.ID)
		return fmt.Errorf("product with id %d: %w", product.ID, domain.ErrProductNotFound)
	}
	r.log.Infof("Repository: Product updated with ID: %d", product.ID)
	return nil
}

func (r *GormProductRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&productRecord{}, "id = ?", id)
	if err := result.Error; err != nil {
		r.log.Errorf("Repository: Failed to delete product ID %d: %v", id, err)
		return fmt.Errorf("could not delete product: %w", err)
	}
	if result.RowsAffected == 0 {
		r.log.Warnf("Repository: Attempted to delete non-existent product ID %d", id)
		return fmt.Errorf("product with id %d: %w", id, domain.ErrProductNotFound)
	}
	r.log.Infof("Repository: Product deleted with ID: %d", id)
	return nil
}

func (r *GormProductRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// isSQLiteConstraint matches the driver message; gorm does not translate
// sqlite CHECK failures into a typed error.
func isSQLiteConstraint(err error) bool {
	return strings.Contains(err.Error(), "constraint failed")
}
