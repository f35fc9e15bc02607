package usecase

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/mrEvil84/BlueStorage/internal/domain"
)

const maxNameLength = 255

type ProductUseCase interface {
	Search(ctx context.Context, query domain.ProductQuery) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, cmd domain.CreateProductCommand) (*domain.Product, error)
	UpdateProduct(ctx context.Context, cmd domain.UpdateProductCommand) (*domain.Product, error)
	DeleteProduct(ctx context.Context, cmd domain.DeleteProductCommand) error
	// Execute runs any command and returns its status token.
	Execute(ctx context.Context, cmd domain.Command) (string, error)
	Ping(ctx context.Context) error
}

// SearchCache serves search pages. Implementations must be safe for
// concurrent use.
type SearchCache interface {
	Fetch(ctx context.Context, key string, load func(context.Context) ([]domain.Product, error)) ([]domain.Product, error)
	Invalidate(ctx context.Context) error
}

type productUseCase struct {
	productRepo domain.ProductRepository
	cache       SearchCache
	searches    singleflight.Group

	// generation counts committed mutations. It is part of the singleflight
	// key so a search started after a write never joins one started before.
	generation atomic.Uint64
	log        *logrus.Logger
}

// NewProductUseCase builds the product service. cache may be nil.
func NewProductUseCase(repo domain.ProductRepository, cache SearchCache, logger *logrus.Logger) ProductUseCase {
	return &productUseCase{
		productRepo: repo,
		cache:       cache,
		log:         logger,
	}
}

func (uc *productUseCase) Search(ctx context.Context, query domain.ProductQuery) ([]domain.Product, error) {
	key := query.CacheKey()
	uc.log.Debugf("Use Case: Searching products (%s)", key)

	// identical concurrent searches share one store round trip
	flightKey := strconv.FormatUint(uc.generation.Load(), 10) + ":" + key
	v, err, shared := uc.searches.Do(flightKey, func() (interface{}, error) {
		load := func(ctx context.Context) ([]domain.Product, error) {
			return uc.productRepo.Search(ctx, query)
		}
		if uc.cache != nil {
			return uc.cache.Fetch(ctx, key, load)
		}
		return load(ctx)
	})
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to search products (%s): %v", key, err)
		return nil, storeError(domain.OpSearch, err)
	}

	products := v.([]domain.Product)
	if shared {
		// callers must not alias each other's result
		products = append([]domain.Product(nil), products...)
	}
	if products == nil {
		products = []domain.Product{}
	}
	uc.log.Infof("Use Case: Retrieved %d products (%s)", len(products), key)
	return products, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if err := validateID(domain.OpGet, id); err != nil {
		uc.log.Warnf("Use Case: Attempted to get product with invalid ID: %d", id)
		return nil, err
	}

	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			uc.log.Warnf("Use Case: Product ID %d not found", id)
			return nil, domain.NotFound(domain.OpGet, id)
		}
		uc.log.Errorf("Use Case: Repository failed to get product ID %d: %v", id, err)
		return nil, storeError(domain.OpGet, err)
	}
	return product, nil
}

func (uc *productUseCase) CreateProduct(ctx context.Context, cmd domain.CreateProductCommand) (*domain.Product, error) {
	name, amount, err := validateFields(domain.OpAdd, cmd.Name, cmd.Amount)
	if err != nil {
		uc.log.Warnf("Use Case: Rejected product creation: %v", err)
		return nil, err
	}

	product := &domain.Product{Name: name, Amount: amount}
	uc.log.Infof("Use Case: Attempting to create product '%s'", name)
	if err := uc.productRepo.Create(ctx, product); err != nil {
		uc.log.Errorf("Use Case: Repository failed to create product '%s': %v", name, err)
		return nil, storeError(domain.OpAdd, err)
	}

	uc.invalidate(ctx)
	uc.log.Infof("Use Case: Product '%s' created successfully with ID %d", product.Name, product.ID)
	return product, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, cmd domain.UpdateProductCommand) (*domain.Product, error) {
	if err := validateID(domain.OpUpdate, cmd.ID); err != nil {
		uc.log.Warnf("Use Case: Attempted update with invalid product ID: %d", cmd.ID)
		return nil, err
	}
	name, amount, err := validateFields(domain.OpUpdate, cmd.Name, cmd.Amount)
	if err != nil {
		uc.log.Warnf("Use Case: Rejected update of product ID %d: %v", cmd.ID, err)
		return nil, err
	}

	product := domain.Product{ID: cmd.ID, Name: name, Amount: amount}
	uc.log.Infof("Use Case: Attempting to update product ID %d", cmd.ID)
	if err := uc.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			uc.log.Warnf("Use Case: Product ID %d not found for update", cmd.ID)
			return nil, domain.NotFound(domain.OpUpdate, cmd.ID)
		}
		uc.log.Errorf("Use Case: Repository failed to update product ID %d: %v", cmd.ID, err)
		return nil, storeError(domain.OpUpdate, err)
	}

	uc.invalidate(ctx)
	uc.log.Infof("Use Case: Product updated successfully for ID %d", cmd.ID)
	return &product, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, cmd domain.DeleteProductCommand) error {
	if err := validateID(domain.OpDelete, cmd.ID); err != nil {
		uc.log.Warnf("Use Case: Attempted delete with invalid product ID: %d", cmd.ID)
		return err
	}

	uc.log.Infof("Use Case: Attempting to delete product ID %d", cmd.ID)
	if err := uc.productRepo.Delete(ctx, cmd.ID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			uc.log.Warnf("Use Case: Product ID %d not found for delete", cmd.ID)
			return domain.NotFound(domain.OpDelete, cmd.ID)
		}
		uc.log.Errorf("Use Case: Repository failed to delete product ID %d: %v", cmd.ID, err)
		return storeError(domain.OpDelete, err)
	}

	uc.invalidate(ctx)
	uc.log.Infof("Use Case: Product deleted successfully for ID %d", cmd.ID)
	return nil
}

func (uc *productUseCase) Execute(ctx context.Context, cmd domain.Command) (string, error) {
	var err error
	switch c := cmd.(type) {
	case domain.CreateProductCommand:
		_, err = uc.CreateProduct(ctx, c)
	case domain.UpdateProductCommand:
		_, err = uc.UpdateProduct(ctx, c)
	case domain.DeleteProductCommand:
		err = uc.DeleteProduct(ctx, c)
	default:
		return "", domain.Unexpected("", errors.New("unsupported command"))
	}
	if err != nil {
		return "", err
	}
	return cmd.Status(), nil
}

func (uc *productUseCase) Ping(ctx context.Context) error {
	return uc.productRepo.Ping(ctx)
}

// invalidate drops cached search pages after a committed mutation. Failures
// are logged, not returned.
func (uc *productUseCase) invalidate(ctx context.Context) {
	uc.generation.Add(1)
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.log.Errorf("Use Case: Failed to invalidate search cache: %v", err)
	}
}

func validateID(op domain.Op, id int64) error {
	if id <= 0 {
		return domain.Validationf(op, "product id must be positive, got %d", id)
	}
	return nil
}

func validateFields(op domain.Op, rawName, rawAmount string) (string, int, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return "", 0, domain.Validationf(op, "name must not be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", 0, domain.Validationf(op, "name must be at most %d characters", maxNameLength)
	}

	trimmed := strings.TrimSpace(rawAmount)
	if trimmed == "" {
		return "", 0, domain.Validationf(op, "amount must not be empty")
	}
	amount, err := strconv.Atoi(trimmed)
	if err != nil {
		return "", 0, domain.Validationf(op, "amount must be an integer, got %q", rawAmount)
	}
	if amount < 0 {
		return "", 0, domain.Validationf(op, "amount must be non-negative")
	}
	if amount > math.MaxInt32 {
		return "", 0, domain.Validationf(op, "amount must be at most %d", math.MaxInt32)
	}
	return name, amount, nil
}

// storeError passes classified errors through and reports anything else as
// a store failure.
func storeError(op domain.Op, err error) error {
	var pe *domain.ProductError
	if errors.As(err, &pe) {
		return pe
	}
	return domain.StoreFailure(op, err)
}
