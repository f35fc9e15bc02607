package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrEvil84/BlueStorage/internal/domain"
	"github.com/mrEvil84/BlueStorage/pkg/db"
)

// setupGormRepo creates a migrated in-memory sqlite store.
func setupGormRepo(t *testing.T) *GormProductRepository {
	t.Helper()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger, _ := test.NewNullLogger()
	repo := NewGormProductRepository(gdb, logger)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func seed(t *testing.T, repo domain.ProductRepository, amounts ...int) []domain.Product {
	t.Helper()
	ctx := context.Background()
	products := make([]domain.Product, 0, len(amounts))
	for i, amount := range amounts {
		p := domain.Product{Name: fmt.Sprintf("product-%d", i), Amount: amount}
		require.NoError(t, repo.Create(ctx, &p))
		products = append(products, p)
	}
	return products
}

func TestGormProductRepository_CreateAssignsIDs(t *testing.T) {
	repo := setupGormRepo(t)
	ctx := context.Background()

	first := domain.Product{Name: "Widget", Amount: 5}
	second := domain.Product{Name: "Ghost", Amount: 0}
	require.NoError(t, repo.Create(ctx, &first))
	require.NoError(t, repo.Create(ctx, &second))

	assert.Positive(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	found, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *found)
}

func TestGormProductRepository_CreateRejectsNegativeAmount(t *testing.T) {
	repo := setupGormRepo(t)

	err := repo.Create(context.Background(), &domain.Product{Name: "Broken", Amount: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestGormProductRepository_Search(t *testing.T) {
	repo := setupGormRepo(t)
	ctx := context.Background()
	seed(t, repo, 0, 3, 5, 0, 10, 1)

	t.Run("existing", func(t *testing.T) {
		got, err := repo.Search(ctx, domain.ProductQuery{Mode: domain.SearchExisting, Order: domain.OrderAscending, PerPage: 10})
		require.NoError(t, err)
		assert.Equal(t, []int{3, 5, 10, 1}, amounts(got))
	})

	t.Run("non existing descending", func(t *testing.T) {
		got, err := repo.Search(ctx, domain.ProductQuery{Mode: domain.SearchNonExisting, Order: domain.OrderDescending, PerPage: 10})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Greater(t, got[0].ID, got[1].ID)
	})

	t.Run("min amount inclusive", func(t *testing.T) {
		got, err := repo.Search(ctx, domain.ProductQuery{Mode: domain.SearchMinAmount, Order: domain.OrderAscending, PerPage: 10, MinAmount: 5})
		require.NoError(t, err)
		assert.Equal(t, []int{5, 10}, amounts(got))
	})

	t.Run("page beyond end is empty", func(t *testing.T) {
		got, err := repo.Search(ctx, domain.ProductQuery{Mode: domain.SearchExisting, Order: domain.OrderAscending, Page: 5, PerPage: 10})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestGormProductRepository_PagesPartitionResults(t *testing.T) {
	repo := setupGormRepo(t)
	ctx := context.Background()
	seeded := seed(t, repo, 1, 0, 2, 3, 0, 4, 5, 6, 0, 7, 8)

	for _, order := range []domain.SortOrder{domain.OrderAscending, domain.OrderDescending} {
		t.Run(string(order), func(t *testing.T) {
			seen := map[int64]bool{}
			var lastID int64
			for page := 0; ; page++ {
				q := domain.ProductQuery{Mode: domain.SearchExisting, Order: order, Page: page, PerPage: 3}
				got, err := repo.Search(ctx, q)
				require.NoError(t, err)
				assert.LessOrEqual(t, len(got), q.PerPage)
				if len(got) == 0 {
					break
				}
				for _, p := range got {
					assert.True(t, q.Matches(p))
					assert.False(t, seen[p.ID], "product %d returned twice", p.ID)
					if lastID != 0 {
						if order == domain.OrderAscending {
							assert.Greater(t, p.ID, lastID)
						} else {
							assert.Less(t, p.ID, lastID)
						}
					}
					lastID = p.ID
					seen[p.ID] = true
				}
			}

			want := 0
			for _, p := range seeded {
				if p.Amount > 0 {
					want++
					assert.True(t, seen[p.ID], "product %d missing from pages", p.ID)
				}
			}
			assert.Len(t, seen, want)
		})
	}
}

func TestGormProductRepository_Update(t *testing.T) {
	repo := setupGormRepo(t)
	ctx := context.Background()
	p := seed(t, repo, 5)[0]

	require.NoError(t, repo.Update(ctx, domain.Product{ID: p.ID, Name: "Renamed", Amount: 0}))

	found, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", found.Name)
	assert.Equal(t, 0, found.Amount)

	err = repo.Update(ctx, domain.Product{ID: 999, Name: "Nobody", Amount: 1})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGormProductRepository_Delete(t *testing.T) {
	repo := setupGormRepo(t)
	ctx := context.Background()
	p := seed(t, repo, 5)[0]

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), domain.ErrProductNotFound)

	_, err := repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGormProductRepository_Ping(t *testing.T) {
	repo := setupGormRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
}

func amounts(products []domain.Product) []int {
	out := make([]int, 0, len(products))
	for _, p := range products {
		out = append(out, p.Amount)
	}
	return out
}
