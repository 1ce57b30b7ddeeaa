package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ShopyKart/internal/domain"
	"github.com/utafrali/ShopyKart/internal/repository"
	apperrors "github.com/utafrali/ShopyKart/pkg/errors"
	"github.com/utafrali/ShopyKart/pkg/pagination"
)

func TestProductRepository_CRUD(t *testing.T) {
	repo := NewProductRepository()
	ctx := context.Background()

	p := &domain.Product{
		ID:             "prod-1",
		Name:           "Kettle",
		Category:       "Kitchen",
		Price:          2500,
		Specifications: map[string]string{"capacity": "1.7L"},
		CreatedAt:      t0,
	}
	require.NoError(t, repo.Create(ctx, p))
	assert.ErrorIs(t, repo.Create(ctx, p), apperrors.ErrAlreadyExists)

	p.Specifications["capacity"] = "changed"
	got, err := repo.GetByID(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "1.7L", got.Specifications["capacity"])

	got.Price = 2000
	require.NoError(t, repo.Update(ctx, got))
	again, _ := repo.GetByID(ctx, "prod-1")
	assert.Equal(t, int64(2000), again.Price)

	require.NoError(t, repo.Delete(ctx, "prod-1"))
	_, err = repo.GetByID(ctx, "prod-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, got), apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "prod-1"), apperrors.ErrNotFound)
}

func TestProductRepository_List(t *testing.T) {
	repo := NewProductRepository()
	ctx := context.Background()

	items := []domain.Product{
		{ID: "p1", Category: "kitchen", Featured: true, CreatedAt: t0},
		{ID: "p2", Category: "Kitchen", CreatedAt: t0.Add(time.Hour)},
		{ID: "p3", Category: "garden", Featured: true, CreatedAt: t0.Add(2 * time.Hour)},
	}
	for i := range items {
		require.NoError(t, repo.Create(ctx, &items[i]))
	}

	got, total, err := repo.List(ctx, repository.ProductFilter{Category: "KITCHEN"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[0].ID)

	featured := true
	got, total, err = repo.List(ctx, repository.ProductFilter{Featured: &featured, Page: pagination.Params{Page: 1, PerPage: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, got, 1)
	assert.Equal(t, "p3", got[0].ID)
}

func TestAccountRepository(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	a := &domain.Account{ID: "acc-1", Email: "ann@example.com", Role: domain.RoleUser, CreatedAt: t0}
	require.NoError(t, repo.Create(ctx, a))

	dup := &domain.Account{ID: "acc-2", Email: "ann@example.com"}
	assert.ErrorIs(t, repo.Create(ctx, dup), apperrors.ErrAlreadyExists)

	byEmail, err := repo.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", byEmail.ID)

	byID, err := repo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", byID.Email)

	_, err = repo.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repo.GetByID(ctx, "acc-9")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.Create(ctx, &domain.Account{ID: "acc-3", Email: "cy@example.com", CreatedAt: t0.Add(time.Minute)}))
	list, total, err := repo.List(ctx, pagination.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "acc-1", list[0].ID)
}
