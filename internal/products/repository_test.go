package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/db/dbtest"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
)

func seedProduct(t *testing.T, conn *gorm.DB, vendorID uuid.UUID, name string, stock int64, approved bool) *models.Product {
	t.Helper()
	product := &models.Product{
		VendorID:   vendorID,
		VendorName: "Kuku Bora",
		Name:       name,
		Price:      12000,
		Stock:      stock,
		Category:   "kuku",
		Unit:       enums.UnitPiece,
		Approved:   approved,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func TestDecrementStockGuardsAvailability(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	product := seedProduct(t, conn, uuid.New(), "Kuku wa kienyeji", 10, true)

	ok, err := repo.DecrementStock(ctx, product.ID, 6)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, product.ID, 6)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DecrementStock(ctx, product.ID, 4)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reloaded.Stock)
}

func TestListFiltersAndSearch(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	vendor := uuid.New()
	seedProduct(t, conn, vendor, "Kuku wa Kienyeji", 5, true)
	seedProduct(t, conn, vendor, "Mayai Tray", 5, true)
	seedProduct(t, conn, vendor, "Kuku Hidden", 5, false)

	rows, _, err := repo.List(ctx, ListFilter{ApprovedOnly: true, Query: "KIENYEJI"}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Kuku wa Kienyeji", rows[0].Name)

	rows, _, err = repo.List(ctx, ListFilter{ApprovedOnly: true, Query: "bora"}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	count, err := repo.Count(ctx, ListFilter{VendorID: &vendor})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	vendor := uuid.New()
	for _, name := range []string{"a", "b", "c"} {
		seedProduct(t, conn, vendor, name, 1, true)
	}

	first, next, err := repo.List(ctx, ListFilter{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, next)

	second, next, err := repo.List(ctx, ListFilter{}, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Empty(t, next)

	seen := map[uuid.UUID]bool{}
	for _, p := range append(first, second...) {
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
	}
	assert.False(t, first[0].CreatedAt.Before(first[1].CreatedAt))
}

func TestUpdateVendorFeesTouchesOnlyThatVendor(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	mine := seedProduct(t, conn, uuid.New(), "mine", 1, true)
	other := seedProduct(t, conn, uuid.New(), "other", 1, true)

	require.NoError(t, repo.UpdateVendorFees(ctx, mine.VendorID, 3000, 8000))

	reloaded, err := repo.FindByID(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), reloaded.DeliveryCityFee)
	assert.Equal(t, int64(8000), reloaded.DeliveryOutFee)

	untouched, err := repo.FindByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Zero(t, untouched.DeliveryCityFee)
}
