package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/pkg/db"
	"github.com/kukumart/marketplace-backend/pkg/db/dbtest"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
)

func setup(t *testing.T) (Service, *gorm.DB, *models.User, *models.Product) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn))
	require.NoError(t, err)

	buyer := &models.User{Email: "amina@example.com", PasswordHash: "hash", Name: "Amina", Role: enums.RoleUser}
	require.NoError(t, conn.Create(buyer).Error)
	item := &models.Product{
		VendorID:   uuid.New(),
		VendorName: "Kuku Bora",
		Name:       "Mayai ya kienyeji",
		Price:      15000,
		Stock:      4,
		Unit:       enums.UnitTray,
		Approved:   true,
	}
	require.NoError(t, conn.Create(item).Error)
	return svc, conn, buyer, item
}

func TestCreateAndList(t *testing.T) {
	svc, _, buyer, item := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, item.ID, buyer.ID, CreateInput{Rating: 5, Text: "Mazuri sana"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, item.ID, buyer.ID, CreateInput{Rating: 4, Text: "  Safi  "})
	require.NoError(t, err)
	assert.Equal(t, "Safi", second.Text)
	assert.Equal(t, "Amina", second.UserName)

	page, err := svc.ListByProduct(ctx, item.ID, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.NotEmpty(t, page.NextCursor)
}

func TestCreateValidates(t *testing.T) {
	svc, _, buyer, item := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, item.ID, buyer.ID, CreateInput{Rating: 6, Text: "ok"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Create(ctx, item.ID, buyer.ID, CreateInput{Rating: 3, Text: " "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Create(ctx, uuid.New(), buyer.ID, CreateInput{Rating: 3, Text: "ok"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestToggleLike(t *testing.T) {
	svc, _, buyer, item := setup(t)
	ctx := context.Background()
	review, err := svc.Create(ctx, item.ID, buyer.ID, CreateInput{Rating: 5, Text: "Nzuri"})
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, review.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{buyer.ID.String()}, liked.Likes)

	unliked, err := svc.ToggleLike(ctx, review.ID, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)
}

func TestDeleteAuthorOrAdmin(t *testing.T) {
	svc, _, buyer, item := setup(t)
	ctx := context.Background()
	review, err := svc.Create(ctx, item.ID, buyer.ID, CreateInput{Rating: 2, Text: "Wamechelewa"})
	require.NoError(t, err)

	err = svc.Delete(ctx, review.ID, uuid.New(), enums.RoleUser)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	require.NoError(t, svc.Delete(ctx, review.ID, uuid.New(), enums.RoleAdmin))
	err = svc.Delete(ctx, review.ID, buyer.ID, enums.RoleUser)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
