package statuses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukumart/marketplace-backend/pkg/db"
	"github.com/kukumart/marketplace-backend/pkg/db/dbtest"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
)

func setup(t *testing.T) (Service, *models.User, *models.User) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn))
	require.NoError(t, err)

	approved := enums.VendorStatusApproved
	vendor := &models.User{
		Email:        "juma@kukubora.tz",
		PasswordHash: "hash",
		Name:         "Juma",
		Role:         enums.RoleVendor,
		VendorStatus: &approved,
		ShopName:     "Kuku Bora",
	}
	buyer := &models.User{Email: "amina@example.com", PasswordHash: "hash", Name: "Amina", Role: enums.RoleUser}
	require.NoError(t, conn.Create(vendor).Error)
	require.NoError(t, conn.Create(buyer).Error)
	return svc, vendor, buyer
}

func TestVendorPostsAndBuyersInteract(t *testing.T) {
	svc, vendor, buyer := setup(t)
	ctx := context.Background()

	post, err := svc.Create(ctx, vendor.ID, CreateInput{Text: "Vifaranga vipya leo!"})
	require.NoError(t, err)
	assert.Equal(t, "Kuku Bora", post.VendorName)

	liked, err := svc.ToggleLike(ctx, post.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{buyer.ID.String()}, liked.Likes)

	commented, err := svc.Comment(ctx, post.ID, buyer.ID, CommentInput{Text: "Bei gani?"})
	require.NoError(t, err)
	require.Len(t, commented.Comments, 1)
	assert.Equal(t, "Amina", commented.Comments[0].UserName)
	assert.Equal(t, []string{buyer.ID.String()}, commented.Likes)

	page, err := svc.List(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Len(t, page.Items[0].Comments, 1)
}

func TestCreateRules(t *testing.T) {
	svc, vendor, buyer := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, vendor.ID, CreateInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, buyer.ID, CreateInput{Text: "hello"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestDeleteByOwnerOnly(t *testing.T) {
	svc, vendor, buyer := setup(t)
	ctx := context.Background()
	post, err := svc.Create(ctx, vendor.ID, CreateInput{VideoURL: "https://ik.imagekit.io/kuku/v.mp4"})
	require.NoError(t, err)

	err = svc.Delete(ctx, post.ID, buyer.ID, enums.RoleUser)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	require.NoError(t, svc.Delete(ctx, post.ID, vendor.ID, enums.RoleVendor))

	_, err = svc.ToggleLike(ctx, post.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
