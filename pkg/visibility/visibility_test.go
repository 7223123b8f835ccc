package visibility

import (
	"testing"

	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	"github.com/kukumart/marketplace-backend/pkg/errors"
)

func TestEnsureProductVisible(t *testing.T) {
	vendorID := uuid.New()
	hidden := &models.Product{ID: uuid.New(), VendorID: vendorID}
	approved := &models.Product{ID: uuid.New(), VendorID: vendorID, Approved: true}

	cases := []struct {
		name    string
		product *models.Product
		viewer  Viewer
		wantErr bool
	}{
		{name: "approved anonymous", product: approved},
		{name: "hidden anonymous", product: hidden, wantErr: true},
		{name: "hidden other buyer", product: hidden, viewer: Viewer{UserID: uuid.New(), Role: enums.RoleUser}, wantErr: true},
		{name: "hidden owner", product: hidden, viewer: Viewer{UserID: vendorID, Role: enums.RoleVendor}},
		{name: "hidden admin", product: hidden, viewer: Viewer{UserID: uuid.New(), Role: enums.RoleAdmin}},
		{name: "missing", product: nil, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := EnsureProductVisible(tc.product, tc.viewer)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if typed := errors.As(err); typed == nil || typed.Code() != errors.CodeNotFound {
					t.Fatalf("expected not found, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEnsureOrderVisible(t *testing.T) {
	order := &models.Order{ID: uuid.New(), UserID: uuid.New(), VendorID: uuid.New()}

	if err := EnsureOrderVisible(order, Viewer{UserID: order.UserID, Role: enums.RoleUser}); err != nil {
		t.Fatalf("buyer should see order: %v", err)
	}
	if err := EnsureOrderVisible(order, Viewer{UserID: order.VendorID, Role: enums.RoleVendor}); err != nil {
		t.Fatalf("vendor should see order: %v", err)
	}
	if err := EnsureOrderVisible(order, Viewer{UserID: uuid.New(), Role: enums.RoleAdmin}); err != nil {
		t.Fatalf("admin should see order: %v", err)
	}
	if err := EnsureOrderVisible(order, Viewer{UserID: uuid.New(), Role: enums.RoleVendor}); err == nil {
		t.Fatal("other vendor must not see order")
	}
}
