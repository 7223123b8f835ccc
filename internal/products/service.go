package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kukumart/marketplace-backend/internal/activities"
	"github.com/kukumart/marketplace-backend/internal/users"
	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
	pkgerrors "github.com/kukumart/marketplace-backend/pkg/errors"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/outbox/payloads"
	"github.com/kukumart/marketplace-backend/pkg/pagination"
	"github.com/kukumart/marketplace-backend/pkg/types"
	"github.com/kukumart/marketplace-backend/pkg/visibility"
)

// Service exposes catalog operations for vendors, shoppers and admins.
type Service interface {
	CreateProduct(ctx context.Context, vendorID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, vendorID, productID uuid.UUID) error
	ListVendorProducts(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (types.PageEnvelope[ProductDTO], error)
	ListPublic(ctx context.Context, filter ListFilter, params pagination.Params) (types.PageEnvelope[ProductDTO], error)
	GetProduct(ctx context.Context, productID uuid.UUID, viewer visibility.Viewer) (*ProductDTO, error)
	SetVisibility(ctx context.Context, productID uuid.UUID, approved bool, adminID uuid.UUID) (*ProductDTO, error)
	AdminDelete(ctx context.Context, productID, adminID uuid.UUID) error
	AdminUpdate(ctx context.Context, productID, adminID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	SyncDeliveryFees(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID, cityFee, outFee int64) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo       *Repository
	Users      *users.Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Activities activities.Recorder
	Logger     *logger.Logger
}

type service struct {
	repo       *Repository
	users      *users.Repository
	tx         txRunner
	outbox     outboxPublisher
	activities activities.Recorder
	logg       *logger.Logger
}

var _ users.DeliveryFeeSyncer = (*service)(nil)

// NewService constructs a product service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Activities == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	return &service{
		repo:       params.Repo,
		users:      params.Users,
		tx:         params.Tx,
		outbox:     params.Outbox,
		activities: params.Activities,
		logg:       params.Logger,
	}, nil
}

// CreateProduct lists a new product. It is visible immediately only when the
// vendor is approved; delivery fees are copied from the shop settings.
func (s *service) CreateProduct(ctx context.Context, vendorID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}
	if !input.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
	}

	var created *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		vendor, err := s.loadVendor(ctx, tx, vendorID)
		if err != nil {
			return err
		}
		location := strings.TrimSpace(input.Location)
		if location == "" {
			location = vendor.Location
		}
		product := &models.Product{
			VendorID:        vendor.ID,
			VendorName:      vendor.DisplayShopName(),
			Name:            name,
			Price:           input.Price,
			Stock:           input.Stock,
			Category:        strings.TrimSpace(input.Category),
			Unit:            input.Unit,
			Emoji:           input.Emoji,
			Image:           strings.TrimSpace(input.Image),
			Description:     strings.TrimSpace(input.Description),
			Location:        location,
			Region:          vendor.Region,
			Approved:        vendor.IsApprovedVendor(),
			DeliveryCityFee: vendor.DeliveryCityFee,
			DeliveryOutFee:  vendor.DeliveryOutFee,
		}
		if err := s.repo.WithTx(tx).Create(ctx, product); err != nil {
			return pkgerrors.Persistence(err, "insert product")
		}
		if err := s.activities.Record(ctx, tx, activities.Entry{
			Icon:    activities.IconOrder,
			Text:    fmt.Sprintf("Bidhaa mpya %q imeongezwa na %s", product.Name, product.VendorName),
			ActorID: vendor.ID,
		}); err != nil {
			return err
		}
		created = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(created), nil
}

// UpdateProduct applies the provided fields to a listing owned by vendorID.
func (s *service) UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	return s.update(ctx, productID, vendorID, input, false)
}

// AdminUpdate edits any listing. Admin edits are recorded in the activity
// log and announced to the owning vendor.
func (s *service) AdminUpdate(ctx context.Context, productID, adminID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	return s.update(ctx, productID, adminID, input, true)
}

func (s *service) update(ctx context.Context, productID, actorID uuid.UUID, input UpdateProductInput, byAdmin bool) (*ProductDTO, error) {
	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := loadProduct(ctx, repo, productID)
		if err != nil {
			return err
		}
		if !byAdmin && product.VendorID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another vendor")
		}

		var columns []string
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
			}
			product.Name = name
			columns = append(columns, "name")
		}
		if input.Price != nil {
			if *input.Price <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
			}
			product.Price = *input.Price
			columns = append(columns, "price")
		}
		if input.Stock != nil {
			if *input.Stock < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
			}
			product.Stock = *input.Stock
			columns = append(columns, "stock")
		}
		if input.Unit != nil {
			if !input.Unit.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
			}
			product.Unit = *input.Unit
			columns = append(columns, "unit")
		}
		setString := func(dst *string, src *string, column string) {
			if src == nil {
				return
			}
			*dst = strings.TrimSpace(*src)
			columns = append(columns, column)
		}
		setString(&product.Category, input.Category, "category")
		setString(&product.Emoji, input.Emoji, "emoji")
		setString(&product.Image, input.Image, "image")
		setString(&product.Description, input.Description, "description")
		setString(&product.Location, input.Location, "location")

		if err := repo.Save(ctx, product, columns...); err != nil {
			return pkgerrors.Persistence(err, "update product")
		}
		updated = product
		if !byAdmin || len(columns) == 0 {
			return nil
		}
		if err := s.activities.Record(ctx, tx, activities.Entry{
			Icon:    activities.IconSettings,
			Text:    fmt.Sprintf("Admin amehariri bidhaa %q", product.Name),
			ActorID: actorID,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductUpdated,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.RoleAdmin},
			Audience:      []uuid.UUID{product.VendorID},
			Data:          payloads.ProductUpdatedEvent{ProductID: product.ID, VendorID: product.VendorID, Fields: columns},
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) DeleteProduct(ctx context.Context, vendorID, productID uuid.UUID) error {
	return s.delete(ctx, productID, vendorID, false)
}

func (s *service) AdminDelete(ctx context.Context, productID, adminID uuid.UUID) error {
	return s.delete(ctx, productID, adminID, true)
}

func (s *service) delete(ctx context.Context, productID, actorID uuid.UUID, byAdmin bool) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := loadProduct(ctx, repo, productID)
		if err != nil {
			return err
		}
		if !byAdmin && product.VendorID != actorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another vendor")
		}
		if _, err := repo.Delete(ctx, product.ID); err != nil {
			return pkgerrors.Persistence(err, "delete product")
		}
		if err := s.activities.Record(ctx, tx, activities.Entry{
			Icon:    activities.IconDeleted,
			Text:    fmt.Sprintf("Bidhaa %q imefutwa", product.Name),
			ActorID: actorID,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductDeleted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Actor:         &outbox.ActorRef{UserID: actorID},
			Audience:      []uuid.UUID{product.VendorID},
			Data:          payloads.ProductDeletedEvent{ProductID: product.ID, VendorID: product.VendorID},
		})
	})
}

func (s *service) ListVendorProducts(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (types.PageEnvelope[ProductDTO], error) {
	return s.list(ctx, ListFilter{VendorID: &vendorID}, params)
}

// ListPublic returns approved listings only, whatever the filter says.
func (s *service) ListPublic(ctx context.Context, filter ListFilter, params pagination.Params) (types.PageEnvelope[ProductDTO], error) {
	filter.ApprovedOnly = true
	return s.list(ctx, filter, params)
}

func (s *service) list(ctx context.Context, filter ListFilter, params pagination.Params) (types.PageEnvelope[ProductDTO], error) {
	rows, next, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return types.PageEnvelope[ProductDTO]{}, pkgerrors.Persistence(err, "list products")
	}
	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return types.PageEnvelope[ProductDTO]{Items: items, NextCursor: next}, nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID, viewer visibility.Viewer) (*ProductDTO, error) {
	product, err := loadProduct(ctx, s.repo, productID)
	if err != nil {
		return nil, err
	}
	if err := visibility.EnsureProductVisible(product, viewer); err != nil {
		return nil, err
	}
	return FromModel(product), nil
}

// SetVisibility approves or hides a listing. Setting the current value again
// changes nothing.
func (s *service) SetVisibility(ctx context.Context, productID uuid.UUID, approved bool, adminID uuid.UUID) (*ProductDTO, error) {
	var result *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := loadProduct(ctx, repo, productID)
		if err != nil {
			return err
		}
		result = product
		if product.Approved == approved {
			return nil
		}
		if err := repo.SetApproved(ctx, product.ID, approved); err != nil {
			return pkgerrors.Persistence(err, "update product visibility")
		}
		product.Approved = approved

		entry := activities.Entry{Icon: activities.IconApproved, Text: fmt.Sprintf("Bidhaa %q imeidhinishwa", product.Name), ActorID: adminID}
		if !approved {
			entry = activities.Entry{Icon: activities.IconRejected, Text: fmt.Sprintf("Bidhaa %q imefichwa", product.Name), ActorID: adminID}
		}
		if err := s.activities.Record(ctx, tx, entry); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductVisibility,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: enums.RoleAdmin},
			Audience:      []uuid.UUID{product.VendorID},
			Data:          payloads.ProductVisibilityEvent{ProductID: product.ID, VendorID: product.VendorID, Approved: approved},
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(result), nil
}

// SyncDeliveryFees runs inside the shop settings transaction.
func (s *service) SyncDeliveryFees(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID, cityFee, outFee int64) error {
	if err := s.repo.WithTx(tx).UpdateVendorFees(ctx, vendorID, cityFee, outFee); err != nil {
		return pkgerrors.Persistence(err, "sync delivery fees")
	}
	return nil
}

func (s *service) loadVendor(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) (*models.User, error) {
	vendor, err := s.users.WithTx(tx).FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Persistence(err, "load vendor")
	}
	if vendor.Role != enums.RoleVendor {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only vendors can list products")
	}
	return vendor, nil
}

func loadProduct(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Product, error) {
	product, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Persistence(err, "load product")
	}
	return product, nil
}
