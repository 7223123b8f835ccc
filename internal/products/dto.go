package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID              uuid.UUID         `json:"id"`
	VendorID        uuid.UUID         `json:"vendor_id"`
	VendorName      string            `json:"vendor_name"`
	Name            string            `json:"name"`
	Price           int64             `json:"price"`
	Stock           int64             `json:"stock"`
	Category        string            `json:"category"`
	Unit            enums.ProductUnit `json:"unit"`
	Emoji           string            `json:"emoji"`
	Image           string            `json:"image"`
	Description     string            `json:"description"`
	Location        string            `json:"location"`
	Region          string            `json:"region"`
	Approved        bool              `json:"approved"`
	DeliveryCityFee int64             `json:"delivery_city_fee"`
	DeliveryOutFee  int64             `json:"delivery_out_fee"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// FromModel converts a product row into its API payload.
func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:              p.ID,
		VendorID:        p.VendorID,
		VendorName:      p.VendorName,
		Name:            p.Name,
		Price:           p.Price,
		Stock:           p.Stock,
		Category:        p.Category,
		Unit:            p.Unit,
		Emoji:           p.Emoji,
		Image:           p.Image,
		Description:     p.Description,
		Location:        p.Location,
		Region:          p.Region,
		Approved:        p.Approved,
		DeliveryCityFee: p.DeliveryCityFee,
		DeliveryOutFee:  p.DeliveryOutFee,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string            `json:"name" validate:"required,max=160"`
	Price       int64             `json:"price" validate:"required,gt=0"`
	Stock       int64             `json:"stock" validate:"gte=0"`
	Category    string            `json:"category" validate:"max=60"`
	Unit        enums.ProductUnit `json:"unit" validate:"required"`
	Emoji       string            `json:"emoji"`
	Image       string            `json:"image" validate:"omitempty,url"`
	Description string            `json:"description" validate:"max=2000"`
	Location    string            `json:"location"`
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string            `json:"name,omitempty" validate:"omitempty,max=160"`
	Price       *int64             `json:"price,omitempty" validate:"omitempty,gt=0"`
	Stock       *int64             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Category    *string            `json:"category,omitempty" validate:"omitempty,max=60"`
	Unit        *enums.ProductUnit `json:"unit,omitempty"`
	Emoji       *string            `json:"emoji,omitempty"`
	Image       *string            `json:"image,omitempty"`
	Description *string            `json:"description,omitempty" validate:"omitempty,max=2000"`
	Location    *string            `json:"location,omitempty"`
}

// VisibilityInput is the admin approve/hide toggle.
type VisibilityInput struct {
	Approved bool `json:"approved"`
}
