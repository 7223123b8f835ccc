package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/kukumart/marketplace-backend/pkg/db/models"
	"github.com/kukumart/marketplace-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials and ledger internals.
type UserDTO struct {
	ID          uuid.UUID           `json:"id"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Role        enums.Role          `json:"role"`
	Contact     string              `json:"contact"`
	HasWhatsApp bool                `json:"has_whatsapp"`
	Avatar      string              `json:"avatar,omitempty"`
	Language    enums.Language      `json:"language"`
	Theme       enums.Theme         `json:"theme"`
	Status      *enums.VendorStatus `json:"status,omitempty"`
	Shop        *ShopDTO            `json:"shop,omitempty"`
	LastLoginAt *time.Time          `json:"last_login_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ShopDTO carries the vendor-only profile fields.
type ShopDTO struct {
	Name            string   `json:"name"`
	Location        string   `json:"location"`
	Region          string   `json:"region"`
	TIN             string   `json:"tin,omitempty"`
	NIDA            string   `json:"nida,omitempty"`
	License         string   `json:"license,omitempty"`
	OpenDays        []string `json:"open_days"`
	OpenTime        string   `json:"open_time"`
	CloseTime       string   `json:"close_time"`
	DeliveryCityFee int64    `json:"delivery_city_fee"`
	DeliveryOutFee  int64    `json:"delivery_out_fee"`
}

// FromModel converts a user row to its public shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	dto := &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Contact:     u.Contact,
		HasWhatsApp: u.HasWhatsApp,
		Avatar:      u.Avatar,
		Language:    u.Language,
		Theme:       u.Theme,
		Status:      u.VendorStatus,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if u.Role == enums.RoleVendor {
		openDays := append([]string{}, u.OpenDays...)
		dto.Shop = &ShopDTO{
			Name:            u.DisplayShopName(),
			Location:        u.Location,
			Region:          u.Region,
			TIN:             u.TIN,
			NIDA:            u.NIDA,
			License:         u.License,
			OpenDays:        openDays,
			OpenTime:        u.OpenTime,
			CloseTime:       u.CloseTime,
			DeliveryCityFee: u.DeliveryCityFee,
			DeliveryOutFee:  u.DeliveryOutFee,
		}
	}
	return dto
}

// ProfileUpdate holds the self-service profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Contact     *string `json:"contact,omitempty" validate:"omitempty,max=32,phone"`
	HasWhatsApp *bool   `json:"has_whatsapp,omitempty"`
	Avatar      *string `json:"avatar,omitempty" validate:"omitempty,url"`
	Language    *string `json:"language,omitempty"`
	Theme       *string `json:"theme,omitempty"`
}

// ShopUpdate holds the vendor shop settings. Nil means unchanged.
type ShopUpdate struct {
	ShopName        *string  `json:"shop_name,omitempty" validate:"omitempty,min=2,max=120"`
	Location        *string  `json:"location,omitempty"`
	Region          *string  `json:"region,omitempty"`
	OpenDays        []string `json:"open_days,omitempty" validate:"omitempty,dive,oneof=Mon Tue Wed Thu Fri Sat Sun"`
	OpenTime        *string  `json:"open_time,omitempty" validate:"omitempty,clock"`
	CloseTime       *string  `json:"close_time,omitempty" validate:"omitempty,clock"`
	DeliveryCityFee *int64   `json:"delivery_city_fee,omitempty" validate:"omitempty,min=0"`
	DeliveryOutFee  *int64   `json:"delivery_out_fee,omitempty" validate:"omitempty,min=0"`
}

// AdminUserUpdate holds the account fields an admin may correct. Nil means
// unchanged.
type AdminUserUpdate struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Contact  *string `json:"contact,omitempty" validate:"omitempty,max=32,phone"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=120"`
	ShopName *string `json:"shop_name,omitempty" validate:"omitempty,min=2,max=120"`
	Region   *string `json:"region,omitempty" validate:"omitempty,max=80"`
}

// VendorDecisionInput is an admin decision on a shop application.
type VendorDecisionInput struct {
	VendorID uuid.UUID
	Decision enums.VendorDecision
	ActorID  uuid.UUID
}
