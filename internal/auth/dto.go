package auth

import (
	"github.com/kukumart/marketplace-backend/internal/notifications"
	"github.com/kukumart/marketplace-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the access token and the signed-in user.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	ExpiresIn   int64          `json:"expires_in"`
	User        *users.UserDTO `json:"user"`
}

// RegisterRequest creates a buyer account.
type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	Contact     string `json:"contact" validate:"omitempty,max=32,phone"`
	HasWhatsApp bool   `json:"has_whatsapp"`
}

// VendorRegisterRequest is a shop application. The account starts pending.
type VendorRegisterRequest struct {
	ShopName    string   `json:"shop_name" validate:"required,min=2,max=120"`
	OwnerName   string   `json:"owner_name" validate:"required,min=2,max=120"`
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=6"`
	Phone       string   `json:"phone" validate:"required,max=32,phone"`
	HasWhatsApp bool     `json:"has_whatsapp"`
	Location    string   `json:"location" validate:"required"`
	Region      string   `json:"region" validate:"required"`
	TIN         string   `json:"tin"`
	NIDA        string   `json:"nida"`
	License     string   `json:"license"`
	OpenTime    string   `json:"open_time" validate:"omitempty,clock"`
	CloseTime   string   `json:"close_time" validate:"omitempty,clock"`
	OpenDays    []string `json:"open_days" validate:"omitempty,dive,oneof=Mon Tue Wed Thu Fri Sat Sun"`
}

// VendorRegisterResponse signs the vendor in and returns the application
// message for the admin.
type VendorRegisterResponse struct {
	LoginResponse
	WhatsApp *notifications.Outbound `json:"whatsapp"`
}
