package product

import (
	"github.com/google/uuid"
)

// ListFilter describes the supported filter knobs for the browse endpoints.
type ListFilter struct {
	VendorID     *uuid.UUID
	ApprovedOnly bool
	Category     string
	// Query matches product name or shop name, case-insensitive.
	Query string
}
