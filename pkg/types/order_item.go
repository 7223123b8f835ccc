package types

import "github.com/kukumart/marketplace-backend/pkg/enums"

// OrderItem is the product snapshot stored on an order at checkout time.
// Later product edits never change it.
type OrderItem struct {
	Name  string            `json:"name"`
	Qty   int64             `json:"qty"`
	Price int64             `json:"price"`
	Unit  enums.ProductUnit `json:"unit"`
	Emoji string            `json:"emoji,omitempty"`
	Image string            `json:"image,omitempty"`
}
