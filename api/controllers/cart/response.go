package cart

import (
	cartsvc "github.com/arcanium-studios/arcanium-backend/internal/cart"
)

// LineItemResponse renders a cart line. Prices are decimal strings with two places.
type LineItemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

// CartResponse is the full cart view used by the cart sheet.
type CartResponse struct {
	Items      []LineItemResponse `json:"items"`
	TotalItems int                `json:"total_items"`
	TotalPrice string             `json:"total_price"`
	IsOpen     bool               `json:"is_open"`
}

// SummaryResponse feeds the navigation badge.
type SummaryResponse struct {
	TotalItems int `json:"total_items"`
}

func newCartResponse(snap cartsvc.Snapshot) CartResponse {
	items := make([]LineItemResponse, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, LineItemResponse{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price.StringFixed(2),
			Image:    item.Image,
			Quantity: item.Quantity,
			Subtotal: item.Subtotal().StringFixed(2),
		})
	}
	return CartResponse{
		Items:      items,
		TotalItems: snap.TotalItems,
		TotalPrice: snap.TotalPrice.StringFixed(2),
		IsOpen:     snap.IsOpen,
	}
}
