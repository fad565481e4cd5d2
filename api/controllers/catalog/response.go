package catalog

import (
	catalogsvc "github.com/arcanium-studios/arcanium-backend/internal/catalog"
)

type ProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

type ProductListResponse struct {
	Category   string            `json:"category"`
	Categories []string          `json:"categories"`
	Products   []ProductResponse `json:"products"`
}

func newProductResponse(p catalogsvc.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price.StringFixed(2),
		Image:       p.Image,
		Description: p.Description,
	}
}
