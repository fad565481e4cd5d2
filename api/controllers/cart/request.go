package cart

// AddItemRequest adds one unit of a catalog product. Name, price and image are
// taken from the catalog, never from the client.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64,printascii"`
}

// UpdateQuantityRequest sets an absolute quantity. Zero or less removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// VisibilityRequest opens or closes the cart panel.
type VisibilityRequest struct {
	Open *bool `json:"open" validate:"required"`
}
