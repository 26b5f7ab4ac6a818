package services

import (
	"encoding/json"
	"time"

	"github.com/iota-uz/iota-catalog/modules/catalog/domain/aggregates/product"
)

// ProductPayload is the API representation of a product. Cached list,
// detail and search responses hold it in encoded form.
type ProductPayload struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func ToPayload(p product.Product) ProductPayload {
	return ProductPayload{
		ID:          p.ID(),
		Name:        p.Name(),
		Description: p.Description(),
		Price:       p.Price().StringFixed(2),
		IsActive:    p.IsActive(),
		CreatedAt:   p.CreatedAt().UTC().Format(time.RFC3339Nano),
		UpdatedAt:   p.UpdatedAt().UTC().Format(time.RFC3339Nano),
	}
}

func encodeProducts(products []product.Product) ([]byte, error) {
	out := make([]ProductPayload, 0, len(products))
	for _, p := range products {
		out = append(out, ToPayload(p))
	}
	return json.Marshal(out)
}

func encodeProduct(p product.Product) ([]byte, error) {
	return json.Marshal(ToPayload(p))
}
