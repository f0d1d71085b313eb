package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog. Stock doubles as the
// availability flag: 0 or NULL means "not available", any positive value
// means "available".
type Product struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description" db:"description"`
	Price       float64    `json:"price" db:"price"`
	ImageURL    *string    `json:"image_url" db:"image_url"`
	CategoryID  *uuid.UUID `json:"category_id" db:"category_id"`
	Stock       *int       `json:"stock" db:"stock"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Available reports the binary reading of the stock column.
func (p *Product) Available() bool {
	return p.Stock != nil && *p.Stock > 0
}

// Category represents a product category
type Category struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Description  *string   `json:"description" db:"description"`
	DisplayOrder *int      `json:"display_order" db:"display_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
