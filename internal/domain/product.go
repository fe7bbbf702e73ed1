package domain

import "time"

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	VendorID    string    `json:"vendorId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

func (p Product) Validate() error {
	if p.Name == "" || p.Price <= 0 || p.Stock < 0 {
		return ErrInvalidProduct
	}
	return nil
}

// ProductPatch is a merge patch for catalog edits.
type ProductPatch struct {
	Name        *string `json:"name,omitempty"`
	Price       *int64  `json:"price,omitempty"`
	Stock       *int    `json:"stock,omitempty"`
	Category    *string `json:"category,omitempty"`
	Subcategory *string `json:"subcategory,omitempty"`
	Unit        *string `json:"unit,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
}

func (p ProductPatch) Apply(product Product) Product {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Subcategory != nil {
		product.Subcategory = *p.Subcategory
	}
	if p.Unit != nil {
		product.Unit = *p.Unit
	}
	if p.ImageURL != nil {
		product.ImageURL = *p.ImageURL
	}
	return product
}
