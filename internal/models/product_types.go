package models

import "time"

// Product is the model for the 'products' table.
// Optional columns are pointers so they serialize as null rather than zero values.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	FarmerID    *int64    `json:"farmerId" db:"farmer_id"`
	Name        string    `json:"name" db:"name"`
	Price       float64   `json:"price" db:"price"`
	Description *string   `json:"description" db:"description"`
	Quantity    *int      `json:"quantity" db:"quantity"`
	Category    *string   `json:"category" db:"category"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// NewProduct holds the fields accepted when inserting a product.
type NewProduct struct {
	FarmerID    *int64
	Name        string
	Price       float64
	Description *string
	Quantity    *int
	Category    *string
}

// ProductUpdate carries a partial update. Nil fields are left untouched.
type ProductUpdate struct {
	FarmerID    *int64   `json:"farmerId" binding:"omitempty,gt=0"`
	Name        *string  `json:"name" binding:"omitempty,notblank"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0"`
	Description *string  `json:"description"`
	Quantity    *int     `json:"quantity" binding:"omitempty,gte=0"`
	Category    *string  `json:"category"`
}
