package models

import "time"

// Farmer is the model for the 'farmers' table.
type Farmer struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Location  *string   `json:"location" db:"location"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// NewFarmer holds the fields accepted when inserting a farmer.
type NewFarmer struct {
	Name     string
	Email    string
	Location *string
}

// FarmerUpdate carries a partial update. Nil fields are left untouched.
type FarmerUpdate struct {
	Name     *string `json:"name" binding:"omitempty,notblank"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Location *string `json:"location"`
}
