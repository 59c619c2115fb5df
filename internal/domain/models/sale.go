package models

import "time"

// Sale represents one recorded sales transaction.
//
// TotalPrice is kept consistent with UnitPrice*Quantity by the pricing
// resolver at write time; reads trust the stored values.
//
// swagger:model Sale
type Sale struct {
	ID          int64     `json:"id" example:"42"`
	ProductName string    `json:"product_name" example:"Espresso Machine"`
	UnitPrice   float64   `json:"unit_price" example:"249.90"`
	Quantity    int       `json:"quantity" example:"3"`
	TotalPrice  float64   `json:"total_price" example:"749.70"`
	TaxPercent  float64   `json:"tax_percent" example:"10"`
	CreatedAt   time.Time `json:"created_at"`
}
