package dto

import "time"

// SaleRequest is the JSON body accepted by POST /sales and PUT /sales/:id.
//
// The pricing fields are pointers so that "absent" and "zero" stay
// distinguishable: the resolver requires at least two of unit_price,
// quantity and total_price and derives the third.
//
// On update, any nil field falls back to the stored value.
//
// swagger:model SaleRequest
type SaleRequest struct {
	ProductName string     `json:"product_name" example:"Espresso Machine"`
	UnitPrice   *float64   `json:"unit_price,omitempty" example:"249.90"`
	Quantity    *int       `json:"quantity,omitempty" example:"3"`
	TotalPrice  *float64   `json:"total_price,omitempty" example:"749.70"`
	TaxPercent  *float64   `json:"tax_percent,omitempty" example:"10"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// Empty reports whether the request carries no fields at all.
// Used by the update handler to reject bodies like "{}".
func (r SaleRequest) Empty() bool {
	return r.ProductName == "" &&
		r.UnitPrice == nil &&
		r.Quantity == nil &&
		r.TotalPrice == nil &&
		r.TaxPercent == nil &&
		r.CreatedAt == nil
}
