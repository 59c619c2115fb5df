package models

// KPIs holds the scalar metrics computed over the filtered sale set.
//
// NetRevenue adds the tax surcharge on top of gross revenue
// (total_price + total_price * tax_percent / 100 per row).
//
// swagger:model KPIs
type KPIs struct {
	TotalOrders       int64   `json:"totalOrders" example:"120"`
	TotalQuantity     int64   `json:"totalQuantity" example:"340"`
	GrossRevenue      float64 `json:"grossRevenue" example:"15230.50"`
	NetRevenue        float64 `json:"netRevenue" example:"16753.55"`
	AverageOrderValue float64 `json:"averageOrderValue" example:"126.92"`
	AverageUnitPrice  float64 `json:"averageUnitPrice" example:"44.80"`
}

// RevenuePoint is one bucket of a revenue time series. Period is the
// truncated calendar date ("2025-08-31") or month ("2025-08").
type RevenuePoint struct {
	Period  string  `json:"period" example:"2025-08-31"`
	Revenue float64 `json:"revenue" example:"1203.40"`
}

// ProductStats is the per-product rollup over the filtered sale set.
type ProductStats struct {
	ProductName   string  `json:"productName" example:"Espresso Machine"`
	TotalQuantity int64   `json:"totalQuantity" example:"57"`
	TotalRevenue  float64 `json:"totalRevenue" example:"14244.30"`
	AvgUnitPrice  float64 `json:"avgUnitPrice" example:"249.90"`
}

// Analytics is the full report for one date range: scalar KPIs, the
// day and month revenue series (ascending), and the product rollup
// (descending by revenue).
//
// swagger:model Analytics
type Analytics struct {
	KPIs           KPIs           `json:"kpis"`
	RevenueByDay   []RevenuePoint `json:"revenueByDay"`
	RevenueByMonth []RevenuePoint `json:"revenueByMonth"`
	Products       []ProductStats `json:"products"`
}
