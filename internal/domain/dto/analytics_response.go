package dto

import (
	"time"

	"github.com/mfreitas/salesdash/internal/domain/models"
)

// AnalyticsResponse wraps the analytics report in the envelope the
// dashboard consumes.
//
// swagger:model AnalyticsResponse
type AnalyticsResponse struct {
	Success   bool             `json:"success" example:"true"`
	Data      models.Analytics `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewAnalyticsResponse builds a success envelope around an analytics report.
func NewAnalyticsResponse(data models.Analytics) AnalyticsResponse {
	return AnalyticsResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	}
}
