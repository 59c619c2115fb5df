// Package service holds the business logic between the HTTP handlers and
// the sales repository: write-side validation and pricing resolution, and
// read-side analytics windowing.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mfreitas/salesdash/internal/domain/dto"
	"github.com/mfreitas/salesdash/internal/domain/models"
	"github.com/mfreitas/salesdash/internal/pricing"
	"github.com/mfreitas/salesdash/internal/storage"
)

// ErrValidation marks caller mistakes (missing fields, bad pricing input,
// unknown range tokens). Handlers map it to 400; storage.ErrNotFound maps
// to 404; everything else is a 500.
var ErrValidation = errors.New("validation failed")

// DefaultRange is used when the analytics endpoint receives no range token.
const DefaultRange = "30d"

// timeNow is an indirection for tests that pin the analytics cutoff.
var timeNow = time.Now

// SalesService defines the operations exposed to the HTTP layer.
type SalesService interface {
	List(ctx context.Context) ([]models.Sale, error)
	Get(ctx context.Context, id int64) (*models.Sale, error)
	Create(ctx context.Context, req dto.SaleRequest) (*models.Sale, error)
	Update(ctx context.Context, id int64, req dto.SaleRequest) (*models.Sale, error)
	Delete(ctx context.Context, id int64) error
	Analytics(ctx context.Context, dateRange string) (*models.Analytics, error)
}

type salesService struct {
	repo storage.SalesRepository
}

func NewSalesService(repo storage.SalesRepository) SalesService {
	return &salesService{repo: repo}
}

func (s *salesService) List(_ context.Context) ([]models.Sale, error) {
	return s.repo.FindAll()
}

func (s *salesService) Get(_ context.Context, id int64) (*models.Sale, error) {
	return s.repo.FindByID(id)
}

// Create validates the request, resolves the pricing triple, and persists
// the sale. Resolution happens before any write, so a rejected request
// leaves no partial row behind.
func (s *salesService) Create(_ context.Context, req dto.SaleRequest) (*models.Sale, error) {
	if req.ProductName == "" {
		return nil, fmt.Errorf("%w: product_name is required", ErrValidation)
	}

	resolved, err := pricing.Resolve(pricing.Input{
		UnitPrice:  req.UnitPrice,
		Quantity:   req.Quantity,
		TotalPrice: req.TotalPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	sale := models.Sale{
		ProductName: req.ProductName,
		UnitPrice:   resolved.UnitPrice,
		Quantity:    resolved.Quantity,
		TotalPrice:  resolved.TotalPrice,
	}
	if req.TaxPercent != nil {
		sale.TaxPercent = *req.TaxPercent
	}
	if req.CreatedAt != nil {
		sale.CreatedAt = *req.CreatedAt
	}

	return s.repo.Insert(sale)
}

// Update merges the patch over the stored row and re-resolves the pricing
// triple. Stored values stand in for absent patch fields, so the resolver's
// two-of-three precondition always holds here.
func (s *salesService) Update(_ context.Context, id int64, req dto.SaleRequest) (*models.Sale, error) {
	if req.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	existing, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	in := pricing.Input{
		UnitPrice:  &existing.UnitPrice,
		Quantity:   &existing.Quantity,
		TotalPrice: &existing.TotalPrice,
	}
	if req.UnitPrice != nil {
		in.UnitPrice = req.UnitPrice
	}
	if req.Quantity != nil {
		in.Quantity = req.Quantity
	}
	if req.TotalPrice != nil {
		in.TotalPrice = req.TotalPrice
	}

	resolved, err := pricing.Resolve(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	sale := models.Sale{
		ID:          id,
		ProductName: existing.ProductName,
		UnitPrice:   resolved.UnitPrice,
		Quantity:    resolved.Quantity,
		TotalPrice:  resolved.TotalPrice,
		TaxPercent:  existing.TaxPercent,
		CreatedAt:   existing.CreatedAt,
	}
	if req.ProductName != "" {
		sale.ProductName = req.ProductName
	}
	if req.TaxPercent != nil {
		sale.TaxPercent = *req.TaxPercent
	}
	if req.CreatedAt != nil {
		sale.CreatedAt = *req.CreatedAt
	}

	return s.repo.Update(sale)
}

func (s *salesService) Delete(_ context.Context, id int64) error {
	return s.repo.DeleteByID(id)
}

// rangeCutoff maps a range token to the inclusive created_at lower bound.
// nil means no bound ("all").
func rangeCutoff(dateRange string, now time.Time) (*time.Time, error) {
	var days int
	switch dateRange {
	case "7d":
		days = 7
	case "30d":
		days = 30
	case "90d":
		days = 90
	case "1y":
		days = 365
	case "all":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown range %q", ErrValidation, dateRange)
	}
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	return &cutoff, nil
}

// Analytics runs the four grouping passes over the filtered sale set
// concurrently and assembles the report. All passes share one cutoff
// computed here, so the buckets line up.
func (s *salesService) Analytics(ctx context.Context, dateRange string) (*models.Analytics, error) {
	since, err := rangeCutoff(dateRange, timeNow())
	if err != nil {
		return nil, err
	}

	var out models.Analytics
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		kpis, err := s.repo.KPIs(since)
		if err != nil {
			return err
		}
		out.KPIs = kpis
		return nil
	})
	g.Go(func() error {
		days, err := s.repo.RevenueByDay(since)
		if err != nil {
			return err
		}
		out.RevenueByDay = days
		return nil
	})
	g.Go(func() error {
		months, err := s.repo.RevenueByMonth(since)
		if err != nil {
			return err
		}
		out.RevenueByMonth = months
		return nil
	})
	g.Go(func() error {
		products, err := s.repo.ProductStats(since)
		if err != nil {
			return err
		}
		out.Products = products
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
