package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mfreitas/salesdash/internal/domain/dto"
	"github.com/mfreitas/salesdash/internal/domain/models"
	"github.com/mfreitas/salesdash/internal/storage"
)

// stubRepo implements storage.SalesRepository and records what reaches it.
type stubRepo struct {
	existing *models.Sale
	inserted *models.Sale
	updated  *models.Sale
	since    *time.Time
	err      error

	kpis     models.KPIs
	byDay    []models.RevenuePoint
	byMonth  []models.RevenuePoint
	products []models.ProductStats
}

func (s *stubRepo) Insert(sale models.Sale) (*models.Sale, error) {
	s.inserted = &sale
	if s.err != nil {
		return nil, s.err
	}
	out := sale
	out.ID = 1
	return &out, nil
}

func (s *stubRepo) Update(sale models.Sale) (*models.Sale, error) {
	s.updated = &sale
	if s.err != nil {
		return nil, s.err
	}
	out := sale
	return &out, nil
}

func (s *stubRepo) FindByID(_ int64) (*models.Sale, error) {
	if s.existing == nil {
		return nil, storage.ErrNotFound
	}
	return s.existing, nil
}

func (s *stubRepo) FindAll() ([]models.Sale, error) {
	if s.existing == nil {
		return []models.Sale{}, nil
	}
	return []models.Sale{*s.existing}, nil
}

func (s *stubRepo) DeleteByID(_ int64) error { return s.err }

func (s *stubRepo) KPIs(since *time.Time) (models.KPIs, error) {
	s.since = since
	return s.kpis, s.err
}
func (s *stubRepo) RevenueByDay(*time.Time) ([]models.RevenuePoint, error) {
	return s.byDay, s.err
}
func (s *stubRepo) RevenueByMonth(*time.Time) ([]models.RevenuePoint, error) {
	return s.byMonth, s.err
}
func (s *stubRepo) ProductStats(*time.Time) ([]models.ProductStats, error) {
	return s.products, s.err
}
func (s *stubRepo) InsertSalesBatch([]models.Sale) error       { return s.err }
func (s *stubRepo) HasImportForFile(string) (bool, error)      { return false, nil }
func (s *stubRepo) UpsertImportLog(string, int) error          { return s.err }

var _ storage.SalesRepository = (*stubRepo)(nil)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func TestCreate_TableDriven(t *testing.T) {
	cases := []struct {
		name    string
		req     dto.SaleRequest
		wantErr error
		check   func(t *testing.T, repo *stubRepo, out *models.Sale)
	}{
		{
			name:    "missing product name",
			req:     dto.SaleRequest{UnitPrice: fp(10), Quantity: ip(2)},
			wantErr: ErrValidation,
		},
		{
			name:    "insufficient pricing fields",
			req:     dto.SaleRequest{ProductName: "Mug", Quantity: ip(2)},
			wantErr: ErrValidation,
		},
		{
			name: "derives total and defaults tax",
			req:  dto.SaleRequest{ProductName: "Mug", UnitPrice: fp(10), Quantity: ip(3)},
			check: func(t *testing.T, repo *stubRepo, out *models.Sale) {
				if repo.inserted.TotalPrice != 30 || repo.inserted.TaxPercent != 0 {
					t.Fatalf("inserted %+v", repo.inserted)
				}
				if out.ID != 1 {
					t.Fatalf("id not assigned: %+v", out)
				}
			},
		},
		{
			name: "keeps inconsistent triple verbatim",
			req:  dto.SaleRequest{ProductName: "Mug", UnitPrice: fp(5), Quantity: ip(2), TotalPrice: fp(999)},
			check: func(t *testing.T, repo *stubRepo, _ *models.Sale) {
				if repo.inserted.TotalPrice != 999 {
					t.Fatalf("pass-through broken: %+v", repo.inserted)
				}
			},
		},
		{
			name: "carries tax and created_at",
			req: dto.SaleRequest{
				ProductName: "Mug", UnitPrice: fp(10), Quantity: ip(1),
				TaxPercent: fp(21),
				CreatedAt:  func() *time.Time { ts := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC); return &ts }(),
			},
			check: func(t *testing.T, repo *stubRepo, _ *models.Sale) {
				if repo.inserted.TaxPercent != 21 || repo.inserted.CreatedAt.IsZero() {
					t.Fatalf("merge broken: %+v", repo.inserted)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubRepo{}
			svc := NewSalesService(repo)
			out, err := svc.Create(context.Background(), tc.req)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err=%v, want %v", err, tc.wantErr)
				}
				if repo.inserted != nil {
					t.Fatalf("rejected request reached storage: %+v", repo.inserted)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			tc.check(t, repo, out)
		})
	}
}

func TestUpdate_TableDriven(t *testing.T) {
	created := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	existing := models.Sale{
		ID: 7, ProductName: "Mug", UnitPrice: 10, Quantity: 3, TotalPrice: 30,
		TaxPercent: 5, CreatedAt: created,
	}

	cases := []struct {
		name    string
		repo    *stubRepo
		req     dto.SaleRequest
		wantErr error
		check   func(t *testing.T, updated *models.Sale)
	}{
		{
			name:    "empty patch",
			repo:    &stubRepo{existing: &existing},
			req:     dto.SaleRequest{},
			wantErr: ErrValidation,
		},
		{
			name:    "unknown id",
			repo:    &stubRepo{},
			req:     dto.SaleRequest{TaxPercent: fp(9)},
			wantErr: storage.ErrNotFound,
		},
		{
			name: "tax-only patch leaves pricing untouched",
			repo: &stubRepo{existing: &existing},
			req:  dto.SaleRequest{TaxPercent: fp(9)},
			check: func(t *testing.T, updated *models.Sale) {
				if updated.UnitPrice != 10 || updated.Quantity != 3 || updated.TotalPrice != 30 {
					t.Fatalf("pricing changed: %+v", updated)
				}
				if updated.TaxPercent != 9 || !updated.CreatedAt.Equal(created) || updated.ProductName != "Mug" {
					t.Fatalf("merge broken: %+v", updated)
				}
			},
		},
		{
			name: "quantity patch re-derives nothing when total also given",
			repo: &stubRepo{existing: &existing},
			req:  dto.SaleRequest{Quantity: ip(6), TotalPrice: fp(90)},
			check: func(t *testing.T, updated *models.Sale) {
				// All three present after merge: stored unit price passes through
				if updated.UnitPrice != 10 || updated.Quantity != 6 || updated.TotalPrice != 90 {
					t.Fatalf("unexpected pricing: %+v", updated)
				}
			},
		},
		{
			name: "product name patch",
			repo: &stubRepo{existing: &existing},
			req:  dto.SaleRequest{ProductName: "Kettle"},
			check: func(t *testing.T, updated *models.Sale) {
				if updated.ProductName != "Kettle" || updated.TotalPrice != 30 {
					t.Fatalf("unexpected: %+v", updated)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewSalesService(tc.repo)
			out, err := svc.Update(context.Background(), 7, tc.req)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err=%v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			tc.check(t, out)
		})
	}
}

func TestRangeCutoff(t *testing.T) {
	now := time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		token string
		days  int
	}{
		{"7d", 7},
		{"30d", 30},
		{"90d", 90},
		{"1y", 365},
	}
	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			got, err := rangeCutoff(tc.token, now)
			if err != nil || got == nil {
				t.Fatalf("cutoff: got=%v err=%v", got, err)
			}
			want := now.Add(-time.Duration(tc.days) * 24 * time.Hour)
			if !got.Equal(want) {
				t.Fatalf("cutoff=%v, want %v", got, want)
			}
		})
	}

	if got, err := rangeCutoff("all", now); err != nil || got != nil {
		t.Fatalf("all: got=%v err=%v", got, err)
	}
	if _, err := rangeCutoff("14d", now); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown token: err=%v", err)
	}
}

func TestAnalytics(t *testing.T) {
	now := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
	old := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = old })

	repo := &stubRepo{
		kpis:     models.KPIs{TotalOrders: 2, GrossRevenue: 150},
		byDay:    []models.RevenuePoint{{Period: "2025-08-30", Revenue: 50}},
		byMonth:  []models.RevenuePoint{{Period: "2025-08", Revenue: 150}},
		products: []models.ProductStats{{ProductName: "Mug", TotalRevenue: 150}},
	}
	svc := NewSalesService(repo)

	out, err := svc.Analytics(context.Background(), "7d")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if out.KPIs.TotalOrders != 2 || len(out.RevenueByDay) != 1 || len(out.RevenueByMonth) != 1 || len(out.Products) != 1 {
		t.Fatalf("unexpected report: %+v", out)
	}

	// The cutoff handed to storage is exactly now-7d; the SQL filter is
	// inclusive, so a row at the bound belongs to the window.
	want := now.Add(-7 * 24 * time.Hour)
	if repo.since == nil || !repo.since.Equal(want) {
		t.Fatalf("since=%v, want %v", repo.since, want)
	}
}

func TestAnalytics_Errors(t *testing.T) {
	svc := NewSalesService(&stubRepo{err: errors.New("db down")})
	if _, err := svc.Analytics(context.Background(), "30d"); err == nil {
		t.Fatalf("expected repo error to propagate")
	}

	svc2 := NewSalesService(&stubRepo{})
	if _, err := svc2.Analytics(context.Background(), "yesterday"); !errors.Is(err, ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}
