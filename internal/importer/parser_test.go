package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mfreitas/salesdash/internal/domain/models"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

const header = "product_name,unit_price,quantity,total_price,tax_percent,created_at\n"

func TestParseAndPersistFile_OK(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "sales.csv", header+
		"Mug,12.50,4,,10,2025-08-01\n"+
		"Kettle,,2,80,,2025-08-02T09:30:00Z\n"+
		"Grinder,30,1,30,,\n")

	repo := &captureRepo{}
	n, err := parseAndPersistFile(context.Background(), path, repo, 2)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if n != 3 {
		t.Fatalf("rows=%d, want 3", n)
	}
	// batch of 2 then batch of 1
	if len(repo.batches) != 2 || len(repo.batches[0]) != 2 || len(repo.batches[1]) != 1 {
		t.Fatalf("unexpected batching: %d", len(repo.batches))
	}

	first := repo.batches[0][0]
	if first.ProductName != "Mug" || first.TotalPrice != 50 || first.TaxPercent != 10 {
		t.Fatalf("row not resolved: %+v", first)
	}
	if first.CreatedAt.IsZero() {
		t.Fatalf("created_at not parsed: %+v", first)
	}

	second := repo.batches[0][1]
	if second.UnitPrice != 40 || second.Quantity != 2 {
		t.Fatalf("unit price not derived: %+v", second)
	}
	if !second.CreatedAt.Equal(time.Date(2025, 8, 2, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("timestamp: %+v", second.CreatedAt)
	}

	third := repo.batches[1][0]
	if !third.CreatedAt.IsZero() {
		t.Fatalf("blank created_at should stay zero: %+v", third)
	}
}

func TestParseAndPersistFile_Errors(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		content string
		errPart string
	}{
		{
			name:    "wrong header order",
			content: "unit_price,product_name,quantity,total_price,tax_percent,created_at\n",
			errPart: "invalid header",
		},
		{
			name:    "short header",
			content: "product_name,unit_price\n",
			errPart: "invalid header length",
		},
		{
			name:    "insufficient pricing fields",
			content: header + "Mug,12.50,,,,\n",
			errPart: "at least two",
		},
		{
			name:    "missing product name",
			content: header + ",10,2,,,\n",
			errPart: "product_name is required",
		},
		{
			name:    "bad number",
			content: header + "Mug,abc,2,20,,\n",
			errPart: "invalid unit_price",
		},
		{
			name:    "bad timestamp",
			content: header + "Mug,10,2,,,31/08/2025\n",
			errPart: "invalid created_at",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeCSV(t, dir, strings.ReplaceAll(tc.name, " ", "_")+".csv", tc.content)
			_, err := parseAndPersistFile(context.Background(), path, &captureRepo{}, 100)
			if err == nil || !strings.Contains(err.Error(), tc.errPart) {
				t.Fatalf("err=%v, want containing %q", err, tc.errPart)
			}
		})
	}
}

func TestParseAndPersistFile_Cancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "sales.csv", header+"Mug,10,2,,,\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := parseAndPersistFile(ctx, path, &captureRepo{}, 100); err == nil {
		t.Fatalf("expected context error")
	}
}

// captureRepo records batches handed to InsertSalesBatch. Guarded by a
// mutex because ProcessDirectory imports files concurrently.
type captureRepo struct {
	mu       sync.Mutex
	batches  [][]models.Sale
	imported map[string]bool
	logErr   error
}

func (c *captureRepo) InsertSalesBatch(sales []models.Sale) error {
	batch := make([]models.Sale, len(sales))
	copy(batch, sales)
	c.mu.Lock()
	c.batches = append(c.batches, batch)
	c.mu.Unlock()
	return nil
}

func (c *captureRepo) HasImportForFile(name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imported[name], nil
}

func (c *captureRepo) UpsertImportLog(name string, _ int) error {
	if c.logErr != nil {
		return c.logErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.imported == nil {
		c.imported = map[string]bool{}
	}
	c.imported[name] = true
	return nil
}

func (c *captureRepo) Insert(models.Sale) (*models.Sale, error)      { return nil, nil }
func (c *captureRepo) Update(models.Sale) (*models.Sale, error)      { return nil, nil }
func (c *captureRepo) FindByID(int64) (*models.Sale, error)          { return nil, nil }
func (c *captureRepo) FindAll() ([]models.Sale, error)               { return nil, nil }
func (c *captureRepo) DeleteByID(int64) error                        { return nil }
func (c *captureRepo) KPIs(*time.Time) (models.KPIs, error)          { return models.KPIs{}, nil }
func (c *captureRepo) RevenueByDay(*time.Time) ([]models.RevenuePoint, error) {
	return nil, nil
}
func (c *captureRepo) RevenueByMonth(*time.Time) ([]models.RevenuePoint, error) {
	return nil, nil
}
func (c *captureRepo) ProductStats(*time.Time) ([]models.ProductStats, error) {
	return nil, nil
}
