package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mfreitas/salesdash/internal/domain/models"
	"github.com/mfreitas/salesdash/internal/pricing"
	"github.com/mfreitas/salesdash/internal/storage"
)

// expectedHeaders enforces strict column ordering for sales CSV files.
// If the header doesn't match EXACTLY (order + count), the import must fail.
var expectedHeaders = []string{
	"product_name",
	"unit_price",
	"quantity",
	"total_price",
	"tax_percent",
	"created_at",
}

// created_at accepts a full RFC3339 timestamp or a bare date.
var createdAtLayouts = []string{time.RFC3339, "2006-01-02"}

// parseAndPersistFile opens, validates, parses, and persists one file in batches.
//
// It fails on:
//   - header not matching expected order/length
//   - rows the pricing resolver rejects
//   - unrecoverable I/O errors
//
// Blank pricing cells are absent fields (the resolver needs at least two);
// a blank created_at defers to the insert default.
func parseAndPersistFile(ctx context.Context, path string, repo storage.SalesRepository, batch int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1 // allow variable but we'll check explicitly

	// Validate headers strictly.
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(expectedHeaders) {
		return 0, fmt.Errorf("invalid header length: expected %d, got %d", len(expectedHeaders), len(header))
	}
	for i, h := range header {
		if strings.TrimSpace(h) != expectedHeaders[i] {
			return 0, fmt.Errorf("invalid header at col %d: expected %q, got %q", i+1, expectedHeaders[i], h)
		}
	}

	// Parse rows streaming; flush batches to DB.
	buf := make([]models.Sale, 0, batch)
	lineNumber := 1 // header already read
	total := 0

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := repo.InsertSalesBatch(buf); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		total += len(buf)
		buf = buf[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("read line %d: %w", lineNumber+1, err)
		}
		lineNumber++

		if len(rec) != len(expectedHeaders) {
			return total, fmt.Errorf("line %d: expected %d columns, got %d", lineNumber, len(expectedHeaders), len(rec))
		}

		sale, err := parseRecord(rec)
		if err != nil {
			return total, fmt.Errorf("line %d: %w", lineNumber, err)
		}

		buf = append(buf, sale)
		if len(buf) >= batch {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}

	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

// parseRecord converts one CSV row into a resolved sale.
func parseRecord(rec []string) (models.Sale, error) {
	name := strings.TrimSpace(rec[0])
	if name == "" {
		return models.Sale{}, fmt.Errorf("product_name is required")
	}

	unitPrice, err := optionalFloat(rec[1], "unit_price")
	if err != nil {
		return models.Sale{}, err
	}
	quantity, err := optionalInt(rec[2], "quantity")
	if err != nil {
		return models.Sale{}, err
	}
	totalPrice, err := optionalFloat(rec[3], "total_price")
	if err != nil {
		return models.Sale{}, err
	}

	resolved, err := pricing.Resolve(pricing.Input{
		UnitPrice:  unitPrice,
		Quantity:   quantity,
		TotalPrice: totalPrice,
	})
	if err != nil {
		return models.Sale{}, err
	}

	sale := models.Sale{
		ProductName: name,
		UnitPrice:   resolved.UnitPrice,
		Quantity:    resolved.Quantity,
		TotalPrice:  resolved.TotalPrice,
	}

	if tax, err := optionalFloat(rec[4], "tax_percent"); err != nil {
		return models.Sale{}, err
	} else if tax != nil {
		sale.TaxPercent = *tax
	}

	if raw := strings.TrimSpace(rec[5]); raw != "" {
		ts, err := parseCreatedAt(raw)
		if err != nil {
			return models.Sale{}, err
		}
		sale.CreatedAt = ts
	}

	return sale, nil
}

func optionalFloat(raw, field string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", field, raw)
	}
	return &v, nil
}

func optionalInt(raw, field string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", field, raw)
	}
	return &v, nil
}

func parseCreatedAt(raw string) (time.Time, error) {
	for _, layout := range createdAtLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid created_at %q", raw)
}
