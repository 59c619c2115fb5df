package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	pq "github.com/lib/pq"
	"github.com/mfreitas/salesdash/internal/domain/models"
)

// ErrNotFound is returned when an operation references a sale id that
// does not exist.
var ErrNotFound = errors.New("sale not found")

// saleColumns is the column list shared by every query that returns full rows.
const saleColumns = "id, product_name, unit_price, quantity, total_price, COALESCE(tax_percent, 0), created_at"

// SalesRepository defines the contract for DB operations on sales.
type SalesRepository interface {
	Insert(sale models.Sale) (*models.Sale, error)
	Update(sale models.Sale) (*models.Sale, error)
	FindByID(id int64) (*models.Sale, error)
	FindAll() ([]models.Sale, error)
	DeleteByID(id int64) error

	KPIs(since *time.Time) (models.KPIs, error)
	RevenueByDay(since *time.Time) ([]models.RevenuePoint, error)
	RevenueByMonth(since *time.Time) ([]models.RevenuePoint, error)
	ProductStats(since *time.Time) ([]models.ProductStats, error)

	InsertSalesBatch(sales []models.Sale) error
	HasImportForFile(filename string) (bool, error)
	UpsertImportLog(filename string, rowCount int) error
}

type salesRepository struct {
	db *sql.DB
}

func NewSalesRepository(db *sql.DB) SalesRepository {
	return &salesRepository{db: db}
}

// Insert persists a fully resolved sale. A zero CreatedAt defers to the
// column default (NOW()).
func (r *salesRepository) Insert(sale models.Sale) (*models.Sale, error) {
	var createdAt interface{}
	if !sale.CreatedAt.IsZero() {
		createdAt = sale.CreatedAt
	}

	row := r.db.QueryRow(fmt.Sprintf(`
		INSERT INTO sales (product_name, unit_price, quantity, total_price, tax_percent, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING %s
	`, saleColumns),
		sale.ProductName, sale.UnitPrice, sale.Quantity, sale.TotalPrice, sale.TaxPercent, createdAt)

	return scanSale(row)
}

// Update rewrites every mutable column of one row. The caller merges the
// patch with the stored values before getting here.
func (r *salesRepository) Update(sale models.Sale) (*models.Sale, error) {
	row := r.db.QueryRow(fmt.Sprintf(`
		UPDATE sales
		SET product_name = $1,
			unit_price = $2,
			quantity = $3,
			total_price = $4,
			tax_percent = $5,
			created_at = $6
		WHERE id = $7
		RETURNING %s
	`, saleColumns),
		sale.ProductName, sale.UnitPrice, sale.Quantity, sale.TotalPrice, sale.TaxPercent, sale.CreatedAt, sale.ID)

	out, err := scanSale(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return out, err
}

func (r *salesRepository) FindByID(id int64) (*models.Sale, error) {
	row := r.db.QueryRow(fmt.Sprintf(`SELECT %s FROM sales WHERE id = $1`, saleColumns), id)
	out, err := scanSale(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return out, err
}

// FindAll returns every sale, newest first.
func (r *salesRepository) FindAll() ([]models.Sale, error) {
	rows, err := r.db.Query(fmt.Sprintf(`SELECT %s FROM sales ORDER BY created_at DESC, id DESC`, saleColumns))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sales := make([]models.Sale, 0)
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.ID, &s.ProductName, &s.UnitPrice, &s.Quantity, &s.TotalPrice, &s.TaxPercent, &s.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (r *salesRepository) DeleteByID(id int64) error {
	res, err := r.db.Exec(`DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// sinceClause builds the optional lower-bound filter. $1 is the cutoff when
// present; no filter means the whole table.
func sinceClause(since *time.Time) (string, []interface{}) {
	if since == nil {
		return "", nil
	}
	return " WHERE created_at >= $1", []interface{}{*since}
}

// KPIs computes the scalar metrics over sales at or after the cutoff.
// Every aggregate is coalesced so an empty set yields zeros, not NULLs.
func (r *salesRepository) KPIs(since *time.Time) (models.KPIs, error) {
	where, args := sinceClause(since)
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COALESCE(SUM(quantity), 0),
			COALESCE(SUM(total_price), 0),
			COALESCE(SUM(total_price + total_price * COALESCE(tax_percent, 0) / 100), 0),
			COALESCE(AVG(total_price), 0),
			COALESCE(AVG(unit_price), 0)
		FROM sales%s
	`, where)

	var (
		kpis     models.KPIs
		qty      sql.NullInt64
		gross    sql.NullFloat64
		net      sql.NullFloat64
		avgOrder sql.NullFloat64
		avgUnit  sql.NullFloat64
	)
	if err := r.db.QueryRow(query, args...).Scan(&kpis.TotalOrders, &qty, &gross, &net, &avgOrder, &avgUnit); err != nil {
		return models.KPIs{}, err
	}

	// Null scanning is belt and braces on top of COALESCE: the dashboard
	// renders these numbers without null checks.
	kpis.TotalQuantity = qty.Int64
	kpis.GrossRevenue = gross.Float64
	kpis.NetRevenue = net.Float64
	kpis.AverageOrderValue = avgOrder.Float64
	kpis.AverageUnitPrice = avgUnit.Float64
	return kpis, nil
}

// RevenueByDay sums total_price per calendar day, ascending.
func (r *salesRepository) RevenueByDay(since *time.Time) ([]models.RevenuePoint, error) {
	where, args := sinceClause(since)
	query := fmt.Sprintf(`
		SELECT TO_CHAR(DATE(created_at), 'YYYY-MM-DD'), COALESCE(SUM(total_price), 0)
		FROM sales%s
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)
	`, where)
	return r.queryRevenuePoints(query, args)
}

// RevenueByMonth sums total_price per calendar month, ascending.
func (r *salesRepository) RevenueByMonth(since *time.Time) ([]models.RevenuePoint, error) {
	where, args := sinceClause(since)
	query := fmt.Sprintf(`
		SELECT TO_CHAR(DATE_TRUNC('month', created_at), 'YYYY-MM'), COALESCE(SUM(total_price), 0)
		FROM sales%s
		GROUP BY DATE_TRUNC('month', created_at)
		ORDER BY DATE_TRUNC('month', created_at)
	`, where)
	return r.queryRevenuePoints(query, args)
}

func (r *salesRepository) queryRevenuePoints(query string, args []interface{}) ([]models.RevenuePoint, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	points := make([]models.RevenuePoint, 0)
	for rows.Next() {
		var p models.RevenuePoint
		var revenue sql.NullFloat64
		if err := rows.Scan(&p.Period, &revenue); err != nil {
			return nil, err
		}
		p.Revenue = revenue.Float64
		points = append(points, p)
	}
	return points, rows.Err()
}

// ProductStats rolls sales up per product, ordered by revenue descending.
func (r *salesRepository) ProductStats(since *time.Time) ([]models.ProductStats, error) {
	where, args := sinceClause(since)
	query := fmt.Sprintf(`
		SELECT product_name,
			COALESCE(SUM(quantity), 0),
			COALESCE(SUM(total_price), 0),
			COALESCE(AVG(unit_price), 0)
		FROM sales%s
		GROUP BY product_name
		ORDER BY SUM(total_price) DESC
	`, where)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	stats := make([]models.ProductStats, 0)
	for rows.Next() {
		var s models.ProductStats
		var qty sql.NullInt64
		var revenue, avgUnit sql.NullFloat64
		if err := rows.Scan(&s.ProductName, &qty, &revenue, &avgUnit); err != nil {
			return nil, err
		}
		s.TotalQuantity = qty.Int64
		s.TotalRevenue = revenue.Float64
		s.AvgUnitPrice = avgUnit.Float64
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// InsertSalesBatch inserts multiple sales in a single transaction via COPY.
// Used by the CSV import mode.
func (r *salesRepository) InsertSalesBatch(sales []models.Sale) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	// Small optimization for bulk load
	if _, err := tx.Exec(`SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(pq.CopyIn(
		"sales",
		"product_name",
		"unit_price",
		"quantity",
		"total_price",
		"tax_percent",
		"created_at",
	))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	// zero-value timestamps defer to the column default at read time
	toNullTime := func(t time.Time) interface{} {
		if t.IsZero() {
			return nil
		}
		return t
	}

	for _, s := range sales {
		if _, err := stmt.Exec(
			s.ProductName,
			s.UnitPrice,
			s.Quantity,
			s.TotalPrice,
			s.TaxPercent,
			toNullTime(s.CreatedAt),
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.Exec(); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// HasImportForFile checks if a CSV file was already imported.
func (r *salesRepository) HasImportForFile(filename string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM import_log WHERE filename = $1)`, filename).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpsertImportLog records (or updates) an import entry for a file.
func (r *salesRepository) UpsertImportLog(filename string, rowCount int) error {
	_, err := r.db.Exec(`
		INSERT INTO import_log (filename, row_count)
		VALUES ($1, $2)
		ON CONFLICT (filename)
		DO UPDATE SET row_count = EXCLUDED.row_count,
					  imported_at = NOW()
	`, filename, rowCount)
	return err
}

func scanSale(row *sql.Row) (*models.Sale, error) {
	var s models.Sale
	if err := row.Scan(&s.ID, &s.ProductName, &s.UnitPrice, &s.Quantity, &s.TotalPrice, &s.TaxPercent, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
