package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// SaleArchiveRepo keeps a durable copy of every sale in MySQL.  The
// in-memory Sale Ledger stays authoritative; the archive is written after
// the sale is recorded and a failure only gets logged by the caller.
type SaleArchiveRepo struct {
	db *sql.DB
}

// NewSaleArchiveRepo returns a SaleArchiveRepo bound to the provided database.
func NewSaleArchiveRepo(db *sql.DB) *SaleArchiveRepo { return &SaleArchiveRepo{db: db} }

const createSalesTable = `CREATE TABLE IF NOT EXISTS sales (
    id          BIGINT UNSIGNED NOT NULL PRIMARY KEY,
    table_id    VARCHAR(32)     NOT NULL,
    method      VARCHAR(32)     NOT NULL,
    reference   VARCHAR(128)    NULL,
    tendered    DECIMAL(12,2)   NULL,
    total       DECIMAL(12,2)   NOT NULL,
    created_at  DATETIME(3)     NOT NULL,
    orders_json JSON            NOT NULL,
    KEY idx_sales_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// EnsureSchema creates the sales table when it does not exist yet.
func (r *SaleArchiveRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createSalesTable)
	return err
}

// Archive inserts the sale.  Re-archiving the same sale id is a no-op so a
// retried write never duplicates a row.
func (r *SaleArchiveRepo) Archive(ctx context.Context, s model.Sale) error {
	args, err := saleRowArgs(s)
	if err != nil {
		return err
	}
	const q = `INSERT INTO sales (id, table_id, method, reference, tendered, total, created_at, orders_json)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE id = id`
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

// saleRowArgs flattens a sale into the column order of the sales table.
// Optional fields become NULL and the order snapshot is stored as JSON.
func saleRowArgs(s model.Sale) ([]interface{}, error) {
	orders, err := json.Marshal(s.Orders)
	if err != nil {
		return nil, err
	}
	var ref sql.NullString
	if s.Reference != "" {
		ref = sql.NullString{String: s.Reference, Valid: true}
	}
	var tendered sql.NullString
	if s.Tendered != nil {
		tendered = sql.NullString{String: s.Tendered.StringFixed(2), Valid: true}
	}
	return []interface{}{
		s.ID,
		s.TableID,
		string(s.Method),
		ref,
		tendered,
		s.Total.StringFixed(2),
		s.CreatedAt.UTC().Format("2006-01-02 15:04:05.000"),
		string(orders),
	}, nil
}

// CountSince returns how many archived sales were created at or after t.
// Used at startup to confirm the archive is reachable.
func (r *SaleArchiveRepo) CountSince(ctx context.Context, t time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales WHERE created_at >= ?`,
		t.UTC().Format("2006-01-02 15:04:05")).Scan(&n)
	return n, err
}
