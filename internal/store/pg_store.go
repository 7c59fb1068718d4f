package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	cerrors "github.com/kchlu/stocktake/internal/errors"
)

// PgStore implements ProductStore using PostgreSQL as the data store.
// Serialization of concurrent writers is the database's job; each call
// is a single statement committed before the method returns.
type PgStore struct {
	db *pgxpool.Pool
}

var _ ProductStore = (*PgStore)(nil)

// NewPgStore creates a new ProductStore backed by a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

const productColumns = "id, name, warehouse_quantity, store_quantity, notes"

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.WarehouseQty, &p.StoreQty, &p.Notes); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the catalog ordered by id, which matches insertion order
// for BIGSERIAL-assigned ids.
func (s *PgStore) List(ctx context.Context) ([]Product, error) {
	rows, err := s.db.Query(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.WarehouseQty, &p.StoreQty, &p.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

// FindByID retrieves a product by id.
// Returns ErrNotFound if no product exists with the given id.
func (s *PgStore) FindByID(ctx context.Context, id int64) (*Product, error) {
	row := s.db.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return p, nil
}

// Insert adds a new product. The id comes from the table's sequence, so
// ids are monotonic and never reused even across deletes.
func (s *PgStore) Insert(ctx context.Context, name string, warehouseQty, storeQty int64, notes string) (*Product, error) {
	if err := validateInsert(name, warehouseQty, storeQty); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(ctx,
		"INSERT INTO products (name, warehouse_quantity, store_quantity, notes) VALUES ($1, $2, $3, $4) RETURNING "+productColumns,
		name, warehouseQty, storeQty, notes)
	p, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

// Update applies a field-level patch. Nil fields keep the stored value.
// Returns ErrNotFound if no product exists with the given id.
func (s *PgStore) Update(ctx context.Context, id int64, upd FieldUpdate) (*Product, error) {
	if err := validateUpdate(upd); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(ctx,
		`UPDATE products
		    SET warehouse_quantity = COALESCE($2, warehouse_quantity),
		        store_quantity     = COALESCE($3, store_quantity),
		        notes              = COALESCE($4, notes)
		  WHERE id = $1
		  RETURNING `+productColumns,
		id, upd.WarehouseQty, upd.StoreQty, upd.Notes)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

// Delete removes a product by id.
// Returns ErrNotFound if no product exists with the given id.
func (s *PgStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cerrors.ErrNotFound
	}
	return nil
}

// DeleteAll clears the catalog. The id sequence keeps running so ids
// are never reused.
func (s *PgStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("failed to delete all products: %w", err)
	}
	return nil
}
