// Package store owns the product catalog: the record shape, id
// assignment, and the pluggable persistence backends.
package store

import (
	"context"
	"fmt"
	"strings"

	cerrors "github.com/kchlu/stocktake/internal/errors"
)

// Product is one catalog record. The total quantity is derived and
// never stored.
type Product struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	WarehouseQty int64  `json:"warehouse_quantity"`
	StoreQty     int64  `json:"store_quantity"`
	Notes        string `json:"notes"`
}

// Total returns the combined warehouse and store quantity.
func (p Product) Total() int64 {
	return p.WarehouseQty + p.StoreQty
}

// FieldUpdate is a field-level patch for an existing product. Nil
// fields are left untouched.
type FieldUpdate struct {
	WarehouseQty *int64
	StoreQty     *int64
	Notes        *string
}

// ProductStore is the catalog persistence contract. Ids are assigned by
// the backend, monotonically, and never reused within a process
// lifetime. Every mutating call completes its persistence flush before
// returning.
type ProductStore interface {
	// List returns a read-only copy of the catalog in insertion (id) order.
	// Returns an empty slice for an empty catalog.
	List(ctx context.Context) ([]Product, error)

	// FindByID retrieves a single product by id.
	// Returns ErrNotFound if no product exists with the given id.
	FindByID(ctx context.Context, id int64) (*Product, error)

	// Insert adds a new product and returns the stored record with its
	// assigned id. Returns ErrValidation on an empty name or a negative
	// quantity.
	Insert(ctx context.Context, name string, warehouseQty, storeQty int64, notes string) (*Product, error)

	// Update applies a field-level patch to an existing product.
	// Returns ErrNotFound if the id is absent and ErrValidation on a
	// negative quantity; the prior record is left intact on failure.
	Update(ctx context.Context, id int64, upd FieldUpdate) (*Product, error)

	// Delete removes a product by id. Returns ErrNotFound if the id is
	// absent; deleting the same id twice fails the second time.
	Delete(ctx context.Context, id int64) error

	// DeleteAll clears the catalog unconditionally. The two-step
	// confirmation gate is the caller's responsibility.
	DeleteAll(ctx context.Context) error
}

// validateInsert rejects writes that would violate catalog invariants
// before any backend state changes.
func validateInsert(name string, warehouseQty, storeQty int64) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name must not be empty", cerrors.ErrValidation)
	}
	if warehouseQty < 0 || storeQty < 0 {
		return fmt.Errorf("%w: quantities must not be negative", cerrors.ErrValidation)
	}
	return nil
}

// validateUpdate rejects patches that would produce a negative quantity.
func validateUpdate(upd FieldUpdate) error {
	if upd.WarehouseQty != nil && *upd.WarehouseQty < 0 {
		return fmt.Errorf("%w: warehouse quantity must not be negative", cerrors.ErrValidation)
	}
	if upd.StoreQty != nil && *upd.StoreQty < 0 {
		return fmt.Errorf("%w: store quantity must not be negative", cerrors.ErrValidation)
	}
	return nil
}
