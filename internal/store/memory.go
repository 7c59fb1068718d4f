package store

import (
	"context"
	"sync"

	cerrors "github.com/kchlu/stocktake/internal/errors"
)

// MemoryStore implements ProductStore with an in-memory catalog kept in
// insertion order. Safe for concurrent readers; the service assumes a
// single active writer.
type MemoryStore struct {
	mu       sync.RWMutex
	products []Product
	index    map[int64]int // id -> position in products
	nextID   int64
}

var _ ProductStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index:  make(map[int64]int),
		nextID: 1,
	}
}

// List returns a copy of the catalog in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// FindByID retrieves a product by id.
func (s *MemoryStore) FindByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return nil, cerrors.ErrNotFound
	}
	p := s.products[pos]
	return &p, nil
}

// Insert adds a new product with the next monotonic id.
func (s *MemoryStore) Insert(_ context.Context, name string, warehouseQty, storeQty int64, notes string) (*Product, error) {
	if err := validateInsert(name, warehouseQty, storeQty); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := Product{
		ID:           s.nextID,
		Name:         name,
		WarehouseQty: warehouseQty,
		StoreQty:     storeQty,
		Notes:        notes,
	}
	s.nextID++
	s.index[p.ID] = len(s.products)
	s.products = append(s.products, p)

	out := p
	return &out, nil
}

// Update applies a field-level patch to an existing product.
func (s *MemoryStore) Update(_ context.Context, id int64, upd FieldUpdate) (*Product, error) {
	if err := validateUpdate(upd); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return nil, cerrors.ErrNotFound
	}
	p := s.products[pos]
	if upd.WarehouseQty != nil {
		p.WarehouseQty = *upd.WarehouseQty
	}
	if upd.StoreQty != nil {
		p.StoreQty = *upd.StoreQty
	}
	if upd.Notes != nil {
		p.Notes = *upd.Notes
	}
	s.products[pos] = p

	out := p
	return &out, nil
}

// Delete removes a product by id. Deleting an absent id is an error,
// not a silent no-op.
func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return cerrors.ErrNotFound
	}
	s.products = append(s.products[:pos], s.products[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.products); i++ {
		s.index[s.products[i].ID] = i
	}
	return nil
}

// DeleteAll clears the catalog. The id counter keeps running so ids are
// never reused within the process lifetime.
func (s *MemoryStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = nil
	s.index = make(map[int64]int)
	return nil
}
