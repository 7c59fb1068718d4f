package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	cerrors "github.com/kchlu/stocktake/internal/errors"
)

// fileSnapshot is the on-disk shape of a file-backed catalog. The id
// counter is persisted so ids survive restarts without reuse.
type fileSnapshot struct {
	NextID   int64     `json:"next_id"`
	Products []Product `json:"products"`
}

// FileStore implements ProductStore with an in-memory catalog flushed
// to a JSON snapshot file after every successful mutation. A mutation
// whose flush fails is rolled back, so a crash between mutation and
// flush loses the mutation rather than leaving a partial write.
type FileStore struct {
	mu       sync.RWMutex
	path     string
	products []Product
	index    map[int64]int
	nextID   int64
}

var _ ProductStore = (*FileStore)(nil)

// NewFileStore opens (or creates) a catalog backed by the given file.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		index:  make(map[int64]int),
		nextID: 1,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read catalog file %s: %w", s.path, err)
	}
	var snap fileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode catalog file %s: %w", s.path, err)
	}
	s.products = snap.Products
	s.nextID = snap.NextID
	if s.nextID < 1 {
		s.nextID = 1
	}
	for i, p := range s.products {
		s.index[p.ID] = i
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	return nil
}

// flush writes the full snapshot to a temp file and renames it into
// place. Must be called with the write lock held.
func (s *FileStore) flush() error {
	snap := fileSnapshot{NextID: s.nextID, Products: s.products}
	if snap.Products == nil {
		snap.Products = []Product{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace catalog file: %w", err)
	}
	return nil
}

// List returns a copy of the catalog in insertion order.
func (s *FileStore) List(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// FindByID retrieves a product by id.
func (s *FileStore) FindByID(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return nil, cerrors.ErrNotFound
	}
	p := s.products[pos]
	return &p, nil
}

// Insert adds a new product and flushes the snapshot. A failed flush
// rolls the insert back.
func (s *FileStore) Insert(_ context.Context, name string, warehouseQty, storeQty int64, notes string) (*Product, error) {
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

	if err := s.flush(); err != nil {
		s.products = s.products[:len(s.products)-1]
		delete(s.index, p.ID)
		s.nextID--
		return nil, err
	}

	out := p
	return &out, nil
}

// Update applies a field-level patch and flushes the snapshot. A failed
// flush restores the prior record.
func (s *FileStore) Update(_ context.Context, id int64, upd FieldUpdate) (*Product, error) {
	if err := validateUpdate(upd); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return nil, cerrors.ErrNotFound
	}
	prior := s.products[pos]
	p := prior
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

	if err := s.flush(); err != nil {
		s.products[pos] = prior
		return nil, err
	}

	out := p
	return &out, nil
}

// Delete removes a product by id and flushes the snapshot.
func (s *FileStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return cerrors.ErrNotFound
	}
	prior := make([]Product, len(s.products))
	copy(prior, s.products)

	s.products = append(s.products[:pos], s.products[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.products); i++ {
		s.index[s.products[i].ID] = i
	}

	if err := s.flush(); err != nil {
		s.products = prior
		s.rebuildIndex()
		return err
	}
	return nil
}

// DeleteAll clears the catalog and flushes the snapshot. The id counter
// keeps running so ids are never reused.
func (s *FileStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior := s.products
	s.products = nil
	s.index = make(map[int64]int)

	if err := s.flush(); err != nil {
		s.products = prior
		s.rebuildIndex()
		return err
	}
	return nil
}

// rebuildIndex recomputes the id index after a rollback. Must be called
// with the write lock held.
func (s *FileStore) rebuildIndex() {
	s.index = make(map[int64]int, len(s.products))
	for i, p := range s.products {
		s.index[p.ID] = i
	}
}
