// Package service implements the catalog business logic between the
// transport layer and the product store.
package service

import (
	"context"
	"fmt"
	"strings"

	cerrors "github.com/kchlu/stocktake/internal/errors"
	"github.com/kchlu/stocktake/internal/export"
	"github.com/kchlu/stocktake/internal/ingest"
	"github.com/kchlu/stocktake/internal/search"
	"github.com/kchlu/stocktake/internal/store"
)

// InventoryService defines the operations over the catalog.
type InventoryService interface {
	// FindByID retrieves a single product by id.
	// Returns ErrNotFound if no product exists with the given id.
	FindByID(ctx context.Context, id int64) (*ProductDto, error)

	// List returns the catalog snapshot in insertion order.
	List(ctx context.Context) ([]ProductDto, error)

	// Search returns the snapshot ranked against the query under the
	// selected policy. An empty catalog yields an empty slice.
	Search(ctx context.Context, query string, policy search.Policy) ([]ProductDto, error)

	// Create adds a product from manual entry.
	// Returns ErrValidation on an empty name or negative quantity.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// Update applies a field-level patch to an existing product.
	// Returns ErrNotFound if the id is absent and ErrValidation on a
	// negative quantity; the prior values stay intact on failure.
	Update(ctx context.Context, id int64, upd ProductUpdateDto) (*ProductDto, error)

	// Delete removes a product by id. Returns ErrNotFound if absent;
	// a repeated delete of the same id fails, so callers must not
	// blind-retry.
	Delete(ctx context.Context, id int64) error

	// DeleteAll clears the catalog. The confirmation gate lives at the
	// transport boundary.
	DeleteAll(ctx context.Context) error

	// Ingest bulk-imports candidate names from one uploaded document.
	Ingest(ctx context.Context, kind ingest.SourceKind, payload []byte) (ingest.Report, error)

	// Export renders the current snapshot in the requested format.
	Export(ctx context.Context, format export.Format) ([]byte, error)
}

// Service implements InventoryService over a pluggable product store.
type Service struct {
	repository store.ProductStore
	pipeline   *ingest.Pipeline
	exporter   *export.Exporter
	fuzzyOpts  search.FuzzyOptions
}

var _ InventoryService = (*Service)(nil)

// NewService creates an InventoryService with the provided repository,
// ingestion pipeline, and exporter. The fuzzy options carry the
// configured empty-query behavior.
func NewService(repo store.ProductStore, pipeline *ingest.Pipeline, exporter *export.Exporter, fuzzyOpts search.FuzzyOptions) *Service {
	return &Service{
		repository: repo,
		pipeline:   pipeline,
		exporter:   exporter,
		fuzzyOpts:  fuzzyOpts,
	}
}

// ProductCreateDto is the manual-add payload.
type ProductCreateDto struct {
	Name         string `json:"name"               validate:"required,max=200"`
	WarehouseQty int64  `json:"warehouse_quantity" validate:"gte=0"`
	StoreQty     int64  `json:"store_quantity"     validate:"gte=0"`
	Notes        string `json:"notes"              validate:"max=2000"`
}

// ProductUpdateDto is a field-level patch; nil fields are untouched.
type ProductUpdateDto struct {
	WarehouseQty *int64  `json:"warehouse_quantity" validate:"omitempty,gte=0"`
	StoreQty     *int64  `json:"store_quantity"     validate:"omitempty,gte=0"`
	Notes        *string `json:"notes"              validate:"omitempty,max=2000"`
}

// ProductDto is the outward product shape. Total is derived from the
// two quantity counters and never accepted as input.
type ProductDto struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	WarehouseQty int64  `json:"warehouse_quantity"`
	StoreQty     int64  `json:"store_quantity"`
	Total        int64  `json:"total"`
	Notes        string `json:"notes"`
}

// FindByID retrieves a product by id as a ProductDto.
func (s *Service) FindByID(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %d: %w", id, err)
	}
	return toDto(product), nil
}

// List returns the full snapshot as DTOs.
func (s *Service) List(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toDtos(products), nil
}

// Search ranks the snapshot against the query under the given policy.
func (s *Service) Search(ctx context.Context, query string, policy search.Policy) ([]ProductDto, error) {
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: unknown search policy %q", cerrors.ErrValidation, policy)
	}
	products, err := s.repository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	var ranked []store.Product
	switch policy {
	case search.PolicyFuzzy:
		ranked = search.RankFuzzy(products, query, s.fuzzyOpts)
	default:
		ranked = search.RankTiered(products, query)
	}
	return toDtos(ranked), nil
}

// Create adds a product from manual entry.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	name := strings.TrimSpace(product.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", cerrors.ErrValidation)
	}
	created, err := s.repository.Insert(ctx, name, product.WarehouseQty, product.StoreQty, product.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return toDto(created), nil
}

// Update applies a field-level patch to an existing product.
func (s *Service) Update(ctx context.Context, id int64, upd ProductUpdateDto) (*ProductDto, error) {
	if upd.WarehouseQty == nil && upd.StoreQty == nil && upd.Notes == nil {
		return nil, fmt.Errorf("%w: update requires at least one field", cerrors.ErrValidation)
	}
	updated, err := s.repository.Update(ctx, id, store.FieldUpdate{
		WarehouseQty: upd.WarehouseQty,
		StoreQty:     upd.StoreQty,
		Notes:        upd.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return toDto(updated), nil
}

// Delete removes a product by id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repository.Delete(ctx, id)
}

// DeleteAll clears the catalog unconditionally.
func (s *Service) DeleteAll(ctx context.Context) error {
	return s.repository.DeleteAll(ctx)
}

// Ingest bulk-imports candidate names from one uploaded document.
func (s *Service) Ingest(ctx context.Context, kind ingest.SourceKind, payload []byte) (ingest.Report, error) {
	return s.pipeline.Ingest(ctx, kind, payload)
}

// Export renders the current snapshot in the requested format.
func (s *Service) Export(ctx context.Context, format export.Format) ([]byte, error) {
	products, err := s.repository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return s.exporter.Export(products, format)
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:           product.ID,
		Name:         product.Name,
		WarehouseQty: product.WarehouseQty,
		StoreQty:     product.StoreQty,
		Total:        product.Total(),
		Notes:        product.Notes,
	}
}

func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i, p := range products {
		dtos[i] = *toDto(&p)
	}
	return dtos
}
