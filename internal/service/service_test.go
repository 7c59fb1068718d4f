package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	cerrors "github.com/kchlu/stocktake/internal/errors"
	"github.com/kchlu/stocktake/internal/export"
	"github.com/kchlu/stocktake/internal/ingest"
	"github.com/kchlu/stocktake/internal/search"
	"github.com/kchlu/stocktake/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func newTestService(t *testing.T) (*Service, store.ProductStore) {
	t.Helper()
	st := store.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := ingest.NewPipeline(st, nil, false, logger)
	for kind, ext := range ingest.DefaultExtractors(nil, 0) {
		pipeline.Register(kind, ext)
	}
	exporter := export.NewExporter(nil)
	svc := NewService(st, pipeline, exporter, search.FuzzyOptions{EmptyQuery: search.EmptyQueryAll})
	return svc, st
}

func Test_Service_Create(t *testing.T) {
	testCases := []struct {
		name        string
		input       ProductCreateDto
		expectError error
		expected    ProductDto
	}{
		{
			name:     "Success - name trimmed, total derived",
			input:    ProductCreateDto{Name: "  Oolong  ", WarehouseQty: 3, StoreQty: 4, Notes: "loose"},
			expected: ProductDto{Name: "Oolong", WarehouseQty: 3, StoreQty: 4, Total: 7, Notes: "loose"},
		},
		{
			name:        "Error - whitespace-only name",
			input:       ProductCreateDto{Name: "   "},
			expectError: cerrors.ErrValidation,
		},
		{
			name:        "Error - negative quantity",
			input:       ProductCreateDto{Name: "Sencha", WarehouseQty: -1},
			expectError: cerrors.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc, _ := newTestService(t)

			// when
			created, err := svc.Create(context.Background(), tc.input)

			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Positive(t, created.ID)
			assert.Equal(t, tc.expected.Name, created.Name)
			assert.Equal(t, tc.expected.Total, created.Total)
			assert.Equal(t, tc.expected.Notes, created.Notes)
		})
	}
}

func Test_Service_FindByID(t *testing.T) {
	// given
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), ProductCreateDto{Name: "Pu-erh", WarehouseQty: 1, StoreQty: 2})
	require.NoError(t, err)

	// when
	found, err := svc.FindByID(context.Background(), created.ID)

	// then
	require.NoError(t, err)
	assert.Equal(t, created, found)

	_, err = svc.FindByID(context.Background(), created.ID+100)
	assert.ErrorIs(t, err, cerrors.ErrNotFound)
}

func Test_Service_Update(t *testing.T) {
	testCases := []struct {
		name        string
		upd         ProductUpdateDto
		expectError error
		check       func(t *testing.T, dto *ProductDto)
	}{
		{
			name: "Success - single field patch recomputes total",
			upd:  ProductUpdateDto{StoreQty: int64Ptr(10)},
			check: func(t *testing.T, dto *ProductDto) {
				assert.Equal(t, int64(10), dto.StoreQty)
				assert.Equal(t, int64(1), dto.WarehouseQty)
				assert.Equal(t, int64(11), dto.Total)
			},
		},
		{
			name: "Success - notes cleared with empty string",
			upd:  ProductUpdateDto{Notes: strPtr("")},
			check: func(t *testing.T, dto *ProductDto) {
				assert.Empty(t, dto.Notes)
			},
		},
		{
			name:        "Error - no fields supplied",
			upd:         ProductUpdateDto{},
			expectError: cerrors.ErrValidation,
		},
		{
			name:        "Error - negative quantity",
			upd:         ProductUpdateDto{WarehouseQty: int64Ptr(-2)},
			expectError: cerrors.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc, _ := newTestService(t)
			created, err := svc.Create(context.Background(), ProductCreateDto{Name: "Pu-erh", WarehouseQty: 1, StoreQty: 2, Notes: "brick"})
			require.NoError(t, err)

			// when
			updated, err := svc.Update(context.Background(), created.ID, tc.upd)

			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			tc.check(t, updated)
		})
	}
}

func Test_Service_Search(t *testing.T) {
	// given
	svc, _ := newTestService(t)
	for _, name := range []string{"Apple", "Pineapple", "Grape", "apple pie"} {
		_, err := svc.Create(context.Background(), ProductCreateDto{Name: name})
		require.NoError(t, err)
	}

	t.Run("Tiered ranking", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "apple", search.PolicyTiered)
		require.NoError(t, err)
		got := make([]string, len(results))
		for i, r := range results {
			got[i] = r.Name
		}
		assert.Equal(t, []string{"Apple", "apple pie", "Pineapple"}, got)
	})

	t.Run("Fuzzy ranking puts the closest name first", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "apple", search.PolicyFuzzy)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "Apple", results[0].Name)
	})

	t.Run("Fuzzy empty query follows configured mode", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "", search.PolicyFuzzy)
		require.NoError(t, err)
		assert.Len(t, results, 4)
	})

	t.Run("Unknown policy rejected", func(t *testing.T) {
		_, err := svc.Search(context.Background(), "apple", search.Policy("metaphone"))
		assert.ErrorIs(t, err, cerrors.ErrValidation)
	})
}

func Test_Service_DeleteAndDeleteAll(t *testing.T) {
	// given
	svc, st := newTestService(t)
	created, err := svc.Create(context.Background(), ProductCreateDto{Name: "Sencha"})
	require.NoError(t, err)

	// when / then: delete is not idempotent
	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), created.ID), cerrors.ErrNotFound)

	_, err = svc.Create(context.Background(), ProductCreateDto{Name: "Matcha"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteAll(context.Background()))

	list, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func Test_Service_IngestAndExport(t *testing.T) {
	// given
	svc, _ := newTestService(t)

	// when
	report, err := svc.Ingest(context.Background(), ingest.KindText, []byte("Oolong\nJasmine\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)

	payload, err := svc.Export(context.Background(), export.FormatCSV)

	// then
	require.NoError(t, err)
	assert.Contains(t, string(payload), "Oolong")
	assert.Contains(t, string(payload), "Jasmine")
}
