package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	cerrors "github.com/kchlu/stocktake/internal/errors"
	"github.com/kchlu/stocktake/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(st store.ProductStore) *Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewPipeline(st, nil, false, logger)
	for kind, ext := range DefaultExtractors(nil, 0) {
		p.Register(kind, ext)
	}
	return p
}

// rejectingStore refuses to insert one particular name.
type rejectingStore struct {
	store.ProductStore
	rejectName string
}

func (s *rejectingStore) Insert(ctx context.Context, name string, warehouseQty, storeQty int64, notes string) (*store.Product, error) {
	if name == s.rejectName {
		return nil, fmt.Errorf("%w: name is rejected", cerrors.ErrValidation)
	}
	return s.ProductStore.Insert(ctx, name, warehouseQty, storeQty, notes)
}

func Test_Pipeline_IngestText(t *testing.T) {
	// given: five lines, one of them blank
	st := store.NewMemoryStore()
	p := newTestPipeline(st)
	payload := []byte("Oolong\nJasmine\n\nPu-erh\nSencha\n")

	// when
	report, err := p.Ingest(context.Background(), KindText, payload)

	// then
	require.NoError(t, err)
	assert.Equal(t, 4, report.Inserted)
	assert.Empty(t, report.Failures)

	list, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 4)
	for _, prod := range list {
		assert.Zero(t, prod.WarehouseQty)
		assert.Zero(t, prod.StoreQty)
		assert.Empty(t, prod.Notes)
	}
}

func Test_Pipeline_ReingestDuplicates(t *testing.T) {
	// given
	st := store.NewMemoryStore()
	p := newTestPipeline(st)
	payload := []byte("Oolong\nJasmine\n")

	// when: the same document is ingested twice
	_, err := p.Ingest(context.Background(), KindText, payload)
	require.NoError(t, err)
	_, err = p.Ingest(context.Background(), KindText, payload)
	require.NoError(t, err)

	// then: no deduplication, every line lands again
	list, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func Test_Pipeline_SchemaFailureInsertsNothing(t *testing.T) {
	// given: a workbook with no usable name column
	st := store.NewMemoryStore()
	p := newTestPipeline(st)
	payload := workbook(t, [][]any{
		{"", "Oolong"},
		{"", "Jasmine"},
	})

	// when
	report, err := p.Ingest(context.Background(), KindSpreadsheet, payload)

	// then
	assert.ErrorIs(t, err, cerrors.ErrSchema)
	assert.Zero(t, report.Inserted)

	list, listErr := st.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, list)
}

func Test_Pipeline_InsertFailuresAccumulate(t *testing.T) {
	// given: a store that rejects one of the candidates
	st := &rejectingStore{ProductStore: store.NewMemoryStore(), rejectName: "Jasmine"}
	p := newTestPipeline(st)
	payload := []byte("Oolong\nJasmine\nPu-erh\n")

	// when
	report, err := p.Ingest(context.Background(), KindText, payload)

	// then: the batch continues past the failure
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0], cerrors.ErrValidation)
	assert.Contains(t, report.FailureMessages()[0], "Jasmine")
}

func Test_Pipeline_UnsupportedKind(t *testing.T) {
	// given: no image extractor registered without an OCR client
	p := newTestPipeline(store.NewMemoryStore())

	// when
	_, err := p.Ingest(context.Background(), KindImage, []byte{0x89})

	// then
	assert.ErrorContains(t, err, "unsupported source kind")
}
