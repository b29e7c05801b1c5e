package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/maxkimambo/prodcrew/internal/executor"
	"github.com/maxkimambo/prodcrew/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProductStore struct {
	mock.Mock
}

func (m *mockProductStore) Insert(ctx context.Context, rec *store.ProductRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockProductStore) FindDuplicate(ctx context.Context, name string, threshold float64) (*store.Duplicate, error) {
	args := m.Called(ctx, name, threshold)
	if dup := args.Get(0); dup != nil {
		return dup.(*store.Duplicate), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestStoreFailuresAreNotFatal(t *testing.T) {
	cfg := testConfig(t.TempDir())
	products := &mockProductStore{}
	products.On("FindDuplicate", mock.Anything, "LED Sunset Lamp", cfg.Scoring.DuplicateThreshold).
		Return(nil, errors.New("database is locked"))
	products.On("FindDuplicate", mock.Anything, "Magnetic Phone Mount", cfg.Scoring.DuplicateThreshold).
		Return(nil, nil)
	products.On("Insert", mock.Anything, mock.MatchedBy(func(rec *store.ProductRecord) bool {
		return rec.Name == "Magnetic Phone Mount" && rec.Category == "Car Accessories" && !rec.Approved
	})).Return(errors.New("disk full"))

	adapter := newAdapter(executor.StaticGenerator{Response: "done"}, map[string]executor.Generator{
		"scoring_engine": executor.StaticGenerator{Response: scoringOutput},
	})
	res, err := New(cfg, DefaultDefinition(), adapter, WithProductStore(products)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Products, 2)
	assert.Empty(t, res.Products[0].RecordID)
	assert.Empty(t, res.Products[1].RecordID)
	assert.Equal(t, 16, res.Report.Stats.Succeeded)
	products.AssertExpectations(t)
	products.AssertNumberOfCalls(t, "Insert", 1)
}
