package offline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mquan/grocery-planner/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s
}

func testList() *model.GroceryList {
	return &model.GroceryList{
		ID:         "l1",
		CustomerID: "c1",
		Name:       "Weekly",
		CreatedAt:  time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC),
		Items: []model.GroceryListItem{
			{
				ID:            "i1",
				GroceryListID: "l1",
				Name:          "milk",
				Category:      model.CategoryDairy,
				Quantity:      2,
				Unit:          "l",
				Priority:      model.PriorityHigh,
			},
			{
				ID:            "i2",
				GroceryListID: "l1",
				Name:          "bread",
				Category:      model.CategoryBakery,
				Quantity:      1,
				IsChecked:     true,
				Priority:      model.PriorityLow,
			},
		},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	original := testList()
	s.SaveToLocal(original)

	loaded := s.LoadFromLocal()
	require.NotNil(t, loaded)
	assert.Equal(t, original, loaded)
}

func TestLoadWithoutSnapshotReturnsNil(t *testing.T) {
	s := newTestStore(t)
	assert.Nil(t, s.LoadFromLocal())
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	s := newTestStore(t)

	first := testList()
	s.SaveToLocal(first)

	second := testList()
	second.ID = "l2"
	second.Name = "Monthly"
	s.SaveToLocal(second)

	loaded := s.LoadFromLocal()
	require.NotNil(t, loaded)
	assert.Equal(t, "l2", loaded.ID, "one fixed slot holds the latest snapshot")
}

func TestCorruptPayloadReadsAsAbsent(t *testing.T) {
	s := newTestStore(t)
	s.SaveToLocal(testList())

	_, err := s.db.Exec(
		"UPDATE snapshots SET payload = ? WHERE key = ?",
		"{not valid json", SnapshotKey,
	)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		assert.Nil(t, s.LoadFromLocal())
	})
}

func TestClearLocal(t *testing.T) {
	s := newTestStore(t)
	s.SaveToLocal(testList())
	require.NotNil(t, s.LoadFromLocal())

	s.ClearLocal()
	assert.Nil(t, s.LoadFromLocal())

	// Clearing an already empty store is harmless.
	assert.NotPanics(t, s.ClearLocal)
}

func TestSaveNilListIsNoop(t *testing.T) {
	s := newTestStore(t)
	s.SaveToLocal(nil)
	assert.Nil(t, s.LoadFromLocal())
}
