package testutil

import (
	"testing"

	"go.uber.org/zap"

	"github.com/mquan/grocery-planner/internal/offline"
)

// NewTestStore creates an in-memory offline snapshot store with all
// migrations applied. It automatically closes the store when the test
// completes.
func NewTestStore(t *testing.T) *offline.Store {
	t.Helper()

	s, err := offline.NewStore(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
