package testutils

import (
	"context"

	"github.com/pensieveco/pensieve/pkg/vector"
)

// MockVectorDriver is a test vector driver returning canned results.
type MockVectorDriver struct {
	Documents []vector.Document

	// Results is what Search returns, already ordered by distance.
	Results []vector.Result

	// SearchErr, when set, is returned by Search.
	SearchErr error
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.Documents = append(m.Documents, docs...)
	return nil
}

func (m *MockVectorDriver) Search(_ context.Context, _ string, topK int) ([]vector.Result, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if len(m.Results) < topK {
		return m.Results, nil
	}
	return m.Results[:topK], nil
}

func (m *MockVectorDriver) Delete(_ context.Context, _ []string) error {
	return nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, error) {
	return len(m.Documents), nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
