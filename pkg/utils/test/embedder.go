package testutils

import (
	"context"
	"fmt"
)

// MockEmbedder returns canned embeddings for known texts and a fixed default
// for everything else.
type MockEmbedder struct {
	Embeddings map[string][]float32

	// FailOn makes Embed error when the input matches exactly.
	FailOn string

	// Calls counts Embed invocations.
	Calls int
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.Calls++

	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	return []float32{0.1, 0.2, 0.3, 0.4}, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}
