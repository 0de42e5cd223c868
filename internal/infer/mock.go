package infer

import (
	"context"
	"sync"
)

// MockClient is a test double for the inference service.
type MockClient struct {
	InferFunc func(ctx context.Context, messageText string) (*StructuredFields, error)
	calls     []string
	mu        sync.Mutex
}

// Infer implements Client.
func (m *MockClient) Infer(ctx context.Context, messageText string) (*StructuredFields, error) {
	m.mu.Lock()
	m.calls = append(m.calls, messageText)
	m.mu.Unlock()

	if m.InferFunc != nil {
		return m.InferFunc(ctx, messageText)
	}
	return &StructuredFields{}, nil
}

// Close implements Client.
func (m *MockClient) Close() error { return nil }

// Calls returns the message texts passed to Infer so far.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
