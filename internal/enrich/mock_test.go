package enrich

import (
	"context"
	"sync"

	"github.com/sells-group/enrich-cli/internal/model"
)

// mockDiscovery records calls and delegates to fn (or a default canned
// response when fn is nil).
type mockDiscovery struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, entity string) (*Discovery, error)
}

func (m *mockDiscovery) Discover(ctx context.Context, entity string) (*Discovery, error) {
	m.mu.Lock()
	m.calls = append(m.calls, entity)
	m.mu.Unlock()

	if m.fn != nil {
		return m.fn(ctx, entity)
	}
	return &Discovery{
		Content:   "content about " + entity,
		SourceURL: "https://example.com/" + entity,
	}, nil
}

func (m *mockDiscovery) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// mockExtractor records call count and delegates to fn (or returns no
// fields when fn is nil).
type mockExtractor struct {
	mu    sync.Mutex
	calls int
	fn    func(content, entity string) (model.ContactFields, error)
}

func (m *mockExtractor) Extract(ctx context.Context, content, entity string) (model.ContactFields, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.fn != nil {
		return m.fn(content, entity)
	}
	return model.ContactFields{}, nil
}

func (m *mockExtractor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
