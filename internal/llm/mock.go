package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real.
// Si Responses tiene elementos se consumen en orden; al agotarse se usa Response/Err.
type MockClient struct {
	Response  string
	Err       error
	Responses []MockResponse

	mu      sync.Mutex
	Calls   int
	Prompts []string
}

type MockResponse struct {
	Text string
	Err  error
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.Prompts = append(m.Prompts, prompt)
	if len(m.Responses) > 0 {
		next := m.Responses[0]
		m.Responses = m.Responses[1:]
		return next.Text, next.Err
	}
	return m.Response, m.Err
}
