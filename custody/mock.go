package custody

import "context"

// MockGateway is a test double for Gateway. Function fields must be set
// before the corresponding method is called.
type MockGateway struct {
	PullFn func(ctx context.Context, from string, amount uint64) error
	PushFn func(ctx context.Context, to string, amount uint64) (string, error)
}

func (m *MockGateway) Pull(ctx context.Context, from string, amount uint64) error {
	return m.PullFn(ctx, from, amount)
}

func (m *MockGateway) Push(ctx context.Context, to string, amount uint64) (string, error) {
	return m.PushFn(ctx, to, amount)
}
