package messaging

import "sync"

// MockSender captures sent trades for tests
type MockSender struct {
	mu     sync.Mutex
	sent   []TradeMessage
	closed bool
}

// NewMockSender creates a new MockSender
func NewMockSender() *MockSender {
	return &MockSender{}
}

// SendTrades records the messages
func (m *MockSender) SendTrades(trades []TradeMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, trades...)
	return nil
}

// Sent returns a copy of everything sent so far
func (m *MockSender) Sent() []TradeMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TradeMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// Close marks the sender closed
func (m *MockSender) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called
func (m *MockSender) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
