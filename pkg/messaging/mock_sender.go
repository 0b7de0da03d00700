package messaging

import (
	"context"
	"sync"
)

// MockMessageSender records sent messages for tests.
type MockMessageSender struct {
	mu       sync.Mutex
	messages []*MatchMessage
}

// NewMockMessageSender creates a new MockMessageSender.
func NewMockMessageSender() *MockMessageSender {
	return &MockMessageSender{}
}

// SendMatchMessage records the message.
func (m *MockMessageSender) SendMatchMessage(_ context.Context, msg *MatchMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns a copy of everything sent so far.
func (m *MockMessageSender) Messages() []*MatchMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*MatchMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// Close does nothing.
func (m *MockMessageSender) Close() error {
	return nil
}

// Ensure MockMessageSender implements MessageSender
var _ MessageSender = (*MockMessageSender)(nil)
