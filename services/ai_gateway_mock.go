package services

import (
	"context"
	"sync"
)

// MockStudyAssistant is a StudyAssistant for testing
type MockStudyAssistant struct {
	Reply string
	Err   error

	mu       sync.Mutex
	lastMode string
	lastMsgs []ChatMessage
}

// SetAsMockForTesting sets this mock as the global AI gateway for testing
func (m *MockStudyAssistant) SetAsMockForTesting() {
	SetAIGateway(m)
}

// Complete records its input and returns the configured reply
func (m *MockStudyAssistant) Complete(ctx context.Context, mode string, messages []ChatMessage) (string, error) {
	m.mu.Lock()
	m.lastMode = mode
	m.lastMsgs = append([]ChatMessage(nil), messages...)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

// LastCall returns the mode and messages of the most recent call
func (m *MockStudyAssistant) LastCall() (string, []ChatMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMode, m.lastMsgs
}
