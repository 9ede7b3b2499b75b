package progress

import (
	"sync/atomic"
)

// MockReporter counts calls for tests.
type MockReporter struct {
	InitCalled     atomic.Int64
	AddCalled      atomic.Int64
	CompleteCalled atomic.Int64
	CloseCalled    atomic.Int64
	AddTotal       atomic.Int64
	InitTotal      atomic.Int64
}

// NewMockReporter creates a mock reporter.
func NewMockReporter() *MockReporter {
	return &MockReporter{}
}

func (m *MockReporter) Init(total int64) {
	m.InitCalled.Add(1)
	m.InitTotal.Store(total)
}

func (m *MockReporter) Add(n int64) {
	m.AddCalled.Add(1)
	m.AddTotal.Add(n)
}

func (m *MockReporter) Complete() {
	m.CompleteCalled.Add(1)
}

func (m *MockReporter) Close() error {
	m.CloseCalled.Add(1)
	return nil
}

// Reset clears all counters.
func (m *MockReporter) Reset() {
	m.InitCalled.Store(0)
	m.AddCalled.Store(0)
	m.CompleteCalled.Store(0)
	m.CloseCalled.Store(0)
	m.AddTotal.Store(0)
	m.InitTotal.Store(0)
}
