package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/planner"
)

// MockPreviewer is a stand-in for the projection engine client. It returns
// predefined data instead of calling the engine and records what it was asked.
type MockPreviewer struct {
	mu sync.Mutex

	// MockResponse is the projection to return
	MockResponse model.Projection
	// MockError is the error to return
	MockError error
	// Gate, when set, blocks every call until it receives a value or is closed
	Gate chan struct{}

	calls []model.PlannedChange
}

// NewMockPreviewer creates a mock previewer returning five monthly points.
func NewMockPreviewer() *MockPreviewer {
	return &MockPreviewer{MockResponse: CreateMockProjection(5)}
}

// Preview records pc and returns the configured response or error.
func (m *MockPreviewer) Preview(ctx context.Context, pc model.PlannedChange) (model.Projection, error) {
	m.mu.Lock()
	m.calls = append(m.calls, pc)
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return model.Projection{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MockError != nil {
		return model.Projection{}, m.MockError
	}
	return m.MockResponse, nil
}

// WithError configures the mock to return an error.
func (m *MockPreviewer) WithError(err error) *MockPreviewer {
	m.MockError = err
	return m
}

// WithGate makes every call wait on gate.
func (m *MockPreviewer) WithGate(gate chan struct{}) *MockPreviewer {
	m.Gate = gate
	return m
}

// Calls returns the planned changes previewed so far.
func (m *MockPreviewer) Calls() []model.PlannedChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.PlannedChange, len(m.calls))
	copy(out, m.calls)
	return out
}

// CreateMockProjection returns a projection of points monthly values starting
// 2025-01-01 at 1000 and growing by 100 a month.
func CreateMockProjection(points int) model.Projection {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := model.Projection{Points: make([]model.ProjectionPoint, points)}
	for i := range p.Points {
		p.Points[i] = model.ProjectionPoint{
			Date:  planner.FormatDate(start.AddDate(0, i, 0)),
			Value: 1000 + float64(i)*100,
		}
	}
	return p
}
