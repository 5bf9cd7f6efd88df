package command

import (
	"context"
	"strings"
	"sync"
)

// MockExecutor implements [Executor] without spawning processes.
//
// It records every [Spec] it receives and replays Output to the handler.
// A spec whose rendered command line contains FailOn exits with FailCode
// (1 when unset); everything else exits 0.
type MockExecutor struct {
	// Output lines are sent to the handler on stdout for every call.
	Output []string

	// FailOn is a substring of the command line that triggers failure.
	FailOn string

	// FailCode is the exit code for failing calls. Defaults to 1.
	FailCode int

	// Err is returned from every call when set, simulating a start failure.
	Err error

	mu    sync.Mutex
	specs []Spec
}

// Run records spec and returns the scripted result.
func (m *MockExecutor) Run(ctx context.Context, spec Spec, handler LineHandler) (int, error) {
	m.mu.Lock()
	m.specs = append(m.specs, spec)
	m.mu.Unlock()

	if m.Err != nil {
		return 1, m.Err
	}
	if handler != nil {
		for _, line := range m.Output {
			handler(Stdout, line)
		}
	}
	if m.FailOn != "" && strings.Contains(spec.String(), m.FailOn) {
		if m.FailCode == 0 {
			return 1, nil
		}
		return m.FailCode, nil
	}
	return 0, nil
}

// Specs returns the recorded invocations in call order.
func (m *MockExecutor) Specs() []Spec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Spec(nil), m.specs...)
}

// Commands returns the recorded invocations rendered as command lines.
func (m *MockExecutor) Commands() []string {
	specs := m.Specs()
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.String()
	}
	return out
}
