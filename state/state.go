package state

import (
	"fmt"
	"sync"
	"time"

	"donorflow/types"
)

type RunState string

const (
	StateIdle             RunState = "idle"
	StateExtracting       RunState = "extracting"
	StateDeduplicating    RunState = "deduplicating"
	StateLoadingDirectory RunState = "loading-directory"
	StateMatching         RunState = "matching"
	StateComplete         RunState = "complete"
	StateError            RunState = "error"
)

const maxLogs = 50

// Manager tracks the progress of the current reconciliation run so the
// API can report status while a batch is in flight.
type Manager struct {
	mu           sync.RWMutex
	currentState RunState
	runID        string
	startedAt    time.Time
	result       *types.BatchResult
	lastErr      string
	logs         []string
}

type StatusResponse struct {
	State     RunState `json:"state"`
	RunID     string   `json:"runId,omitempty"`
	StartedAt string   `json:"startedAt,omitempty"`
	LastError string   `json:"lastError,omitempty"`
	Logs      []string `json:"logs"`
}

func NewManager() *Manager {
	return &Manager{currentState: StateIdle}
}

func (m *Manager) StartRun(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = StateExtracting
	m.runID = runID
	m.startedAt = time.Now()
	m.result = nil
	m.lastErr = ""
	m.logs = m.logs[:0]
	m.appendLog(fmt.Sprintf("Run %s started", runID))
}

func (m *Manager) SetState(s RunState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = s
	m.appendLog(fmt.Sprintf("Entered stage: %s", s))
}

func (m *Manager) GetState() RunState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState
}

func (m *Manager) AddLog(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLog(msg)
}

func (m *Manager) appendLog(msg string) {
	entry := fmt.Sprintf("[%s] %s", time.Now().Format(time.RFC3339), msg)
	m.logs = append(m.logs, entry)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *Manager) SetResult(result *types.BatchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = result
	m.currentState = StateComplete
	m.appendLog(fmt.Sprintf("Run %s complete: %d records, %d failures",
		result.RunID, len(result.Records), len(result.Failures)))
}

func (m *Manager) Result() *types.BatchResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.result
}

func (m *Manager) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = StateError
	m.lastErr = err.Error()
	m.appendLog(fmt.Sprintf("Run failed: %v", err))
}

func (m *Manager) GetStatus() StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp := StatusResponse{
		State:     m.currentState,
		RunID:     m.runID,
		LastError: m.lastErr,
		Logs:      append([]string(nil), m.logs...),
	}
	if !m.startedAt.IsZero() {
		resp.StartedAt = m.startedAt.Format(time.RFC3339)
	}
	return resp
}
