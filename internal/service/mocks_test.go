package service

import (
	"context"
	"sync"
)

type auditRecorderMock struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (m *auditRecorderMock) Record(_ context.Context, entry AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

func (m *auditRecorderMock) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}
