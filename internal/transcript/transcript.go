// Package transcript keeps the in-memory conversation of an interactive session.
// Nothing is persisted.
package transcript

import (
	"sync"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/types"
)

const defaultMaxMessages = 20

// Manager is a bounded, concurrency-safe message window.
type Manager struct {
	messages    []types.Message
	maxMessages int
	mu          sync.RWMutex
}

func NewManager(maxMessages int) *Manager {
	if maxMessages <= 0 {
		maxMessages = defaultMaxMessages
	}
	return &Manager{
		messages:    make([]types.Message, 0),
		maxMessages: maxMessages,
	}
}

// AddMessage appends msg and drops the oldest messages beyond the window. The
// window never starts with a tool result whose call was dropped.
func (m *Manager) AddMessage(msg types.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, msg)

	if len(m.messages) > m.maxMessages {
		m.messages = m.messages[len(m.messages)-m.maxMessages:]
	}
	for len(m.messages) > 0 && m.messages[0].Role == types.RoleTool {
		m.messages = m.messages[1:]
	}
}

// AddUser appends a textual user turn.
func (m *Manager) AddUser(content string) {
	m.AddMessage(types.Message{Role: types.RoleUser, Content: content})
}

// GetMessages returns a copy of the window.
func (m *Manager) GetMessages() []types.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]types.Message, len(m.messages))
	copy(result, m.messages)
	return result
}

// Len returns the number of messages held.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = make([]types.Message, 0)
}
