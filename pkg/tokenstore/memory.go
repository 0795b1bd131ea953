package tokenstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/fhirstack/smartauth/pkg/smartauth"
)

// Memory is a mutex-guarded in-memory TokenStore, suitable for
// single-process apps and as the test double.
type Memory struct {
	mu     sync.RWMutex
	tokens map[string]*smartauth.Token
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tokens: make(map[string]*smartauth.Token)}
}

func (m *Memory) Save(_ context.Context, serverURL string, token *smartauth.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[serverURL] = token
	return nil
}

func (m *Memory) Load(_ context.Context, serverURL string) (*smartauth.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, ok := m.tokens[serverURL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", smartauth.ErrTokenNotFound, serverURL)
	}
	return token, nil
}

func (m *Memory) Delete(_ context.Context, serverURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, serverURL)
	return nil
}
