package auth

import (
	"sync"
)

// MockTokenValidator maps fixed token strings to identities.
type MockTokenValidator struct {
	mu     sync.Mutex
	Tokens map[string]*Identity
	Calls  []string
}

// NewMockTokenValidator creates an empty mock validator.
func NewMockTokenValidator() *MockTokenValidator {
	return &MockTokenValidator{Tokens: make(map[string]*Identity)}
}

// Add registers token as a valid credential for userID.
func (m *MockTokenValidator) Add(token, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tokens[token] = &Identity{UserID: userID}
}

// ValidateToken implements TokenValidator.
func (m *MockTokenValidator) ValidateToken(tokenString string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, tokenString)
	if id, ok := m.Tokens[tokenString]; ok {
		return id, nil
	}
	return nil, ErrInvalidToken
}

var _ TokenValidator = (*MockTokenValidator)(nil)
