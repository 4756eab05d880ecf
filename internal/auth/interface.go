package auth

// TokenValidator verifies bearer tokens issued by the identity provider.
// Middleware depends on this interface so handler tests can run without keys.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Identity, error)
}

// Ensure Service implements TokenValidator
var _ TokenValidator = (*Service)(nil)
