package domain

// Identity is the server-verified caller: the claims extracted from the
// session credential of the current request. It is never populated from a
// request body.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// TokenVerifier verifies a session token and returns the caller's identity.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// TokenIssuer issues session tokens for an authenticated user.
type TokenIssuer interface {
	Issue(identity *Identity) (string, error)
}
