package port

import "context"

// Identity is the claim set a verified credential resolves to. The role is
// deliberately absent: roles are read from the user directory, not from
// anything the caller presents.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// TokenVerifier validates an opaque bearer credential against the identity
// provider's signing key and returns the identity it asserts. Verification
// happens before any repository transaction begins.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
