// Package identity carries the authenticated caller through the request,
// replacing the SPA's global auth store with an explicit capability.
package identity

import "context"

// Role values issued by the backend's auth service.
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// Identity describes the current caller. The zero value is an anonymous
// visitor, which is a valid state: booking is reachable unauthenticated.
type Identity struct {
	Authenticated bool
	Role          string
	PatientID     int64

	// Contact defaults used to prefill patient info on a fresh session.
	FirstName string
	LastName  string
	Email     string
	Phone     string

	// Token is the raw bearer credential forwarded to the backend.
	Token string
}

// IsPatient reports whether the caller is an authenticated patient with a
// known patient record.
func (id Identity) IsPatient() bool {
	return id.Authenticated && id.Role == RolePatient && id.PatientID != 0
}

type ctxKey string

const identityKey ctxKey = "turnosmed.identity"

// WithIdentity stores the caller identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the caller identity, returning an anonymous identity
// when none is present.
func FromContext(ctx context.Context) Identity {
	val := ctx.Value(identityKey)
	if val == nil {
		return Identity{}
	}
	id, ok := val.(Identity)
	if !ok {
		return Identity{}
	}
	return id
}
