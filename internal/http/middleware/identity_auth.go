package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/turnosmed/booking-engine/internal/identity"
)

// identityClaims is the JWT payload issued by the TurnosMed backend on login.
type identityClaims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	PatientID int64  `json:"patientId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Identity resolves the caller's identity from a bearer token and stores it
// in the request context. The booking flow works for anonymous visitors, so
// a missing or invalid token never rejects the request: it just yields an
// unauthenticated identity.
func Identity(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := resolveIdentity(r, secret)
			ctx := identity.WithIdentity(r.Context(), ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveIdentity(r *http.Request, secret string) identity.Identity {
	if secret == "" {
		return identity.Identity{}
	}
	auth := r.Header.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return identity.Identity{}
	}
	tokenString := strings.TrimPrefix(auth, "Bearer ")

	claims := identityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return identity.Identity{}
	}

	return identity.Identity{
		Authenticated: true,
		Role:          claims.Role,
		PatientID:     claims.PatientID,
		FirstName:     claims.FirstName,
		LastName:      claims.LastName,
		Email:         claims.Email,
		Phone:         claims.Phone,
		Token:         tokenString,
	}
}
