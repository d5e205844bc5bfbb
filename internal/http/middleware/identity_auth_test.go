package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/turnosmed/booking-engine/internal/identity"
)

func signedPatientToken(t *testing.T, secret string) string {
	t.Helper()
	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "44",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role:      identity.RolePatient,
		PatientID: 44,
		FirstName: "Juan",
		LastName:  "Sosa",
		Email:     "juan@example.com",
		Phone:     "1144556677",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func identityFromRequest(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) identity.Identity {
	t.Helper()
	var got identity.Identity
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = identity.FromContext(r.Context())
	})).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	return got
}

func TestIdentityValidToken(t *testing.T) {
	mw := Identity("secret")
	req := httptest.NewRequest(http.MethodGet, "/api/slots", nil)
	req.Header.Set("Authorization", "Bearer "+signedPatientToken(t, "secret"))

	got := identityFromRequest(t, mw, req)
	if !got.Authenticated {
		t.Fatalf("expected authenticated identity")
	}
	if !got.IsPatient() {
		t.Fatalf("expected patient identity, got role %q patient id %d", got.Role, got.PatientID)
	}
	if got.FirstName != "Juan" || got.Email != "juan@example.com" {
		t.Fatalf("contact defaults not carried: %+v", got)
	}
	if got.Token == "" {
		t.Fatalf("expected raw token to be retained for backend forwarding")
	}
}

func TestIdentityMissingHeaderIsAnonymous(t *testing.T) {
	mw := Identity("secret")
	req := httptest.NewRequest(http.MethodGet, "/api/slots", nil)

	got := identityFromRequest(t, mw, req)
	if got.Authenticated {
		t.Fatalf("expected anonymous identity")
	}
}

func TestIdentityInvalidTokenIsAnonymous(t *testing.T) {
	mw := Identity("secret")
	req := httptest.NewRequest(http.MethodGet, "/api/slots", nil)
	req.Header.Set("Authorization", "Bearer "+signedPatientToken(t, "wrong"))

	got := identityFromRequest(t, mw, req)
	if got.Authenticated {
		t.Fatalf("expected invalid signature to yield anonymous identity")
	}
}

func TestIdentityDisabledSecretIsAnonymous(t *testing.T) {
	mw := Identity("")
	req := httptest.NewRequest(http.MethodGet, "/api/slots", nil)
	req.Header.Set("Authorization", "Bearer "+signedPatientToken(t, "secret"))

	got := identityFromRequest(t, mw, req)
	if got.Authenticated {
		t.Fatalf("expected anonymous identity when verification is disabled")
	}
}
