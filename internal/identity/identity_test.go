package identity

import (
	"context"
	"testing"
)

func TestFromContextDefaultsToAnonymous(t *testing.T) {
	id := FromContext(context.Background())
	if id.Authenticated {
		t.Fatal("expected anonymous identity")
	}
	if id.IsPatient() {
		t.Fatal("anonymous identity must not be a patient")
	}
}

func TestWithIdentityRoundTrip(t *testing.T) {
	want := Identity{
		Authenticated: true,
		Role:          RolePatient,
		PatientID:     44,
		FirstName:     "Ana",
		LastName:      "García",
	}
	ctx := WithIdentity(context.Background(), want)

	got := FromContext(ctx)
	if got != want {
		t.Fatalf("identity round trip mismatch: got %+v", got)
	}
	if !got.IsPatient() {
		t.Fatal("expected IsPatient true")
	}
}

func TestIsPatientRequiresRecordID(t *testing.T) {
	id := Identity{Authenticated: true, Role: RolePatient}
	if id.IsPatient() {
		t.Fatal("patient without record id must not count as patient")
	}
	id = Identity{Authenticated: true, Role: RoleDoctor, PatientID: 9}
	if id.IsPatient() {
		t.Fatal("doctor role must not count as patient")
	}
}
