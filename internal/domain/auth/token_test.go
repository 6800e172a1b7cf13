package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", EmployeeID: "e1", Role: RoleSupervisor}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	p := claims.Principal()
	if p.UserID != "u1" || p.EmployeeID != "e1" || p.Role != RoleSupervisor {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestParseTokenRejects(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", Role: RoleUser}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Fatal("expected signature error")
	}

	expired, err := GenerateToken("secret", Claims{UserID: "u1", Role: RoleUser}, -time.Minute)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", expired); err == nil {
		t.Fatal("expected expiry error")
	}

	badRole, err := GenerateToken("secret", Claims{UserID: "u1", Role: "hr"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", badRole); err == nil {
		t.Fatal("expected role error")
	}
}
