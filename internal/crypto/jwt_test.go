package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signClaims(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}
	return s
}

func validClaims(subject string) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

func TestIssue(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty string")
	}

	if _, err := svc.Issue(""); err == nil {
		t.Error("Issue() expected error for empty subject")
	}
}

func TestNewTokenServiceDefaultTTL(t *testing.T) {
	if got := NewTokenService("s", 0).TTL(); got != DefaultTokenTTL {
		t.Errorf("TTL() = %v, want %v", got, DefaultTokenTTL)
	}
	if DefaultTokenTTL != 7*24*time.Hour {
		t.Errorf("DefaultTokenTTL = %v, want 7 days", DefaultTokenTTL)
	}
}

func TestVerifyValid(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	subject, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}
	if subject != "user-42" {
		t.Errorf("Verify() subject = %q, want %q", subject, "user-42")
	}
}

func TestVerifyRejects(t *testing.T) {
	secret := "test-secret"
	svc := NewTokenService(secret, time.Hour)

	wrongIssuer := validClaims("user-42")
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := validClaims("user-42")
	wrongAudience.Audience = jwt.ClaimStrings{"other-api"}

	noSubject := validClaims("")

	noExpiry := validClaims("user-42")
	noExpiry.ExpiresAt = nil

	otherSecret := NewTokenService("other-secret", time.Hour)
	foreign, err := otherSecret.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims("user-42"))
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-valid-token"},
		{name: "empty", token: ""},
		{name: "wrong secret", token: foreign},
		{name: "wrong issuer", token: signClaims(t, secret, wrongIssuer)},
		{name: "wrong audience", token: signClaims(t, secret, wrongAudience)},
		{name: "missing subject", token: signClaims(t, secret, noSubject)},
		{name: "missing expiry", token: signClaims(t, secret, noExpiry)},
		{name: "alg none", token: unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := svc.Verify(tt.token)
			if err != ErrInvalidToken {
				t.Errorf("Verify() error = %v, want %v", err, ErrInvalidToken)
			}
			if subject != "" {
				t.Errorf("Verify() subject = %q, want empty", subject)
			}
		})
	}
}

func TestVerifyExpired(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService("test-secret", DefaultTokenTTL)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(DefaultTokenTTL - time.Minute) }
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("Verify() inside the window unexpected error: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(DefaultTokenTTL + time.Minute) }
	if _, err := svc.Verify(token); err != ErrInvalidToken {
		t.Errorf("Verify() after expiry error = %v, want %v", err, ErrInvalidToken)
	}
}
