package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testKey = "test-signing-key"

func signToken(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifier_Verify(t *testing.T) {
	v := NewVerifier(Config{SigningKey: testKey, Issuer: "settlement-flow"}, zap.NewNop())

	token := signToken(t, testKey, jwt.MapClaims{
		"sub":   "user-1",
		"email": "kim@example.com",
		"name":  "Kim",
		"iss":   "settlement-flow",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	identity, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if identity.ID != "user-1" {
		t.Errorf("identity.ID = %v, want user-1", identity.ID)
	}
	if identity.Email != "kim@example.com" {
		t.Errorf("identity.Email = %v, want kim@example.com", identity.Email)
	}
	if identity.Name != "Kim" {
		t.Errorf("identity.Name = %v, want Kim", identity.Name)
	}
}

func TestVerifier_Verify_NameFallsBackToMailbox(t *testing.T) {
	v := NewVerifier(Config{SigningKey: testKey}, zap.NewNop())

	token := signToken(t, testKey, jwt.MapClaims{
		"sub":   "user-1",
		"email": "lee@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	identity, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if identity.Name != "lee" {
		t.Errorf("identity.Name = %v, want lee", identity.Name)
	}
}

func TestVerifier_Verify_Failures(t *testing.T) {
	v := NewVerifier(Config{SigningKey: testKey, Issuer: "settlement-flow"}, zap.NewNop())

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "garbage token",
			token: "not-a-jwt",
		},
		{
			name: "wrong key",
			token: signToken(t, "other-key", jwt.MapClaims{
				"sub": "user-1",
				"iss": "settlement-flow",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name: "expired",
			token: signToken(t, testKey, jwt.MapClaims{
				"sub": "user-1",
				"iss": "settlement-flow",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
		},
		{
			name: "wrong issuer",
			token: signToken(t, testKey, jwt.MapClaims{
				"sub": "user-1",
				"iss": "someone-else",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name: "missing subject",
			token: signToken(t, testKey, jwt.MapClaims{
				"iss": "settlement-flow",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(context.Background(), tt.token); err == nil {
				t.Error("Verify() expected error, got nil")
			}
		})
	}
}
