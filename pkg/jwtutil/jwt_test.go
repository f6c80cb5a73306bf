package jwtutil

import (
	"testing"

	"github.com/Achess01/ComparteRide-platzi/pkg/config"
)

func TestGenerateAndValidateToken(t *testing.T) {
	util := NewJWTUtil(&config.JWTConfig{SigningKey: "testsigningkey", ExpirationHours: 1})

	token, err := util.GenerateToken("pablo@example.com", "pablo", 42)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := util.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Email != "pablo@example.com" || claims.Username != "pablo" || claims.UserID != 42 {
		t.Errorf("claims = %s/%s/%d, want pablo@example.com/pablo/42",
			claims.Email, claims.Username, claims.UserID)
	}
}

func TestValidateTokenWrongKey(t *testing.T) {
	issuer := NewJWTUtil(&config.JWTConfig{SigningKey: "issuerkey", ExpirationHours: 1})
	verifier := NewJWTUtil(&config.JWTConfig{SigningKey: "otherkey", ExpirationHours: 1})

	token, err := issuer.GenerateToken("pablo@example.com", "pablo", 42)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail with a different key")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	util := NewJWTUtil(&config.JWTConfig{SigningKey: "testsigningkey", ExpirationHours: -1})

	token, err := util.GenerateToken("pablo@example.com", "pablo", 42)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := util.ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail for an expired token")
	}
}

func TestValidateGarbageToken(t *testing.T) {
	util := NewJWTUtil(&config.JWTConfig{SigningKey: "testsigningkey", ExpirationHours: 1})
	if _, err := util.ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected validation to fail for garbage input")
	}
}
