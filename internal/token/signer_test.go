package token

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate test key: %v", err)
	}
	return key
}

func writeKeyFile(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	path := filepath.Join(t.TempDir(), "private.pem")
	if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	return path
}

func parseClaims(t *testing.T, tokenString string, key *rsa.PrivateKey) *InternalClaims {
	t.Helper()
	parsed, err := jwt.ParseWithClaims(tokenString, &InternalClaims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodRSA); !ok {
			t.Fatalf("unexpected signing method %v", tok.Method.Alg())
		}
		return &key.PublicKey, nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims, ok := parsed.Claims.(*InternalClaims)
	if !ok || !parsed.Valid {
		t.Fatal("token did not validate")
	}
	return claims
}

func TestSigner_SignClaimShape(t *testing.T) {
	key := testKey(t)
	s := NewSignerFromKey(key, "AUTH_SERVICE", 10*time.Minute)

	tokenString, err := s.Sign(42)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims := parseClaims(t, tokenString, key)
	if claims.UserID != 42 {
		t.Errorf("user_id: want 42, got %d", claims.UserID)
	}
	if claims.Issuer != "AUTH_SERVICE" {
		t.Errorf("iss: want AUTH_SERVICE, got %q", claims.Issuer)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatal("iat or exp missing")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 10*time.Minute {
		t.Errorf("exp - iat: want 10m, got %v", got)
	}
}

func TestSigner_SignLightOmitsExpiryAndIssuer(t *testing.T) {
	key := testKey(t)
	s := NewSignerFromKey(key, "AUTH_SERVICE", 10*time.Minute)

	tokenString, err := s.SignLight(7)
	if err != nil {
		t.Fatalf("SignLight: %v", err)
	}

	claims := parseClaims(t, tokenString, key)
	if claims.UserID != 7 {
		t.Errorf("user_id: want 7, got %d", claims.UserID)
	}
	if claims.Issuer != "" {
		t.Errorf("light token should carry no issuer, got %q", claims.Issuer)
	}
	if claims.ExpiresAt != nil {
		t.Errorf("light token should carry no expiry, got %v", claims.ExpiresAt)
	}
}

func TestNewSigner_LoadsPEMFromFile(t *testing.T) {
	key := testKey(t)
	path := writeKeyFile(t, key)

	s, err := NewSigner(path, "AUTH_SERVICE", 10*time.Minute)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	tokenString, err := s.Sign(1)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	parseClaims(t, tokenString, key)
}

func TestNewSigner_MissingFile(t *testing.T) {
	_, err := NewSigner(filepath.Join(t.TempDir(), "absent.pem"), "AUTH_SERVICE", 10*time.Minute)
	if err == nil {
		t.Fatal("NewSigner with missing key file should fail")
	}
}

func TestParsePrivateKey_Invalid(t *testing.T) {
	if _, err := ParsePrivateKey([]byte("not pem at all")); err == nil {
		t.Fatal("ParsePrivateKey with garbage should fail")
	}
	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1, 2, 3}})
	if _, err := ParsePrivateKey(block); err == nil {
		t.Fatal("ParsePrivateKey with wrong block type should fail")
	}
}
