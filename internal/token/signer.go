// Package token mints the short-lived signed internal tokens used for
// service-to-service calls.
//
// Claim shape (full token): {"user_id": <int>, "iat": <unix>,
// "exp": <unix, iat + TTL>, "iss": <issuer>}, signed with RS256.
// Verification happens in downstream services holding the paired public
// key; this service only signs.
package token

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidKey is returned when the PEM block or key type is invalid.
var ErrInvalidKey = errors.New("invalid private key")

// InternalClaims is the claim set carried by a full internal token.
type InternalClaims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// LightClaims is the reduced claim set minted on verify-session calls.
type LightClaims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// Signer mints RS256-signed internal tokens. The private key is loaded
// once at process start and treated as immutable afterwards; Signer is
// safe for concurrent use.
type Signer struct {
	privateKey *rsa.PrivateKey
	issuer     string
	ttl        time.Duration
}

// NewSigner loads the PEM private key from path and returns a Signer.
// An unreadable or malformed key is a configuration error; callers
// abort startup on a non-nil error.
func NewSigner(path, issuer string, ttl time.Duration) (*Signer, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", path, err)
	}
	key, err := ParsePrivateKey(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
	return NewSignerFromKey(key, issuer, ttl), nil
}

// NewSignerFromKey returns a Signer using an already-parsed key.
func NewSignerFromKey(key *rsa.PrivateKey, issuer string, ttl time.Duration) *Signer {
	return &Signer{privateKey: key, issuer: issuer, ttl: ttl}
}

// ParsePrivateKey parses a PEM-encoded RSA private key (PKCS1 or PKCS8).
func ParsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, ErrInvalidKey
		}
		return rsaKey, nil
	default:
		return nil, ErrInvalidKey
	}
}

// Sign mints a full internal token for the principal: issued now,
// expiring after the configured TTL, with the configured issuer.
func (s *Signer) Sign(userID int) (string, error) {
	now := time.Now().UTC()
	claims := InternalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: userID,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return t.SignedString(s.privateKey)
}

// SignLight mints a token carrying only the principal identifier, used
// by verify-session responses.
func (s *Signer) SignLight(userID int) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, LightClaims{UserID: userID})
	return t.SignedString(s.privateKey)
}
