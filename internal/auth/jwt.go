package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SharvChopra/SnapGram/internal/apperr"
)

// Verifier checks tokens issued by the auth service and extracts the caller
// identity from the "id" claim.
type Verifier struct {
	method string
	secret []byte
	pub    *rsa.PublicKey
}

func NewVerifierHS256(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt: empty HS256 secret")
	}
	return &Verifier{method: "HS256", secret: []byte(secret)}, nil
}

func NewVerifierRS256(pubKeyPath string) (*Verifier, error) {
	b, err := os.ReadFile(pubKeyPath)
	if err != nil {
		return nil, err
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(b)
	if err != nil {
		return nil, err
	}
	return &Verifier{method: "RS256", pub: pub}, nil
}

// Verify returns the user ID carried by a valid token.
func (v *Verifier) Verify(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		switch v.method {
		case "HS256":
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return v.secret, nil
		default:
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return v.pub, nil
		}
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid claims", apperr.ErrUnauthorized)
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", fmt.Errorf("%w: missing id claim", apperr.ErrUnauthorized)
	}
	return id, nil
}
