package fiscal

import (
	"context"
	"crypto/ecdsa"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// jwsHeader is the fixed protected header of every receipt signature.
var jwsHeader = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"ES256"}`))

// SignPayload seals payload on dev and returns the compact JWS.
func SignPayload(ctx context.Context, dev Device, payload string) (string, error) {
	signingInput := jwsHeader + "." + base64.RawURLEncoding.EncodeToString([]byte(payload))
	sig, err := dev.Sign(ctx, signingInput)
	if err != nil {
		return "", err
	}
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify checks a compact JWS against pub and returns the signed payload.
func Verify(token string, pub *ecdsa.PublicKey) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", errors.New("malformed signature")
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	if err := jwt.SigningMethodES256.Verify(parts[0]+"."+parts[1], sig, pub); err != nil {
		return "", err
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	return string(payload), nil
}

// keySigner signs with a P-256 key held in process.
type keySigner struct {
	key *ecdsa.PrivateKey
}

func (k keySigner) sign(signingInput string) ([]byte, error) {
	return jwt.SigningMethodES256.Sign(signingInput, k.key)
}
