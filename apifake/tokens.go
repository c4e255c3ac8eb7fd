package apifake

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

func (s *Server) createAccessToken(username string, roles []string) (string, error) {
	claims := jwt.MapClaims{
		"sub":      username,
		"username": username,
		"roles":    roles,
		"iat":      NowTimeFunc().Unix(),
		"exp":      NowTimeFunc().Add(s.accessTTL).Unix(),
		"jti":      uuid.New().String(), // unique per token so re-issues never collide
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}

func newOpaqueToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
