// Package auth checks the shared access token and issues the sealed cookie
// that stands in for it between requests.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrInvalidToken = errors.New("invalid token")

// Sealer verifies the configured token and seals it for cookie storage.
type Sealer struct {
	token []byte
	key   [32]byte
}

func NewSealer(token string) *Sealer {
	return &Sealer{
		token: []byte(token),
		key:   sha256.Sum256([]byte("pdfoutline-cookie:" + token)),
	}
}

// Verify compares a plain token against the configured one.
func (s *Sealer) Verify(token string) bool {
	if token == "" || len(s.token) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), s.token) == 1
}

// Seal encrypts the configured token under a fresh nonce.
func (s *Sealer) Seal() (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], s.token, &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

// Open checks a sealed cookie value.
func (s *Sealer) Open(sealed string) error {
	box, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return ErrInvalidToken
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok || !s.Verify(string(plain)) {
		return ErrInvalidToken
	}
	return nil
}
