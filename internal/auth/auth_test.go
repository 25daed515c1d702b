package auth

import (
	"errors"
	"testing"
)

func TestSealer_Verify(t *testing.T) {
	s := NewSealer("s3cret")
	if !s.Verify("s3cret") {
		t.Error("expected configured token to verify")
	}
	if s.Verify("wrong") || s.Verify("") {
		t.Error("expected wrong or empty token to fail")
	}
	if NewSealer("").Verify("") {
		t.Error("expected empty configuration to reject everything")
	}
}

func TestSealer_SealOpen(t *testing.T) {
	s := NewSealer("s3cret")
	a, err := s.Seal()
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	b, _ := s.Seal()
	if a == b {
		t.Error("expected fresh nonce per seal")
	}
	if err := s.Open(a); err != nil {
		t.Errorf("expected sealed value to open, got %v", err)
	}
}

func TestSealer_OpenRejects(t *testing.T) {
	s := NewSealer("s3cret")
	other, _ := NewSealer("different").Seal()

	for name, v := range map[string]string{
		"other key": other,
		"garbage":   "not-base64!!",
		"short":     "AAAA",
		"empty":     "",
	} {
		if err := s.Open(v); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}
