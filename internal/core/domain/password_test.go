package domain

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_Roundtrip(t *testing.T) {
	hash, err := HashPassword("Passw0rd!", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash.IsZero() {
		t.Fatalf("expected non-zero hash")
	}
	if !IsHashedPassword(hash.String()) {
		t.Fatalf("hash %q not recognized as bcrypt", hash.String())
	}
	if !hash.Verify("Passw0rd!") {
		t.Fatalf("correct password did not verify")
	}
	if hash.Verify("Passw0rd?") {
		t.Fatalf("wrong password verified")
	}
}

func TestHashPassword_WeakRejected(t *testing.T) {
	_, err := HashPassword("nouppercase1!", bcrypt.MinCost)
	var wpe *WeakPasswordError
	if !errors.As(err, &wpe) {
		t.Fatalf("expected WeakPasswordError, got %v", err)
	}
}

func TestValidatePasswordStrength_ListsAllMissingClasses(t *testing.T) {
	err := ValidatePasswordStrength("abcdef")
	var wpe *WeakPasswordError
	if !errors.As(err, &wpe) {
		t.Fatalf("expected WeakPasswordError, got %v", err)
	}
	if len(wpe.Missing) != 3 {
		t.Fatalf("expected 3 missing classes, got %d: %v", len(wpe.Missing), wpe.Missing)
	}
	for _, want := range []string{"uppercase", "digit", "special"} {
		if !strings.Contains(wpe.Error(), want) {
			t.Fatalf("error %q does not mention %s", wpe.Error(), want)
		}
	}
}

func TestValidatePasswordStrength_TooShort(t *testing.T) {
	err := ValidatePasswordStrength("Ab1!")
	var de *Error
	if !errors.As(err, &de) || de.Code != CodeValidation {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
}

func TestValidatePasswordStrength_Accepts(t *testing.T) {
	if err := ValidatePasswordStrength("Passw0rd!"); err != nil {
		t.Fatalf("expected valid password, got %v", err)
	}
}

func TestVerify_MalformedHashReadsAsMismatch(t *testing.T) {
	var zero PasswordHash
	if zero.Verify("anything") {
		t.Fatalf("zero hash verified")
	}
}

func TestParsePasswordHash(t *testing.T) {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if _, err := ParsePasswordHash(prefix + "10$abcdefghijklmnopqrstuv"); err != nil {
			t.Fatalf("prefix %s rejected: %v", prefix, err)
		}
	}

	if _, err := ParsePasswordHash("plaintext"); err == nil {
		t.Fatalf("plaintext accepted as hash")
	}
	if _, err := ParsePasswordHash(""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestIsHashedPassword(t *testing.T) {
	if IsHashedPassword("Passw0rd!") {
		t.Fatalf("plaintext recognized as hash")
	}
	if !IsHashedPassword("$2b$10$abc") {
		t.Fatalf("bcrypt string not recognized")
	}
}
