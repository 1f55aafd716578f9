package domain

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the cost the original deployment used; the
// service can override it from configuration.
const DefaultBcryptCost = 10

const minPasswordLength = 6

const specialChars = `!@#$%^&*(),.?":{}|<>`

// PasswordHash is an opaque bcrypt hash. It can only be obtained through
// HashPassword or ParsePasswordHash, so a value that exists is either a
// freshly computed hash or a string that passed format recognition.
type PasswordHash struct {
	value string
}

// String returns the stored hash. Never log or serialize this.
func (h PasswordHash) String() string { return h.value }

// IsZero reports whether no hash has been set.
func (h PasswordHash) IsZero() bool { return h.value == "" }

// Verify compares plain against the hash. Any failure, including a
// malformed stored value, reads as a mismatch.
func (h PasswordHash) Verify(plain string) bool {
	if plain == "" || h.value == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h.value), []byte(plain)) == nil
}

// IsHashedPassword reports whether value already belongs to the known
// bcrypt prefix family. Anything else is treated as plaintext and must go
// through HashPassword; this is the upgrade path for legacy credentials
// submitted via administrative creation.
func IsHashedPassword(value string) bool {
	return strings.HasPrefix(value, "$2a$") ||
		strings.HasPrefix(value, "$2b$") ||
		strings.HasPrefix(value, "$2y$")
}

// ParsePasswordHash accepts a value as an existing hash only if it matches
// the bcrypt prefix family.
func ParsePasswordHash(value string) (PasswordHash, error) {
	if value == "" {
		return PasswordHash{}, ErrPasswordRequired
	}
	if !IsHashedPassword(value) {
		return PasswordHash{}, NewValidationError("password hash has an unrecognized format")
	}
	return PasswordHash{value: value}, nil
}

// HashPassword validates the strength policy and computes a bcrypt hash.
// cost <= 0 falls back to DefaultBcryptCost.
func HashPassword(plain string, cost int) (PasswordHash, error) {
	if err := ValidatePasswordStrength(plain); err != nil {
		return PasswordHash{}, err
	}
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return PasswordHash{}, err
	}
	return PasswordHash{value: string(b)}, nil
}

// ValidatePasswordStrength enforces the full policy: minimum length plus
// at least one uppercase letter, one lowercase letter, one digit and one
// special character. All missing classes are reported together.
func ValidatePasswordStrength(plain string) error {
	if len(plain) < minPasswordLength {
		return NewValidationError("password must contain at least 6 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	var missing []string
	if !hasUpper {
		missing = append(missing, "at least one uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "at least one lowercase letter")
	}
	if !hasDigit {
		missing = append(missing, "at least one digit")
	}
	if !hasSpecial {
		missing = append(missing, "at least one special character")
	}
	if len(missing) > 0 {
		return &WeakPasswordError{Missing: missing}
	}
	return nil
}
