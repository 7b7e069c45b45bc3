// Package password provides the password-complexity rule evaluator and the
// bcrypt hashing helpers used by the HR app's password-change flows.
package password

import (
	"fmt"
	"unicode"

	"github.com/finchworks/gatehouse/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost     = 12
	MaxPasswordLen = 128
)

// Validate evaluates a candidate password against the policy and returns
// every violated rule. It is a pure function: no shared state, no side
// effects. Rules are evaluated in a fixed order — minimum length, uppercase,
// lowercase, digit, special character — and all applicable violations are
// collected rather than short-circuited, so callers can display every failing
// rule at once. A policy with RequireStrongPasswords disabled accepts
// anything.
func Validate(candidate string, policy models.SecurityPolicy) []string {
	if !policy.RequireStrongPasswords {
		return nil
	}

	violations := make([]string, 0)

	if len(candidate) < policy.MinPasswordLength {
		violations = append(violations,
			fmt.Sprintf("password must be at least %d characters long", policy.MinPasswordLength))
	}

	hasUpper := false
	hasLower := false
	hasDigit := false
	hasSpecial := false
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if policy.RequireUppercase && !hasUpper {
		violations = append(violations, "password must contain at least one uppercase letter")
	}
	if policy.RequireLowercase && !hasLower {
		violations = append(violations, "password must contain at least one lowercase letter")
	}
	if policy.RequireNumbers && !hasDigit {
		violations = append(violations, "password must contain at least one number")
	}
	if policy.RequireSpecialChars && !hasSpecial {
		violations = append(violations, "password must contain at least one special character")
	}

	return violations
}

// Hash returns the bcrypt hash of a password.
func Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	if len(password) > MaxPasswordLen {
		return "", fmt.Errorf("password exceeds %d characters", MaxPasswordLen)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare checks a password against its bcrypt hash.
func Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
