package service

import (
	"regexp"
	"strings"

	"github.com/nbutton23/zxcvbn-go"
)

// Credential validation rules. These are pure functions: availability is
// supplied by the caller (a uniqueness lookup against the account store),
// so the rules themselves stay deterministic and trivially testable.

const (
	usernameMinLen = 3
	usernameMaxLen = 20
	passwordMinLen = 8
	passwordMaxLen = 128

	// The symbol class accepted by ValidatePassword.
	passwordSymbols = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// Shape check only: one local part, one domain with a dot. Deliverability
// is proven by the verification email, not the regexp.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateEmail checks the email shape and the caller-supplied
// availability result.
func ValidateEmail(email string, available bool) error {
	if !emailPattern.MatchString(email) {
		return ErrEmailFormat
	}
	if !available {
		return ErrEmailTaken
	}
	return nil
}

// ValidateUsername checks length and character class (at least one letter,
// otherwise letters/digits/underscore/hyphen) plus availability.
func ValidateUsername(username string, available bool) error {
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		return ErrUsernameFormat
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameFormat
	}
	if !strings.ContainsFunc(username, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}) {
		return ErrUsernameFormat
	}
	if !available {
		return ErrUsernameTaken
	}
	return nil
}

// ValidatePassword enforces the composition rules: length bounds and at
// least one lowercase, uppercase, digit and symbol.
func ValidatePassword(password string) error {
	if len(password) < passwordMinLen || len(password) > passwordMaxLen {
		return ErrPasswordFormat
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}

	if !lower || !upper || !digit || !symbol {
		return ErrPasswordFormat
	}
	return nil
}

// StrengthScore estimates password strength on the zxcvbn 0..4 scale. The
// score feeds UI guidance only; accept/reject decisions stay with
// ValidatePassword.
func StrengthScore(password string) int {
	score := zxcvbn.PasswordStrength(password, nil).Score
	if score < 0 {
		return 0
	}
	if score > 4 {
		return 4
	}
	return score
}

// NormalizeEmail lowercases and trims an email for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
