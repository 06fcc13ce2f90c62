// Package inputval holds the explicit field checks run on account input
// before anything is written. Callers normalize first (see package normalize).
package inputval

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 30
	PasswordMinLen = 6
	// bcrypt ignores input past 72 bytes; reject instead of silently truncating.
	PasswordMaxBytes = 72
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s looks like user@domain.tld.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// CheckUsername validates an already-trimmed username.
func CheckUsername(s string) error {
	if s == "" {
		return errors.New("username is required")
	}
	n := utf8.RuneCountInString(s)
	if n < UsernameMinLen || n > UsernameMaxLen {
		return fmt.Errorf("username must be between %d and %d characters", UsernameMinLen, UsernameMaxLen)
	}
	return nil
}

// CheckEmail validates an already-normalized email address.
func CheckEmail(s string) error {
	if s == "" {
		return errors.New("email is required")
	}
	if !IsValidEmail(s) {
		return errors.New("please enter a valid email address")
	}
	return nil
}

// CheckPassword validates a plaintext password.
func CheckPassword(s string) error {
	if s == "" {
		return errors.New("password is required")
	}
	if utf8.RuneCountInString(s) < PasswordMinLen {
		return fmt.Errorf("password must be at least %d characters", PasswordMinLen)
	}
	if len(s) > PasswordMaxBytes {
		return fmt.Errorf("password must be at most %d bytes", PasswordMaxBytes)
	}
	return nil
}
