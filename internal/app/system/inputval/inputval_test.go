package inputval

import (
	"strings"
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		// Valid emails
		{"user@example.com", true},
		{"user.name@example.com", true},
		{"user+tag@example.com", true},
		{"user@subdomain.example.com", true},
		{"alice@x.com", true},
		{"a@b.co", true},

		// Invalid emails - empty/whitespace
		{"", false},
		{"   ", false},

		// Invalid emails - missing parts
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{"user@localhost", false},

		// Invalid emails - whitespace or extra @
		{"user @example.com", false},
		{"user@ example.com", false},
		{"user@exam ple.com", false},
		{"user@@example.com", false},
		{"User Name <user@example.com>", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got := IsValidEmail(tt.email)
			if got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestCheckUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", true},
		{"too short", "ab", true},
		{"min length", "abc", false},
		{"max length", strings.Repeat("a", 30), false},
		{"too long", strings.Repeat("a", 31), true},
		{"multibyte counted as runes", "äöü", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckUsername(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckUsername(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestCheckEmail(t *testing.T) {
	if err := CheckEmail(""); err == nil || !strings.Contains(err.Error(), "required") {
		t.Errorf("expected required error, got %v", err)
	}
	if err := CheckEmail("nope"); err == nil {
		t.Error("expected error for malformed email")
	}
	if err := CheckEmail("alice@x.com"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", true},
		{"too short", "abc", true},
		{"min length", "secret", false},
		{"typical", "secret1", false},
		{"too long for bcrypt", strings.Repeat("x", 73), true},
		{"exactly 72 bytes", strings.Repeat("x", 72), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPassword(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckPassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
