package errors

import (
	"strings"
	"testing"
)

func TestValidateSource(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "x = 1\nprint(x)\n", false},
		{"unicode", "s = 'héllo'", false},

		{"empty", "", true},
		{"blank", " \n\t", true},
		{"too large", strings.Repeat("a", MaxSourceBytes+1), true},
		{"invalid utf8", "x = '\xff'", true},
		{"nul byte", "x\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSource(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateSource() code = %v, want %v", GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateMaxNodes(t *testing.T) {
	for _, n := range []int{1, 800, MaxNodesLimit} {
		if err := ValidateMaxNodes(n); err != nil {
			t.Errorf("ValidateMaxNodes(%d) = %v", n, err)
		}
	}
	for _, n := range []int{0, -1, MaxNodesLimit + 1} {
		if err := ValidateMaxNodes(n); err == nil {
			t.Errorf("ValidateMaxNodes(%d) = nil, want error", n)
		}
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "cfg.svg", false},
		{"valid nested", "out/diagrams/cfg.svg", false},
		{"valid absolute", "/tmp/flowlens/cfg.svg", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"path traversal", "../etc/passwd", true},
		{"backslash", "foo\\bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://api.example.com", false},
		{"http", "http://localhost:8000", false},
		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"no scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
