package errors

import (
	"strings"
	"testing"
)

func TestValidateElementID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "web", false},
		{"uid-like", "8d6f3c1e-3b7a-4c1b-9a8e-5f0e2d7c4b1a", false},
		{"with slash", "openshift-storage/ocs-deviceset", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 254), true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateElementID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateElementID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidModel) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidModel)
			}
		})
	}
}

func TestValidateResourceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "nodejs-app", false},
		{"dotted", "ocs-storagecluster.v1", false},
		{"digits", "app2", false},

		{"empty", "", true},
		{"upper case", "MyApp", true},
		{"leading dash", "-app", true},
		{"trailing dash", "app-", true},
		{"underscore", "my_app", true},
		{"too long", strings.Repeat("a", 254), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResourceName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateResourceName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNamespace(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "openshift-storage", false},
		{"empty", "", true},
		{"dotted", "a.b", true},
		{"too long", strings.Repeat("a", 64), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNamespace(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNamespace(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateGitURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://github.com/sclorg/nodejs-ex.git", false},
		{"ssh", "ssh://git@github.com/sclorg/nodejs-ex.git", false},
		{"scp-like", "git@github.com:sclorg/nodejs-ex.git", false},

		{"empty", "", true},
		{"file scheme", "file:///etc/passwd", true},
		{"no scheme", "github.com/sclorg/nodejs-ex", true},
		{"space", "https://github.com/a b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGitURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGitURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
