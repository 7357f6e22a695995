package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := Email(tt.input); got != tt.want {
			t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Pat Doe", "Pat Doe"},
		{"  Pat Doe  ", "Pat Doe"},
		{"UPPERCASE NAME", "UPPERCASE NAME"},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := Name(tt.input); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStatus(t *testing.T) {
	if got := Status(" ACTIVE "); got != "active" {
		t.Errorf("Status() = %q", got)
	}
}
