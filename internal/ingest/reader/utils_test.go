package reader

import "testing"

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "+1 (555) 123-4567\n", want: "+15551234567"},
		{in: "  79991234567 ", want: "79991234567"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := sanitizePhone(tt.in); got != tt.want {
			t.Errorf("sanitizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskPhone(t *testing.T) {
	if got := maskPhone("+15551234567"); got != "+15****67" {
		t.Errorf("maskPhone() = %q", got)
	}

	if got := maskPhone("123"); got != "****" {
		t.Errorf("maskPhone(short) = %q", got)
	}
}
