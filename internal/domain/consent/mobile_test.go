package consent

import (
	"errors"
	"testing"
)

func TestNormalizeMobile(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain ten digits", input: "9999999999", want: "9999999999"},
		{name: "formatted with spaces and dashes", input: "98765-43210", want: "9876543210"},
		{name: "with parens", input: "(987) 654 3210", want: "9876543210"},
		{name: "country code makes it twelve digits", input: "+91 9876543210", wantErr: true},
		{name: "too short", input: "12345", wantErr: true},
		{name: "letters only", input: "abcdefghij", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeMobile(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("NormalizeMobile(%q) error = %v, want ErrInvalidInput", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeMobile(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeMobile(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestVirtualAddress(t *testing.T) {
	digits, err := NormalizeMobile("9999999999")
	if err != nil {
		t.Fatalf("NormalizeMobile() failed: %v", err)
	}
	if got := VirtualAddress(digits); got != "9999999999@onemoney" {
		t.Errorf("VirtualAddress() = %q, want %q", got, "9999999999@onemoney")
	}
}

func TestMaskMobile(t *testing.T) {
	if got := MaskMobile("9876543210"); got != "9876******" {
		t.Errorf("MaskMobile() = %q, want %q", got, "9876******")
	}
	if got := MaskMobile("123"); got != "123" {
		t.Errorf("MaskMobile() = %q, want %q", got, "123")
	}
}
