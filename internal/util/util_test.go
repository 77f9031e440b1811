package util

import (
	"reflect"
	"testing"
)

func TestFields(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"blank", "  \t ", nil},
		{"single", ":PLAY:", []string{":PLAY:"}},
		{"args", ":FLAG:PLACE: start 8.5,47.3,410", []string{":FLAG:PLACE:", "start", "8.5,47.3,410"}},
		{"extra spacing", "  :TICK:\t\t0.016  ", []string{":TICK:", "0.016"}},
		{"quoted with spaces", `:HOVER: "8.5, 47.3"`, []string{":HOVER:", "8.5, 47.3"}},
		{"escaped quote", `:NOTE: "say ""hi"""`, []string{":NOTE:", `say "hi"`}},
		{"empty quoted", `:X: ""`, []string{":X:", ""}},
		{"quote joins", `a"b c"d`, []string{"ab cd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Fields(tt.input)
			if err != nil {
				t.Fatalf("Fields(%q) error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Fields(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFields_Unterminated(t *testing.T) {
	if _, err := Fields(`:HOVER: "8.5,47.3`); err == nil {
		t.Error("expected error for unterminated quote")
	}
}

func TestParseIntFromFloat(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{"3.00", 3, false},
		{"-1", -1, false},
		{"2.5", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIntFromFloat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIntFromFloat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseIntFromFloat(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
