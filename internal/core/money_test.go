package core

import (
	"errors"
	"testing"
)

func TestParseAmountCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "integer", input: "5000", want: 500000},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "negative", input: "-499.5", want: -49950},
		{name: "explicit plus", input: "+3.5", want: 350},
		{name: "zero", input: "0", want: 0},
		{name: "rounds half up", input: "12.345", want: 1235},
		{name: "rounds down", input: "12.344", want: 1234},
		{name: "whitespace", input: "  7.25 ", want: 725},
		{name: "empty", input: "", wantErr: true},
		{name: "letters", input: "abc", wantErr: true},
		{name: "double separator", input: "1.2.3", wantErr: true},
		{name: "bare dot", input: ".", wantErr: true},
		{name: "trailing dot", input: "12.", wantErr: true},
		{name: "zero trailing dot", input: "0.", wantErr: true},
		{name: "leading dot", input: ".5", want: 50},
		{name: "mixed", input: "12x.50", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmountCents(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseAmountCents(%q) err = %v, want ErrInvalidAmount", tc.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmountCents(%q) unexpected error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParseAmountCents(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{500000, "5000"},
		{-49950, "-499.5"},
		{1234, "12.34"},
		{0, "0"},
		{-5, "-0.05"},
		{100, "1"},
		{110, "1.1"},
	}
	for _, tc := range tests {
		if got := FormatCents(tc.cents); got != tc.want {
			t.Errorf("FormatCents(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestAmountRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, -1, 99, 500000, -49950, 123456789} {
		got, err := ParseAmountCents(FormatCents(cents))
		if err != nil {
			t.Fatalf("round trip %d: %v", cents, err)
		}
		if got != cents {
			t.Errorf("round trip %d -> %q -> %d", cents, FormatCents(cents), got)
		}
	}
}
