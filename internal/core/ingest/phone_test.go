package ingest

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0712345678", "254712345678"},
		{"712345678", "254712345678"},
		{"254712345678", "254712345678"},
		{"+254 712 345 678", "254712345678"},
		{"0712-345-678", "254712345678"},
		{"12345", ""},
		{"", ""},
		{"0012345678", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := NormalizePhone(tc.in); got != tc.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestValidPhone(t *testing.T) {
	if !ValidPhone("254712345678") {
		t.Error("canonical number should be valid")
	}
	if ValidPhone("0712345678") {
		t.Error("local form is not canonical")
	}
}

func TestFormatPhoneDisplay(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"254712345678", "+254 712 345 678"},
		{"0712345678", "+254 712 345 678"},
		{"712345678", "+254 712 345 678"},
		{"garbage", "garbage"},
	}
	for _, tc := range cases {
		if got := FormatPhoneDisplay(tc.in); got != tc.want {
			t.Errorf("FormatPhoneDisplay(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
