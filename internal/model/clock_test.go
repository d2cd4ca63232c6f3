package model

import "testing"

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want int
		err  bool
	}{
		{"08:00", 480, false},
		{"00:00", 0, false},
		{"23:59", 1439, false},
		{"8:05", 485, false},
		{"25:00", 0, true},
		{"12:75", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.err {
			if err == nil {
				t.Errorf("ParseClock(%q): want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{480, "08:00"},
		{480.4, "08:00"},
		{480.6, "08:01"},
		{0, "00:00"},
		{-3, "00:00"},
		{1439.9, "24:00"},
	}
	for _, tc := range cases {
		if got := FormatClock(tc.in); got != tc.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
