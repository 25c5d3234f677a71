package utils_test

import (
	"testing"
	"time"

	"github.com/Insanely-69/CelestialSword2/pkg/utils"
)

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-50000, "-50,000"},
	}
	for _, tc := range cases {
		if got := utils.FormatNumber(tc.in); got != tc.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{12 * time.Minute, "12m"},
		{3*time.Hour + 20*time.Minute, "3h 20m"},
		{2*24*time.Hour + 5*time.Hour, "2d 5h"},
		{-time.Hour, "0s"},
	}
	for _, tc := range cases {
		if got := utils.FormatDuration(tc.in); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	if got := utils.ProgressBar(5, 10, 10); got != "█████░░░░░ 50%" {
		t.Errorf("unexpected half bar: %q", got)
	}
	if got := utils.ProgressBar(20, 10, 10); got != "██████████ 200%" {
		t.Errorf("expected overfull bar to clamp fill: %q", got)
	}
	if got := utils.ProgressBar(5, 0, 10); got != "░░░░░░░░░░" {
		t.Errorf("expected empty bar for zero total: %q", got)
	}
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th",
		11: "11th", 12: "12th", 13: "13th", 21: "21st", 102: "102nd",
	}
	for in, want := range cases {
		if got := utils.Ordinal(in); got != want {
			t.Errorf("Ordinal(%d) = %q, want %q", in, got, want)
		}
	}
}
