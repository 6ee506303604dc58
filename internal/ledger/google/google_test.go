package google

import "testing"

func TestYearPrefixedName(t *testing.T) {
	cases := []struct {
		base string
		year int
		want string
	}{
		{"Transactions", 2026, "2026 Transactions"},
		{"2025 Transactions", 2026, "2025 Transactions"},
		{"  Backup  ", 2026, "2026 Backup"},
		{"", 2026, ""},
	}
	for _, tc := range cases {
		if got := yearPrefixedName(tc.base, tc.year); got != tc.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tc.base, tc.year, got, tc.want)
		}
	}
}
