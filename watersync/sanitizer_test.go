package watersync

import (
	"testing"
)

func TestCleanNumeric(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain integer", "1000", "1000"},
		{"plain decimal", "123.45", "123.45"},
		{"whitespace", "  55.10  ", "55.1"},
		{"empty", "", "0"},
		{"null literal", "null", "0"},
		{"undefined literal", "undefined", "0"},
		{"garbage", "abc", "0"},
		{"thousands noise", "2291.000.00", "2291"},
		{"thousands noise short", "17.00.50", "17.5"},
		{"split small decimal", "0.0034.64", "0.003464"},
		{"split small decimal zeros", "0.00.12", "0.0012"},
		{"three parts generic", "1.2.3", "1.23"},
		{"four parts", "1.2.3.4", "1.4"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CleanNumeric(tc.input)
			if got.String() != tc.want {
				t.Errorf("CleanNumeric(%q) = %s, want %s", tc.input, got.String(), tc.want)
			}
		})
	}
}

func TestSanitizeEntryRecomputesTotal(t *testing.T) {
	entry := CollectionEntry{
		Banknotes: "100.50",
		Coins:     "2.25",
		TotalSum:  "0",
	}
	got := SanitizeEntry(entry)
	if got.TotalSum.String() != "102.75" {
		t.Errorf("TotalSum = %s, want 102.75", got.TotalSum.String())
	}
}

func TestSanitizeEntryKeepsUpstreamTotal(t *testing.T) {
	entry := CollectionEntry{
		Banknotes: "100",
		Coins:     "2",
		TotalSum:  "105",
	}
	got := SanitizeEntry(entry)
	if got.TotalSum.String() != "105" {
		t.Errorf("TotalSum = %s, want upstream 105", got.TotalSum.String())
	}
}

func TestSanitizeEntryMalformedTotal(t *testing.T) {
	entry := CollectionEntry{
		Banknotes: "2291.000.00",
		Coins:     "0",
		TotalSum:  "2291.000.00",
	}
	got := SanitizeEntry(entry)
	if got.Banknotes.String() != "2291" {
		t.Errorf("Banknotes = %s, want 2291", got.Banknotes.String())
	}
	if got.TotalSum.String() != "2291" {
		t.Errorf("TotalSum = %s, want 2291", got.TotalSum.String())
	}
}

func TestSanitizedEntryIsZero(t *testing.T) {
	tests := []struct {
		name  string
		entry CollectionEntry
		want  bool
	}{
		{"both zero", CollectionEntry{Banknotes: "0", Coins: "0", TotalSum: "0"}, true},
		{"both empty", CollectionEntry{}, true},
		{"banknotes only", CollectionEntry{Banknotes: "10", Coins: "0"}, false},
		{"coins only", CollectionEntry{Banknotes: "0", Coins: "0.50"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeEntry(tc.entry).IsZero(); got != tc.want {
				t.Errorf("IsZero = %v, want %v", got, tc.want)
			}
		})
	}
}
