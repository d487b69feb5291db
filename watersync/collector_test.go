package watersync

import "testing"

func strPtr(s string) *string { return &s }

func TestResolveCollector(t *testing.T) {
	tests := []struct {
		name    string
		descr   string
		wantId  *string
		wantNik *string
	}{
		{"empty", "", nil, nil},
		{"whitespace only", "   ", nil, nil},
		{"corrupted cyrillic", "Р†РіРѕСЂ - ", strPtr("Kirk"), strPtr("Kirk")},
		{"clean cyrillic", "Ігор - ", strPtr("Ігор"), strPtr("Ігор")},
		{"percent encoded", "%D0%86%D0%B3%D0%BE%D1%80", strPtr("Ігор"), strPtr("Ігор")},
		{"trailing hyphen name", "Оксана - ", nil, strPtr("Оксана")},
		{"plain name", "Service visit", nil, strPtr("Service visit")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveCollector(tc.descr)
			if !strPtrEq(got.Id, tc.wantId) {
				t.Errorf("Id = %v, want %v", deref(got.Id), deref(tc.wantId))
			}
			if !strPtrEq(got.Nik, tc.wantNik) {
				t.Errorf("Nik = %v, want %v", deref(got.Nik), deref(tc.wantNik))
			}
		})
	}
}

func TestResolveCollectorBadEscape(t *testing.T) {
	// An invalid percent sequence falls back to the raw string.
	got := ResolveCollector("Петро %ZZ")
	if got.Nik == nil || *got.Nik != "Петро %ZZ" {
		t.Errorf("Nik = %v, want raw string", deref(got.Nik))
	}
}

func strPtrEq(a *string, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
