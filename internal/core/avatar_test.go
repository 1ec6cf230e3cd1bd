package core

import "testing"

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"two tokens", "Anna Keller", "AK"},
		{"three tokens uses first two", "Jean Paul Dubois", "JP"},
		{"single token takes two graphemes", "Marta", "MA"},
		{"single grapheme token", "X", "X"},
		{"accented first letters", "Élodie Moreau", "ÉM"},
		{"combining mark stays attached", "Élodie Moreau", "ÉM"},
		{"extra whitespace", "  Anna   Keller  ", "AK"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Initials(tt.in); got != tt.want {
				t.Errorf("Initials(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAvatarHue_StableAndBounded(t *testing.T) {
	names := []string{"Anna Keller", "Jean Paul Dubois", "Élodie", "", "x"}

	for _, name := range names {
		first := AvatarHue(name)
		second := AvatarHue(name)
		if first != second {
			t.Errorf("AvatarHue(%q) not deterministic: %d vs %d", name, first, second)
		}
		if first < 0 || first >= 360 {
			t.Errorf("AvatarHue(%q) = %d, want [0, 360)", name, first)
		}
	}
}

func TestWorker_AvatarHelpers(t *testing.T) {
	w := Worker{ID: 1, Name: "Anna Keller"}
	if w.Initials() != "AK" {
		t.Errorf("Initials() = %q, want AK", w.Initials())
	}
	if w.AvatarHue() != AvatarHue("Anna Keller") {
		t.Error("worker hue must match the name hash")
	}
}
