package normalize_test

import (
	"testing"

	"ludex/internal/normalize"
)

func TestTitle(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
		{"lowercases", "The Witness", "the witness"},
		{"strips parens", "Doom (1993)", "doom"},
		{"strips nested brackets", "Quake [Remaster (beta)] II", "quake ii"},
		{"ignores unmatched closer", "Half) Life", "half life"},
		{"ampersand", "Sam & Max", "sam and max"},
		{"diacritics", "Pokémon Émeraude", "pokemon emeraude"},
		{"drops punctuation", "S.T.A.L.K.E.R.: Shadow!", "stalker shadow"},
		{"collapses whitespace", "  Alpha   Beta \t Gamma ", "alpha beta gamma"},
		{"digits kept", "Final Fantasy 7", "final fantasy 7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalize.Title(tc.input); got != tc.want {
				t.Fatalf("Title(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestTitleIdempotent(t *testing.T) {
	inputs := []string{
		"Doom (1993)",
		"Sam & Max Hit the Road",
		"Pokémon Rouge Feu",
		"  plain   title  ",
		"",
	}
	for _, input := range inputs {
		once := normalize.Title(input)
		if twice := normalize.Title(once); twice != once {
			t.Fatalf("Title not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestFileName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"   ", ""},
		{"/games/doom/doom.exe", "doom.exe"},
		{"setup_quake_1.0.exe", "setup_quake_1.0.exe"},
		{"/", ""},
		{"relative/dir/game.bin", "game.bin"},
	}
	for _, tc := range cases {
		if got := normalize.FileName(tc.input); got != tc.want {
			t.Fatalf("FileName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
