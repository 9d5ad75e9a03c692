package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain ascii untouched", "Boil 2 cups of water.", "Boil 2 cups of water."},
		{"smart quotes", "“Best” pasta’s sauce", `"Best" pasta's sauce`},
		{"dashes", "5–10 min — stir", "5-10 min - stir"},
		{"ellipsis", "wait for it…", "wait for it..."},
		{"emoji removed", "Garlic 🧄 pasta 🍝🔥 tonight", "Garlic pasta tonight"},
		{"flag emoji removed", "Pad thai 🇹🇭 recipe", "Pad thai recipe"},
		{"accents folded", "Crème brûlée café", "Creme brulee cafe"},
		{"fractions", "½ cup sugar", "1/2 cup sugar"},
		{"degrees", "bake at 350°F", "bake at 350 degrees F"},
		{"whitespace collapsed", "  line one\n\n\tline   two  ", "line one line two"},
		{"nbsp", "salt\u00a0to\u00a0taste", "salt to taste"},
		{"cjk dropped", "Ramen ラーメン bowl", "Ramen bowl"},
		{"control chars dropped", "a\x00b\x07c", "abc"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.in))
		})
	}
}

func TestSanitizeText_Idempotent(t *testing.T) {
	inputs := []string{
		"“Crispy” chicken 🍗 – 30 min… ½ tsp salt",
		"Ingrédients:\n\n• 2 œufs\n• 200 g farine ﬁne",
		"🔥🔥🔥",
		"VIDEO TITLE: 5-Minute Garlic Pasta\n\nADDITIONAL NOTES: double the garlic",
		"tab\tseparated\u2003em-space\u200bzero-width",
	}
	for _, in := range inputs {
		once := SanitizeText(in)
		assert.Equal(t, once, SanitizeText(once), in)
		for _, r := range once {
			assert.Less(t, r, rune(128), "non-ASCII rune in %q", once)
		}
	}
}
