package core

import (
	"hash/fnv"
	"strings"

	"github.com/rivo/uniseg"
)

// Initials derives avatar initials from a display name: the first grapheme
// of the first two space-separated tokens when there are at least two,
// otherwise the first two graphemes of the single token, uppercased.
func Initials(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) >= 2 {
		return strings.ToUpper(firstGraphemes(tokens[0], 1) + firstGraphemes(tokens[1], 1))
	}
	if len(tokens) == 1 {
		return strings.ToUpper(firstGraphemes(tokens[0], 2))
	}
	return ""
}

func firstGraphemes(s string, n int) string {
	g := uniseg.NewGraphemes(s)
	var b strings.Builder
	for i := 0; i < n && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	return b.String()
}

// AvatarHue maps a name to a hue bucket in [0, 360). FNV-1a keeps the
// mapping stable across runs and platforms, unlike map-seed hashes.
func AvatarHue(name string) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	return int(h.Sum32() % 360)
}

// AvatarHue is the worker's stable avatar hue.
func (w Worker) AvatarHue() int { return AvatarHue(w.Name) }

// Initials is the worker's avatar initials.
func (w Worker) Initials() string { return Initials(w.Name) }
