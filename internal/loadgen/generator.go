package loadgen

import (
	"unicode/utf8"

	"github.com/brianvoe/gofakeit/v7"
)

// Ranges of generated values.
const (
	maxScore       = 10000
	maxLevel       = 20
	minDuration    = 5
	maxDuration    = 900
	maxNameRunes   = 100
	fallbackPlayer = "player"
)

// Generate returns n fake submissions. The same seed yields the same
// submissions.
func Generate(seed uint64, n int) []Submission {
	f := gofakeit.New(seed)
	out := make([]Submission, n)
	for i := range out {
		out[i] = Submission{
			PlayerName:   playerName(f),
			Score:        f.IntRange(0, maxScore),
			Level:        f.IntRange(1, maxLevel),
			GameDuration: f.IntRange(minDuration, maxDuration),
		}
	}
	return out
}

func playerName(f *gofakeit.Faker) string {
	name := f.Gamertag()
	if name == "" {
		name = f.Username()
	}
	if name == "" {
		return fallbackPlayer
	}
	if utf8.RuneCountInString(name) > maxNameRunes {
		name = string([]rune(name)[:maxNameRunes])
	}
	return name
}
