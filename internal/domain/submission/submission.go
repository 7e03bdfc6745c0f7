// Package submission turns raw score submissions into validated model values.
package submission

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/okian/jumper/internal/domain/model"
)

// Wire names of the submission fields.
const (
	FieldPlayerName   = "player_name"
	FieldScore        = "score"
	FieldLevel        = "level"
	FieldGameDuration = "game_duration"
)

// Defaults applied when a field is absent.
const (
	defaultScore        = 0
	defaultLevel        = model.MinLevel
	defaultGameDuration = 0
)

// Fields is a decoded submission object. Numbers may arrive as json.Number,
// float64 or any Go integer type; strings holding integers are accepted too.
type Fields map[string]any

// Normalize validates raw fields and applies defaults.
//
// An absent player_name becomes model.DefaultPlayerName; an explicit null or
// blank one is rejected. A null numeric field counts as absent.
func Normalize(f Fields) (model.Submission, error) {
	name, err := playerName(f)
	if err != nil {
		return model.Submission{}, err
	}

	score, neg, err := intField(f, FieldScore, defaultScore)
	if err != nil {
		return model.Submission{}, err
	}
	if score < 0 || neg {
		return model.Submission{}, invalid(FieldScore, "must not be negative")
	}

	level, _, err := intField(f, FieldLevel, defaultLevel)
	if err != nil {
		return model.Submission{}, err
	}
	if level < model.MinLevel {
		return model.Submission{}, invalid(FieldLevel, "must be at least 1")
	}

	duration, neg, err := intField(f, FieldGameDuration, defaultGameDuration)
	if err != nil {
		return model.Submission{}, err
	}
	if duration < 0 || neg {
		return model.Submission{}, invalid(FieldGameDuration, "must not be negative")
	}

	return model.Submission{
		PlayerName:   name,
		Score:        score,
		Level:        level,
		GameDuration: duration,
	}, nil
}

func playerName(f Fields) (string, error) {
	raw, ok := f[FieldPlayerName]
	if !ok {
		return model.DefaultPlayerName, nil
	}
	s, isString := raw.(string)
	switch {
	case raw == nil:
		return "", invalid(FieldPlayerName, "is required")
	case !isString:
		return "", invalid(FieldPlayerName, "must be text")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid(FieldPlayerName, "must not be empty")
	}
	if utf8.RuneCountInString(s) > model.MaxPlayerNameLength {
		return "", invalid(FieldPlayerName, "is too long")
	}
	return s, nil
}

// intField also reports whether the raw value was below zero, since
// truncation turns -0.5 into 0.
func intField(f Fields, field string, def int) (int, bool, error) {
	raw, ok := f[field]
	if !ok || raw == nil {
		return def, false, nil
	}
	n, ok := toInt(raw)
	if !ok {
		return 0, false, invalid(field, "must be an integer")
	}
	return n, n < 0 || belowZero(raw), nil
}

// belowZero reports fractional inputs that are negative before truncation.
func belowZero(v any) bool {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return err == nil && f < 0
	case float64:
		return n < 0
	case float32:
		return n < 0
	default:
		return false
	}
}

// toInt coerces v the way int() would: fractional numbers truncate toward
// zero, strings must spell an integer.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return fromInt64(i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return fromFloat(f)
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return fromInt64(int64(n))
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return fromInt64(n)
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return fromInt64(int64(n))
	case uint:
		if uint64(n) > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return fromInt64(i)
	default:
		return 0, false
	}
}

// Stored columns are 32-bit integers.
func fromInt64(i int64) (int, bool) {
	if i > math.MaxInt32 || i < math.MinInt32 {
		return 0, false
	}
	return int(i), true
}

func fromFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return fromInt64Float(math.Trunc(f))
}

func fromInt64Float(f float64) (int, bool) {
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
