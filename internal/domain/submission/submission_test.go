package submission_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/okian/jumper/internal/domain/model"
	"github.com/okian/jumper/internal/domain/submission"
	. "github.com/smartystreets/goconvey/convey"
)

func decode(t *testing.T, body string) submission.Fields {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var f submission.Fields
	if err := dec.Decode(&f); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return f
}

func TestNormalize(t *testing.T) {
	Convey("Given raw submission fields", t, func() {
		Convey("When every field is present", func() {
			in, err := submission.Normalize(decode(t, `{"player_name":"Ayo","score":100,"level":2,"game_duration":33}`))

			Convey("Then the submission should carry them unchanged", func() {
				So(err, ShouldBeNil)
				So(in, ShouldResemble, model.Submission{PlayerName: "Ayo", Score: 100, Level: 2, GameDuration: 33})
			})
		})

		Convey("When only the score is present", func() {
			in, err := submission.Normalize(decode(t, `{"score":5}`))

			Convey("Then defaults should fill the rest", func() {
				So(err, ShouldBeNil)
				So(in.PlayerName, ShouldEqual, model.DefaultPlayerName)
				So(in.Level, ShouldEqual, 1)
				So(in.GameDuration, ShouldEqual, 0)
			})
		})

		Convey("When the object is empty", func() {
			in, err := submission.Normalize(submission.Fields{})

			Convey("Then an anonymous zero score should be produced", func() {
				So(err, ShouldBeNil)
				So(in, ShouldResemble, model.Submission{PlayerName: "Anonymous", Score: 0, Level: 1, GameDuration: 0})
			})
		})

		Convey("When numbers are fractional or strings", func() {
			in, err := submission.Normalize(decode(t, `{"player_name":"  Tomi ","score":80.9,"level":"3","game_duration":22.2}`))

			Convey("Then they should be coerced to integers", func() {
				So(err, ShouldBeNil)
				So(in.PlayerName, ShouldEqual, "Tomi")
				So(in.Score, ShouldEqual, 80)
				So(in.Level, ShouldEqual, 3)
				So(in.GameDuration, ShouldEqual, 22)
			})
		})

		Convey("When numeric fields are null", func() {
			in, err := submission.Normalize(decode(t, `{"score":null,"level":null,"game_duration":null}`))

			Convey("Then they should be treated as absent", func() {
				So(err, ShouldBeNil)
				So(in.Score, ShouldEqual, 0)
				So(in.Level, ShouldEqual, 1)
			})
		})

		Convey("When Go integer types are supplied directly", func() {
			in, err := submission.Normalize(submission.Fields{"score": int64(7), "level": uint8(2), "game_duration": int32(9)})

			Convey("Then they should be accepted", func() {
				So(err, ShouldBeNil)
				So(in.Score, ShouldEqual, 7)
				So(in.Level, ShouldEqual, 2)
				So(in.GameDuration, ShouldEqual, 9)
			})
		})

		Convey("When a Go int exceeds the 32-bit column range", func() {
			_, err := submission.Normalize(submission.Fields{"score": 1 << 40})

			Convey("Then it should be a validation error, not a storage failure", func() {
				var verr *submission.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, submission.FieldScore)
			})
		})

		Convey("When a Go float is negative but truncates to zero", func() {
			_, err := submission.Normalize(submission.Fields{"game_duration": -0.9})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, submission.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When the score is negative zero", func() {
			in, err := submission.Normalize(submission.Fields{"score": json.Number("-0")})

			Convey("Then it should be accepted as zero", func() {
				So(err, ShouldBeNil)
				So(in.Score, ShouldEqual, 0)
			})
		})
	})
}

func TestNormalizeRejects(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"negative score", `{"player_name":"A","score":-1}`, "score"},
		{"empty name", `{"player_name":"","score":1}`, "player_name"},
		{"blank name", `{"player_name":"   ","score":1}`, "player_name"},
		{"null name", `{"player_name":null,"score":1}`, "player_name"},
		{"numeric name", `{"player_name":12,"score":1}`, "player_name"},
		{"non-numeric score", `{"score":"lots"}`, "score"},
		{"fractional string score", `{"score":"50.5"}`, "score"},
		{"boolean score", `{"score":true}`, "score"},
		{"array level", `{"level":[1]}`, "level"},
		{"zero level", `{"level":0}`, "level"},
		{"negative duration", `{"game_duration":-3}`, "game_duration"},
		{"negative fractional score", `{"score":-0.5}`, "score"},
		{"tiny negative score", `{"score":-0.0001}`, "score"},
		{"negative fractional duration", `{"game_duration":-0.1}`, "game_duration"},
		{"overflowing score", `{"score":1e12}`, "score"},
		{"long name", `{"player_name":"` + strings.Repeat("x", 101) + `"}`, "player_name"},
	}

	Convey("Given malformed submissions", t, func() {
		for _, tc := range cases {
			Convey("When the input has a "+tc.name, func() {
				_, err := submission.Normalize(decode(t, tc.body))

				Convey("Then a ValidationError naming the field should be returned", func() {
					So(err, ShouldNotBeNil)
					So(errors.Is(err, submission.ErrValidation), ShouldBeTrue)

					var verr *submission.ValidationError
					So(errors.As(err, &verr), ShouldBeTrue)
					So(verr.Field, ShouldEqual, tc.field)
					So(err.Error(), ShouldContainSubstring, tc.field)
				})
			})
		}
	})
}

func TestNormalizeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("non-negative integers round-trip", prop.ForAll(
		func(score, level, duration int) bool {
			in, err := submission.Normalize(submission.Fields{
				"player_name":   "p",
				"score":         json.Number(itoa(score)),
				"level":         level,
				"game_duration": float64(duration),
			})
			return err == nil &&
				in.Score == score &&
				in.Level == level &&
				in.GameDuration == duration
		},
		gen.IntRange(0, 1_000_000),
		gen.IntRange(1, 500),
		gen.IntRange(0, 86_400),
	))

	properties.Property("negative scores are always rejected", prop.ForAll(
		func(score int) bool {
			_, err := submission.Normalize(submission.Fields{"score": score})
			return errors.Is(err, submission.ErrValidation)
		},
		gen.IntRange(-1_000_000, -1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
