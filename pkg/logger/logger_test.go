package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized without options", func() {
			err := Init()

			Convey("Then Get should return a usable logger", func() {
				So(err, ShouldBeNil)
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with a custom output", func() {
			var buf bytes.Buffer
			So(Init(WithOutput(&buf)), ShouldBeNil)

			Get().Info(context.Background(), "score accepted", String("player", "Ayo"), Int("score", 100))

			Convey("Then the message and fields should be written", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "score accepted")
				So(out, ShouldContainSubstring, "player=Ayo")
				So(out, ShouldContainSubstring, "score=100")
				So(out, ShouldContainSubstring, "source=")
			})
		})

		Convey("When initialized with a log file", func() {
			path := filepath.Join(t.TempDir(), "logs", "jumper.log")
			var buf bytes.Buffer
			So(Init(WithOutput(&buf), WithFile(path)), ShouldBeNil)

			Get().Error(context.Background(), "store down", Error(errors.New("boom")))

			Convey("Then both sinks should receive the entry", func() {
				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "store down")
				So(buf.String(), ShouldContainSubstring, "error=boom")
			})
		})
	})
}

func TestLoggerLevels(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When the level is info", func() {
			Get().Debug(ctx, "hidden")
			Get().Warn(ctx, "visible")

			Convey("Then debug entries should be dropped", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "visible")
			})
		})

		Convey("When the level is raised to debug", func() {
			So(SetLevelString("DEBUG"), ShouldBeNil)
			Get().Debug(ctx, "now shown")

			Convey("Then debug entries should be written", func() {
				So(buf.String(), ShouldContainSubstring, "now shown")
			})
		})

		Convey("When an unknown level is given", func() {
			err := SetLevelString("verbose")

			Convey("Then an error should be returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerNamed(t *testing.T) {
	Convey("Given a named logger", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(&buf)), ShouldBeNil)

		Named("repository").Info(context.Background(), "opened")

		Convey("Then entries should carry the logger name", func() {
			So(buf.String(), ShouldContainSubstring, "logger=repository")
		})
	})
}
