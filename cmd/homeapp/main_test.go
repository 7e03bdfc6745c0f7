package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/jumper/internal/config"
	"github.com/okian/jumper/pkg/logger"
)

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a config with a game link", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.TommyJumperURL = "https://jumper.example.com"

		h, err := newHandler(ctx, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the home page is requested", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

			convey.Convey("Then it should link to the game", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "https://jumper.example.com")
				convey.So(w.Header().Get("X-Request-ID"), convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When the health check is requested", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

			convey.Convey("Then it should be healthy", func() {
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "OK - healthy")
			})
		})
	})
}
