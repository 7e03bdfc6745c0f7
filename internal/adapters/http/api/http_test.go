package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/jumper/internal/adapters/http/api"
	"github.com/okian/jumper/internal/adapters/repository"
	service "github.com/okian/jumper/internal/app"
	"github.com/okian/jumper/internal/domain/model"
	"github.com/okian/jumper/internal/domain/submission"
	"github.com/okian/jumper/internal/domain/types"
	"github.com/okian/jumper/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDeps records the limits it was asked for and fails on demand.
type mockDeps struct {
	limits []int
	fail   error
	count  int
}

func (m *mockDeps) Submit(_ context.Context, fields submission.Fields) (model.Score, error) {
	in, err := submission.Normalize(fields)
	if err != nil {
		return model.Score{}, err
	}
	if m.fail != nil {
		return model.Score{}, m.fail
	}
	m.count++
	return model.NewScore(int64(m.count), time.Now().UTC(), in), nil
}

func (m *mockDeps) Leaderboard(_ context.Context, limit int) ([]model.Score, error) {
	m.limits = append(m.limits, limit)
	if m.fail != nil {
		return nil, m.fail
	}
	return []model.Score{}, nil
}

func (m *mockDeps) Stats(context.Context) (service.Stats, error) {
	if m.fail != nil {
		return service.Stats{}, m.fail
	}
	return service.Stats{ScoreCount: m.count, Backend: "mock"}, nil
}

func newMux(deps api.Dependencies, opts ...api.Option) (*http.ServeMux, *api.Server) {
	srv := api.NewServer(deps, opts...)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return mux, srv
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

func TestServer_EndToEnd(t *testing.T) {
	Convey("Given a server over a fresh cache", t, func() {
		svc := service.New(repository.NewBoundedScoreCache())
		mux, srv := newMux(svc)

		Convey("When Ayo and Tomi submit", func() {
			w1 := do(mux, http.MethodPost, "/submit-score", `{"player_name":"Ayo","score":100,"level":2,"game_duration":33}`)
			w2 := do(mux, http.MethodPost, "/submit-score", `{"player_name":"Tomi","score":80,"level":1,"game_duration":22}`)

			Convey("Then both should be acknowledged", func() {
				So(w1.Code, ShouldEqual, http.StatusOK)
				So(w2.Code, ShouldEqual, http.StatusOK)
				resp := decode[types.SubmitResponse](w1)
				So(resp.Success, ShouldBeTrue)
				So(resp.Message, ShouldEqual, "Score submitted successfully")
			})

			Convey("And the leaderboard should rank Ayo first", func() {
				w := do(mux, http.MethodGet, "/api/scores?limit=2", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				resp := decode[types.ScoresResponse](w)
				So(resp.Scores, ShouldHaveLength, 2)
				So(resp.Scores[0].PlayerName, ShouldEqual, "Ayo")
				So(resp.Scores[0].Score, ShouldEqual, 100)
				So(resp.Scores[0].Level, ShouldEqual, 2)
				So(resp.Scores[0].GameDuration, ShouldEqual, 33)
				So(resp.Scores[0].Created.IsZero(), ShouldBeFalse)
				So(resp.Scores[1].PlayerName, ShouldEqual, "Tomi")
			})

			Convey("And /metrics should count the scores and store touches", func() {
				w := do(mux, http.MethodGet, "/metrics", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				resp := decode[types.MetricsResponse](w)
				So(resp.ScoreCount, ShouldEqual, 2)
				So(resp.DBConnectionCount, ShouldEqual, 3)
				So(srv.StoreTouches(), ShouldEqual, 3)
			})

			Convey("And the HTML leaderboard should list both players", func() {
				w := do(mux, http.MethodGet, "/leaderboard", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "text/html; charset=utf-8")
				body := w.Body.String()
				So(body, ShouldContainSubstring, "<td>Ayo</td>")
				So(body, ShouldContainSubstring, "<td>Tomi</td>")
				So(strings.Index(body, "Ayo"), ShouldBeLessThan, strings.Index(body, "Tomi"))
			})
		})

		Convey("When an empty body object is submitted", func() {
			w := do(mux, http.MethodPost, "/submit-score", `{}`)

			Convey("Then the defaults should be stored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				top := decode[types.ScoresResponse](do(mux, http.MethodGet, "/api/scores", ""))
				So(top.Scores, ShouldHaveLength, 1)
				So(top.Scores[0].PlayerName, ShouldEqual, model.DefaultPlayerName)
				So(top.Scores[0].Score, ShouldEqual, 0)
				So(top.Scores[0].Level, ShouldEqual, 1)
			})
		})

		Convey("When the leaderboard is empty", func() {
			w := do(mux, http.MethodGet, "/leaderboard", "")

			Convey("Then the page should say so", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "No scores yet")
			})
		})
	})
}

func TestServer_SubmitValidation(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := &mockDeps{}
		mux, srv := newMux(deps)

		cases := []struct {
			name string
			body string
		}{
			{"negative score", `{"player_name":"x","score":-1}`},
			{"level zero", `{"player_name":"x","level":0}`},
			{"null name", `{"player_name":null}`},
			{"blank name", `{"player_name":"   "}`},
			{"text score", `{"score":"lots"}`},
			{"float string", `{"score":"1.5"}`},
			{"malformed json", `{"score":`},
			{"json array", `[1,2]`},
			{"json null", `null`},
			{"two objects", `{} {}`},
		}

		for _, tc := range cases {
			Convey("When the body has a "+tc.name, func() {
				w := do(mux, http.MethodPost, "/submit-score", tc.body)

				Convey("Then it should be rejected as invalid data", func() {
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					resp := decode[types.ErrorResponse](w)
					So(resp.Error, ShouldEqual, "Invalid data provided")
					So(resp.Category, ShouldEqual, types.CategoryValidation)
					So(resp.Detail, ShouldNotBeEmpty)
					So(deps.count, ShouldEqual, 0)
				})
			})
		}

		Convey("When the method is GET", func() {
			w := do(mux, http.MethodGet, "/submit-score", "")

			Convey("Then it should be not allowed", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, http.MethodPost)
				So(srv.StoreTouches(), ShouldEqual, 0)
			})
		})
	})
}

func TestServer_StorageFailures(t *testing.T) {
	Convey("Given a server whose store is down", t, func() {
		storeErr := repository.NewStorageError("mock", repository.OpAddScore,
			fmt.Errorf("%w: connection refused", repository.ErrUnavailable))
		mux, _ := newMux(&mockDeps{fail: storeErr})

		Convey("When a valid score is submitted", func() {
			w := do(mux, http.MethodPost, "/submit-score", `{"player_name":"x","score":1}`)

			Convey("Then a generic internal error should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				resp := decode[types.ErrorResponse](w)
				So(resp.Error, ShouldEqual, "Internal server error")
				So(resp.Category, ShouldEqual, types.CategoryInternal)
				So(resp.Detail, ShouldBeEmpty)
				So(w.Body.String(), ShouldNotContainSubstring, "connection refused")
			})
		})

		Convey("When the scores are read", func() {
			w := do(mux, http.MethodGet, "/api/scores", "")

			Convey("Then a 500 should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When the metrics are read", func() {
			w := do(mux, http.MethodGet, "/metrics", "")

			Convey("Then a 500 should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When the leaderboard page is loaded", func() {
			w := do(mux, http.MethodGet, "/leaderboard", "")

			Convey("Then a 500 should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When the health check runs", func() {
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then it should still be healthy", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[types.HealthResponse](w).Result, ShouldEqual, "OK - healthy")
			})
		})
	})
}

func TestServer_Limit(t *testing.T) {
	Convey("Given a server with default 10 and max 50", t, func() {
		deps := &mockDeps{}
		mux, _ := newMux(deps, api.WithLimits(10, 50))

		cases := []struct {
			query string
			want  int
		}{
			{"", 10},
			{"?limit=", 10},
			{"?limit=abc", 10},
			{"?limit=2.5", 10},
			{"?limit=3", 3},
			{"?limit=%2012%20", 12},
			{"?limit=50", 50},
			{"?limit=5000", 50},
		}

		for _, tc := range cases {
			Convey("When requesting /api/scores"+tc.query, func() {
				w := do(mux, http.MethodGet, "/api/scores"+tc.query, "")

				Convey(fmt.Sprintf("Then the store should be asked for %d", tc.want), func() {
					So(w.Code, ShouldEqual, http.StatusOK)
					So(deps.limits, ShouldResemble, []int{tc.want})
				})
			})
		}

		Convey("When the limit is zero or negative", func() {
			w0 := do(mux, http.MethodGet, "/api/scores?limit=0", "")
			w1 := do(mux, http.MethodGet, "/api/scores?limit=-4", "")

			Convey("Then an empty list should be returned without touching the store", func() {
				So(w0.Body.String(), ShouldEqual, "{\"scores\":[]}\n")
				So(w1.Body.String(), ShouldEqual, "{\"scores\":[]}\n")
				So(deps.limits, ShouldBeEmpty)
			})
		})

		Convey("When the leaderboard page is loaded", func() {
			do(mux, http.MethodGet, "/leaderboard", "")

			Convey("Then the top ten should be requested", func() {
				So(deps.limits, ShouldResemble, []int{service.DefaultLeaderboardLimit})
			})
		})
	})

	Convey("Given a default larger than the max", t, func() {
		deps := &mockDeps{}
		mux, _ := newMux(deps, api.WithLimits(30, 20))

		Convey("Then the default should be clamped", func() {
			do(mux, http.MethodGet, "/api/scores", "")
			So(deps.limits, ShouldResemble, []int{20})
		})
	})
}

func TestServer_RateLimit(t *testing.T) {
	Convey("Given a server that allows one submission per client", t, func() {
		deps := &mockDeps{}
		mux, _ := newMux(deps, api.WithRateLimiter(api.NewIPRateLimiter(0.001, 1)))

		first := do(mux, http.MethodPost, "/submit-score", `{"score":1}`)
		second := do(mux, http.MethodPost, "/submit-score", `{"score":2}`)

		Convey("Then the second submission should be throttled", func() {
			So(first.Code, ShouldEqual, http.StatusOK)
			So(second.Code, ShouldEqual, http.StatusTooManyRequests)
			So(second.Header().Get("Retry-After"), ShouldEqual, "1")
			resp := decode[types.ErrorResponse](second)
			So(resp.Category, ShouldEqual, types.CategoryRateLimit)
			So(deps.count, ShouldEqual, 1)
		})

		Convey("And reads should not be throttled", func() {
			for i := 0; i < 3; i++ {
				So(do(mux, http.MethodGet, "/api/scores", "").Code, ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestServer_Prometheus(t *testing.T) {
	Convey("Given a server that has handled a request", t, func() {
		mux, _ := newMux(&mockDeps{})
		do(mux, http.MethodGet, "/healthz", "")

		Convey("When the exposition endpoint is scraped", func() {
			w := do(mux, http.MethodGet, "/metrics/prometheus", "")

			Convey("Then the http counters should be present", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "healthz")
			})
		})
	})
}

func TestMiddleware(t *testing.T) {
	Convey("Given the request id middleware", t, func() {
		var seen string
		h := api.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = api.RequestIDFrom(r.Context())
		}))

		Convey("When the caller sends an id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set(api.HeaderRequestID, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it should be echoed and put in the context", func() {
				So(seen, ShouldEqual, "abc-123")
				So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "abc-123")
			})
		})

		Convey("When the caller sends none", func() {
			w := do(h, http.MethodGet, "/", "")

			Convey("Then a uuid should be assigned", func() {
				So(seen, ShouldHaveLength, 36)
				So(w.Header().Get(api.HeaderRequestID), ShouldEqual, seen)
			})
		})

		Convey("When no middleware ran", func() {
			Convey("Then the id should be empty", func() {
				So(api.RequestIDFrom(context.Background()), ShouldEqual, "")
			})
		})
	})

	Convey("Given the recover middleware", t, func() {
		h := api.RecoverMiddleware(logger.Get(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(errors.New("boom"))
		}))

		Convey("When the handler panics", func() {
			var w *httptest.ResponseRecorder
			So(func() { w = do(h, http.MethodGet, "/", "") }, ShouldNotPanic)

			Convey("Then a 500 should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}
