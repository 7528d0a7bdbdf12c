package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/cogtrain/internal/adapters/http/api"
	"github.com/okian/cogtrain/internal/adapters/repository"
	service "github.com/okian/cogtrain/internal/app"
	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type brokenStore struct {
	*repository.MemoryStore
}

func (brokenStore) RecentScores(context.Context, string, string, int) ([]model.ScoreRecord, error) {
	return nil, errors.New("store offline")
}

func newMux(store repository.Store) *http.ServeMux {
	svc := service.New(
		service.WithStore(store),
		service.WithClock(func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }),
		service.WithRand(rand.New(rand.NewSource(1))),
		service.WithLogger(logger.NewNop()),
	)
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)
	return mux
}

func do(mux *http.ServeMux, method, path, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if user != "" {
		req.Header.Set(api.UserHeader, user)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestServer_Infrastructure(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newMux(repository.NewMemoryStore())

		Convey("Health reports ok", func() {
			w := do(mux, http.MethodGet, "/healthz", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["status"], ShouldEqual, "ok")
		})

		Convey("Stats are served as JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w), ShouldContainKey, "epsilon_floor")
		})

		Convey("Metrics are served in the Prometheus format", func() {
			do(mux, http.MethodGet, "/healthz", "", "")
			w := do(mux, http.MethodGet, "/metrics", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("Wrong methods are rejected", func() {
			w := do(mux, http.MethodDelete, "/api/schedule", "u1", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			w = do(mux, http.MethodGet, "/api/score", "u1", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestServer_Scores(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newMux(repository.NewMemoryStore())

		Convey("Requests without a user are rejected", func() {
			w := do(mux, http.MethodPost, "/api/score", "", `{"game":"stroop","value":1}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("Unknown games are rejected", func() {
			w := do(mux, http.MethodPost, "/api/score", "u1", `{"game":"chess","value":1}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "unknown_game")
		})

		Convey("Malformed bodies and missing values are rejected", func() {
			So(do(mux, http.MethodPost, "/api/score", "u1", `{"game":`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/api/score", "u1", `{"game":"stroop"}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A score is stored and listed", func() {
			w := do(mux, http.MethodPost, "/api/score", "u1", `{"game":"recall","value":6,"details":{"words":6}}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["ok"], ShouldEqual, true)
			So(body["duplicate"], ShouldEqual, false)

			w = do(mux, http.MethodGet, "/api/scores?limit=5", "u1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			scores := decode(w)["scores"].([]any)
			So(scores, ShouldHaveLength, 1)
			So(scores[0].(map[string]any)["domain"], ShouldEqual, "Memory")
		})

		Convey("Duplicate submission ids are acknowledged", func() {
			body := `{"game":"recall","value":6,"submission_id":"abc"}`
			So(do(mux, http.MethodPost, "/api/score", "u1", body).Code, ShouldEqual, http.StatusOK)
			w := do(mux, http.MethodPost, "/api/score", "u1", body)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["duplicate"], ShouldEqual, true)
		})

		Convey("Practice scores return their reward", func() {
			do(mux, http.MethodPost, "/api/score", "u1", `{"game":"focus","value":5}`)
			w := do(mux, http.MethodPost, "/api/score", "u1",
				`{"game":"focus","value":3,"practice_action":"easy","practice_context":"mid"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["reward"], ShouldEqual, -1.0)
		})

		Convey("An invalid limit is rejected", func() {
			So(do(mux, http.MethodGet, "/api/scores?limit=abc", "u1", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("The dashboard combines domains, history and schedule", func() {
			do(mux, http.MethodPost, "/api/score", "u1", `{"game":"recall","value":6}`)
			w := do(mux, http.MethodGet, "/api/dashboard", "u1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["domains"], ShouldContainKey, "Memory")
			So(body["recent"], ShouldHaveLength, 1)
			So(body["schedule"], ShouldBeNil)
		})
	})

	Convey("Given a failing store", t, func() {
		mux := newMux(brokenStore{repository.NewMemoryStore()})

		Convey("History reads fail with an opaque 500", func() {
			w := do(mux, http.MethodGet, "/api/scores", "u1", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldNotContainSubstring, "store offline")
		})

		Convey("Difficulty selection still answers", func() {
			w := do(mux, http.MethodGet, "/api/practice/difficulty?game=stroop", "u1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["context"], ShouldEqual, "mid")
		})
	})
}

func TestServer_Practice(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newMux(repository.NewMemoryStore())

		Convey("A difficulty level is recommended for a known game", func() {
			w := do(mux, http.MethodGet, "/api/practice/difficulty?game=visual_puzzle", "u1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["ok"], ShouldEqual, true)
			So([]any{"easy", "medium", "hard"}, ShouldContain, body["level"])
			So(body["context"], ShouldEqual, "mid")
		})

		Convey("Unknown games are rejected", func() {
			w := do(mux, http.MethodGet, "/api/practice/difficulty?game=nope", "u1", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestServer_Schedule(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newMux(repository.NewMemoryStore())

		Convey("There is no schedule at first", func() {
			w := do(mux, http.MethodGet, "/api/schedule", "u1", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("Negative lengths are rejected", func() {
			So(do(mux, http.MethodPost, "/api/schedule", "u1", `{"days":-1}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A generated schedule can be read back and completed", func() {
			w := do(mux, http.MethodPost, "/api/schedule", "u1", `{"days":3}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			sched := decode(w)["schedule"].(map[string]any)
			So(sched["source"], ShouldEqual, "fallback")
			plan := sched["plan"].(map[string]any)
			So(plan["num_days"], ShouldEqual, 3.0)
			So(plan["start_date"], ShouldEqual, "2026-05-01")

			days := plan["days"].([]any)
			first := days[0].(map[string]any)["games"].([]any)[0].(map[string]any)
			game := first["id"].(string)

			w = do(mux, http.MethodPost, "/api/schedule/complete", "u1", `{"game":"`+game+`"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["changed"], ShouldEqual, true)

			w = do(mux, http.MethodGet, "/api/schedule", "u1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			latest := decode(w)["schedule"].(map[string]any)["plan"].(map[string]any)
			done := latest["days"].([]any)[0].(map[string]any)["games"].([]any)[0].(map[string]any)
			So(done["completed"], ShouldEqual, true)
		})

		Convey("An empty body uses the default length", func() {
			w := do(mux, http.MethodPost, "/api/schedule", "u1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			plan := decode(w)["schedule"].(map[string]any)["plan"].(map[string]any)
			So(plan["num_days"], ShouldEqual, float64(service.DefaultScheduleDays))
		})

		Convey("Completing without a game is rejected", func() {
			So(do(mux, http.MethodPost, "/api/schedule/complete", "u1", `{}`).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}
