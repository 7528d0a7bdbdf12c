package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/okian/cogtrain/internal/adapters/llm"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	Convey("Given no API key", t, func() {
		Convey("Then no client is created", func() {
			So(llm.New("  "), ShouldBeNil)
		})
	})

	Convey("Given a chat completions server", t, func() {
		var (
			mu                sync.Mutex
			gotAuth, gotModel string
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Model    string `json:"model"`
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			gotAuth, gotModel = r.Header.Get("Authorization"), body.Model
			mu.Unlock()
			switch body.Messages[len(body.Messages)-1].Content {
			case "fail":
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			case "empty":
				_, _ = w.Write([]byte(`{"choices":[]}`))
			case "slow":
				time.Sleep(200 * time.Millisecond)
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
			default:
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"days\":[]}"}}]}`))
			}
		}))
		defer srv.Close()

		c := llm.New("secret", llm.WithBaseURL(srv.URL+"/"), llm.WithModel("tiny"), llm.WithTimeout(50*time.Millisecond))
		ctx := context.Background()

		Convey("When generation succeeds", func() {
			out, err := c.Generate(ctx, "plan please")

			Convey("Then the first choice is returned", func() {
				So(err, ShouldBeNil)
				So(out, ShouldEqual, `{"days":[]}`)
				mu.Lock()
				defer mu.Unlock()
				So(gotAuth, ShouldEqual, "Bearer secret")
				So(gotModel, ShouldEqual, "tiny")
			})
		})

		Convey("When the server returns an error status", func() {
			_, err := c.Generate(ctx, "fail")

			Convey("Then ErrStatus is returned", func() {
				So(errors.Is(err, llm.ErrStatus), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "429")
			})
		})

		Convey("When there are no choices", func() {
			_, err := c.Generate(ctx, "empty")

			Convey("Then ErrEmptyResponse is returned", func() {
				So(errors.Is(err, llm.ErrEmptyResponse), ShouldBeTrue)
			})
		})

		Convey("When the server is slower than the timeout", func() {
			_, err := c.Generate(ctx, "slow")

			Convey("Then the call fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
