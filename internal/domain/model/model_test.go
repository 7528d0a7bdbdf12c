package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/cogtrain/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestVocabulary(t *testing.T) {
	Convey("Given action and bucket names", t, func() {
		Convey("When parsing valid names in mixed case", func() {
			a, errA := model.ParseAction(" HARD ")
			b, errB := model.ParseBucket("Low")

			Convey("Then they resolve to the canonical values", func() {
				So(errA, ShouldBeNil)
				So(a, ShouldEqual, model.Hard)
				So(errB, ShouldBeNil)
				So(b, ShouldEqual, model.Low)
			})
		})

		Convey("When parsing unknown names", func() {
			_, errA := model.ParseAction("extreme")
			_, errB := model.ParseBucket("top")

			Convey("Then sentinel errors are returned", func() {
				So(errors.Is(errA, model.ErrInvalidAction), ShouldBeTrue)
				So(errors.Is(errB, model.ErrInvalidContext), ShouldBeTrue)
			})
		})

		Convey("Then actions keep declaration order", func() {
			So(model.Actions, ShouldResemble, []model.Action{model.Easy, model.Medium, model.Hard})
		})
	})
}

func TestDate(t *testing.T) {
	Convey("Given a calendar date", t, func() {
		d := model.DateOf(time.Date(2024, time.February, 28, 23, 59, 0, 0, time.UTC))

		Convey("When adding days across a leap day and month end", func() {
			Convey("Then the calendar rolls over correctly", func() {
				So(d.AddDays(1).String(), ShouldEqual, "2024-02-29")
				So(d.AddDays(2).String(), ShouldEqual, "2024-03-01")
				So(d.AddDays(-28).String(), ShouldEqual, "2024-01-31")
			})
		})

		Convey("When encoding to JSON and back", func() {
			b, err := json.Marshal(d)
			So(err, ShouldBeNil)
			var back model.Date
			err = json.Unmarshal(b, &back)

			Convey("Then it round trips as YYYY-MM-DD", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, `"2024-02-28"`)
				So(back, ShouldEqual, d)
			})
		})

		Convey("When parsing garbage", func() {
			_, err := model.ParseDate("28/02/2024")

			Convey("Then ErrInvalidDate is returned", func() {
				So(errors.Is(err, model.ErrInvalidDate), ShouldBeTrue)
			})
		})
	})
}
