package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/cogtrain/internal/adapters/mq/queue"
	"github.com/okian/cogtrain/internal/adapters/mq/worker"
	"github.com/okian/cogtrain/internal/domain/model"
	logging "github.com/okian/cogtrain/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockApplier struct {
	mu      sync.Mutex
	applied []model.Outcome
	fail    map[string]error
	delay   time.Duration
}

func newMockApplier() *mockApplier {
	return &mockApplier{fail: make(map[string]error)}
}

func (m *mockApplier) ApplyReward(_ context.Context, userID, gameID string, bucket model.Bucket, action model.Action, reward float64) (model.BanditArm, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[userID]; err != nil {
		return model.BanditArm{}, err
	}
	m.applied = append(m.applied, model.Outcome{UserID: userID, GameID: gameID, Context: bucket, Action: action, Reward: reward})
	return model.BanditArm{UserID: userID, GameID: gameID, Context: bucket, Action: action, Count: 1, Value: reward}, nil
}

func (m *mockApplier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.applied)
}

func outcome(user string) model.Outcome {
	return model.Outcome{UserID: user, GameID: "focus", Context: model.Low, Action: model.Easy, Reward: 1}
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		applier := newMockApplier()
		w := worker.NewInMemoryWorker(q, applier, worker.WithName("w-test"), worker.WithLogger(logging.NewNop()))

		convey.Convey("When outcomes are queued and the queue is closed", func() {
			ctx := context.Background()
			q.Enqueue(ctx, outcome("u1"))
			q.Enqueue(ctx, outcome("u2"))
			_ = q.Close()
			w.Run(ctx)

			convey.Convey("Then every outcome is applied before Run returns", func() {
				convey.So(applier.count(), convey.ShouldEqual, 2)
				convey.So(applier.applied[0].UserID, convey.ShouldEqual, "u1")
			})
		})

		convey.Convey("When applying fails", func() {
			applier.fail["bad"] = errors.New("disk full")
			err := w.Apply(context.Background(), outcome("bad"))

			convey.Convey("Then the error is returned with context", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "disk full")
				convey.So(err.Error(), convey.ShouldContainSubstring, "user=bad")
			})
		})

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			w.Run(ctx)

			convey.Convey("Then Run returns and Done is closed", func() {
				closed := false
				select {
				case <-w.Done():
					closed = true
				default:
				}
				convey.So(closed, convey.ShouldBeTrue)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a started pool", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		applier := newMockApplier()
		applier.delay = time.Millisecond
		pool := worker.NewPool(3, q, applier)

		parent, cancel := context.WithCancel(context.Background())
		pool.Start(parent)
		for i := 0; i < 50; i++ {
			convey.So(q.Enqueue(parent, outcome("u")), convey.ShouldBeTrue)
		}

		convey.Convey("When the parent context is cancelled before shutdown", func() {
			cancel()
			err := pool.Shutdown(context.Background())

			convey.Convey("Then the queue is still drained", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(applier.count(), convey.ShouldEqual, 50)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})

			convey.Convey("Then a second shutdown is a no-op", func() {
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}
