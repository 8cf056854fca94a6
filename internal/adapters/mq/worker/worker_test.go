package worker_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/adapters/mq/worker"
	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/domain/dataset"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/scoring"
	logging "github.com/okian/gigmatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const csv = "Freelancer_ID,Hourly_Rate,Skills,Completed_Projects,Experience,Availability\n" +
	"A,10,python,Shop,Backend,2 weeks\n" +
	"B,20,java,Bank,Enterprise,1 month\n"

var errBoom = errors.New("boom")

// fakeFitter fits from an in-memory table unless the path is "bad".
type fakeFitter struct {
	mu    sync.Mutex
	calls []model.Sources
}

func (f *fakeFitter) Fit(ctx context.Context, src model.Sources) (*scoring.Model, error) {
	f.mu.Lock()
	f.calls = append(f.calls, src)
	f.mu.Unlock()

	if src.FreelancersPath == "bad" {
		return nil, errBoom
	}
	ds, err := dataset.Load(ctx, strings.NewReader(csv), nil)
	if err != nil {
		return nil, err
	}
	return scoring.Fit(ctx, ds)
}

func (f *fakeFitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func await(t *testing.T, j queue.Job) queue.Outcome {
	t.Helper()
	select {
	case out := <-j.Done:
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("job not answered")
		return queue.Outcome{}
	}
}

func TestReloader(t *testing.T) {
	Convey("Given a running reloader", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		store := repository.NewSnapshotStore()
		fitter := &fakeFitter{}
		w := worker.NewReloader(q, fitter, store,
			worker.WithLogger(logging.Nop()),
			worker.WithName("reloader-test"),
		)
		go w.Run(ctx)

		Convey("When a good job is processed", func() {
			j := queue.NewJob(model.Sources{FreelancersPath: "good"})
			So(q.Enqueue(ctx, j), ShouldBeNil)
			out := await(t, j)

			Convey("Then the new snapshot is active", func() {
				So(out.Err, ShouldBeNil)
				So(out.Previous, ShouldBeNil)
				cur, err := store.Load(ctx)
				So(err, ShouldBeNil)
				So(cur.Version, ShouldEqual, out.Model.Version)
			})

			Convey("And a failing job keeps it active", func() {
				bad := queue.NewJob(model.Sources{FreelancersPath: "bad"})
				So(q.Enqueue(ctx, bad), ShouldBeNil)
				failed := await(t, bad)
				So(errors.Is(failed.Err, errBoom), ShouldBeTrue)
				So(failed.Model, ShouldBeNil)

				cur, err := store.Load(ctx)
				So(err, ShouldBeNil)
				So(cur.Version, ShouldEqual, out.Model.Version)
			})

			Convey("And a second good job replaces it", func() {
				next := queue.NewJob(model.Sources{FreelancersPath: "good"})
				So(q.Enqueue(ctx, next), ShouldBeNil)
				second := await(t, next)
				So(second.Err, ShouldBeNil)
				So(second.Previous.Version, ShouldEqual, out.Model.Version)
				So(store.Swaps(), ShouldEqual, 2)
			})
		})

		Convey("When jobs are queued back to back", func() {
			jobs := []queue.Job{
				queue.NewJob(model.Sources{FreelancersPath: "one"}),
				queue.NewJob(model.Sources{FreelancersPath: "two"}),
				queue.NewJob(model.Sources{FreelancersPath: "three"}),
			}
			for _, j := range jobs {
				So(q.Enqueue(ctx, j), ShouldBeNil)
			}
			for _, j := range jobs {
				So(await(t, j).Err, ShouldBeNil)
			}

			Convey("Then they run in order", func() {
				So(fitter.count(), ShouldEqual, 3)
				So(fitter.calls[0].FreelancersPath, ShouldEqual, "one")
				So(fitter.calls[2].FreelancersPath, ShouldEqual, "three")
			})
		})

		Convey("When shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			So(w.Shutdown(sctx), ShouldBeNil)
			So(w.Shutdown(sctx), ShouldBeNil)
		})
	})
}

func TestFitterFunc(t *testing.T) {
	Convey("Given a function fitter", t, func() {
		var got model.Sources
		f := worker.FitterFunc(func(_ context.Context, src model.Sources) (*scoring.Model, error) {
			got = src
			return nil, errBoom
		})

		_, err := f.Fit(context.Background(), model.Sources{FreelancersPath: "x.csv"})
		So(errors.Is(err, errBoom), ShouldBeTrue)
		So(got.FreelancersPath, ShouldEqual, "x.csv")
	})
}
