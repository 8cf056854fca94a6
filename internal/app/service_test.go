package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	service "github.com/okian/gigmatch/internal/app"
	"github.com/okian/gigmatch/internal/domain/dataset"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/scoring"
	"github.com/okian/gigmatch/internal/domain/types"
	"github.com/okian/gigmatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const (
	freelancersCSV = "Freelancer_ID,Hourly_Rate,Skills,Completed_Projects,Experience,Availability\n" +
		"A,10,python,Web Shop,Backend,2 weeks\n" +
		"B,100,java,Bank Core,Enterprise,1 month\n"
	interactionsCSV = "Client_ID,Freelancer_ID,Rating\nC1,A,5\nC1,B,1\nC2,B,4\n"
)

func writeFixtures(t *testing.T) model.Sources {
	t.Helper()
	dir := t.TempDir()
	src := model.Sources{
		FreelancersPath:  filepath.Join(dir, "freelancers.csv"),
		InteractionsPath: filepath.Join(dir, "interactions.csv"),
	}
	if err := os.WriteFile(src.FreelancersPath, []byte(freelancersCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src.InteractionsPath, []byte(interactionsCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return src
}

type memCache struct {
	mu   sync.Mutex
	data map[string]types.Result
	gets int
	hits int
}

func newMemCache() *memCache { return &memCache{data: map[string]types.Result{}} }

func (c *memCache) Get(_ context.Context, key string) (types.Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	r, ok := c.data[key]
	if ok {
		c.hits++
	}
	return r, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, res types.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = res
	return nil
}

func (c *memCache) Close() error { return nil }

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (types.Result, bool, error) {
	return types.Result{}, false, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, types.Result) error {
	return errors.New("connection refused")
}

func (brokenCache) Close() error { return nil }

func TestService_Fit(t *testing.T) {
	Convey("Given a service with dataset files", t, func() {
		src := writeFixtures(t)
		svc := service.New(service.WithSources(src))
		ctx := context.Background()

		Convey("When nothing has been fitted", func() {
			So(svc.Ready(ctx), ShouldBeFalse)
			_, err := svc.Recommend(ctx, model.Query{Skills: []string{"python"}})
			So(errors.Is(err, scoring.ErrModelNotReady), ShouldBeTrue)

			_, err = svc.Recommend(ctx, model.Query{})
			So(errors.Is(err, scoring.ErrQuery), ShouldBeTrue)
		})

		Convey("When fitting the configured sources", func() {
			info, err := svc.Fit(ctx, model.Sources{})
			So(err, ShouldBeNil)

			Convey("Then the snapshot is installed", func() {
				So(svc.Ready(ctx), ShouldBeTrue)
				So(info.Freelancers, ShouldEqual, 2)
				So(info.Interactions, ShouldEqual, 3)
				So(info.Clients, ShouldEqual, 2)
				So(svc.Snapshot(ctx).Version, ShouldEqual, info.Version)
			})

			Convey("Then recommendations use it", func() {
				budget := 50.0
				res, err := svc.Recommend(ctx, model.Query{Skills: []string{"python"}, Budget: &budget, ClientID: "C1"})
				So(err, ShouldBeNil)
				So(res.Status, ShouldEqual, types.StatusOK)
				So(res.CollaborativeWeight, ShouldEqual, 0.15)
				So(res.ModelVersion, ShouldEqual, info.Version)
				So(res.Recommendations[0].FreelancerID, ShouldEqual, "A")
			})

			Convey("And fitting a missing file keeps it", func() {
				_, err := svc.Fit(ctx, model.Sources{FreelancersPath: filepath.Join(t.TempDir(), "nope.csv")})
				So(errors.Is(err, dataset.ErrDataLoad), ShouldBeTrue)
				So(svc.Snapshot(ctx).Version, ShouldEqual, info.Version)
			})
		})

		Convey("When only a freelancers path is given", func() {
			info, err := svc.Fit(ctx, model.Sources{FreelancersPath: src.FreelancersPath})
			So(err, ShouldBeNil)
			So(info.Interactions, ShouldEqual, 0)

			res, err := svc.Recommend(ctx, model.Query{Skills: []string{"python"}, ClientID: "C1"})
			So(err, ShouldBeNil)
			So(res.CollaborativeWeight, ShouldEqual, 0.0)
		})
	})

	Convey("Given a service with no sources configured", t, func() {
		svc := service.New()
		_, err := svc.Fit(context.Background(), model.Sources{})
		So(errors.Is(err, dataset.ErrDataLoad), ShouldBeTrue)
		So(errors.Is(err, service.ErrNoFreelancer), ShouldBeTrue)
	})
}

func TestService_Reload(t *testing.T) {
	Convey("Given a fitted service", t, func() {
		src := writeFixtures(t)
		svc := service.New(service.WithSources(src), service.WithReloadQueueSize(2))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		first, err := svc.Fit(ctx, model.Sources{})
		So(err, ShouldBeNil)

		Convey("When reloading before start", func() {
			_, err := svc.Reload(ctx, model.Sources{})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then a reload swaps in a new version", func() {
				info, err := svc.Reload(ctx, model.Sources{})
				So(err, ShouldBeNil)
				So(info.Version, ShouldNotEqual, first.Version)
				So(svc.Snapshot(ctx).Version, ShouldEqual, info.Version)
			})

			Convey("Then a failing reload keeps the active version", func() {
				_, err := svc.Reload(ctx, model.Sources{FreelancersPath: filepath.Join(t.TempDir(), "missing.csv")})
				So(errors.Is(err, dataset.ErrDataLoad), ShouldBeTrue)
				So(svc.Snapshot(ctx).Version, ShouldEqual, first.Version)
			})

			Convey("Then concurrent reloads all succeed", func() {
				var wg sync.WaitGroup
				errs := make([]error, 4)
				for i := range errs {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						_, errs[i] = svc.Reload(ctx, model.Sources{})
					}(i)
				}
				wg.Wait()
				for _, e := range errs {
					So(e, ShouldBeNil)
				}
			})

			Convey("Then a caller that gives up does not fail the others", func() {
				gone, giveUp := context.WithCancel(ctx)
				giveUp()

				var wg sync.WaitGroup
				var abandoned error
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, abandoned = svc.Reload(gone, model.Sources{})
				}()
				info, err := svc.Reload(ctx, model.Sources{})
				wg.Wait()

				So(err, ShouldBeNil)
				So(info.Version, ShouldNotEqual, first.Version)
				if abandoned != nil {
					So(errors.Is(abandoned, context.Canceled), ShouldBeTrue)
				}
			})

			Convey("Then stats report the worker", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["ready"], ShouldEqual, true)
				So(stats["reloadQueueLength"], ShouldEqual, 0)
			})
		})
	})
}

func TestService_Cache(t *testing.T) {
	Convey("Given a fitted service with a cache", t, func() {
		src := writeFixtures(t)
		c := newMemCache()
		svc := service.New(service.WithSources(src), service.WithCache(c))
		ctx := context.Background()
		_, err := svc.Fit(ctx, model.Sources{})
		So(err, ShouldBeNil)

		Convey("When the same query runs twice", func() {
			q := model.Query{Skills: []string{"python", "java"}}
			a, err := svc.Recommend(ctx, q)
			So(err, ShouldBeNil)
			b, err := svc.Recommend(ctx, model.Query{Skills: []string{"java", "python"}})
			So(err, ShouldBeNil)

			Convey("Then the second is served from the cache", func() {
				So(c.hits, ShouldEqual, 1)
				So(b, ShouldResemble, a)
			})
		})

		Convey("When the snapshot changes", func() {
			q := model.Query{Skills: []string{"python"}}
			_, err := svc.Recommend(ctx, q)
			So(err, ShouldBeNil)
			_, err = svc.Fit(ctx, model.Sources{})
			So(err, ShouldBeNil)
			_, err = svc.Recommend(ctx, q)
			So(err, ShouldBeNil)

			Convey("Then earlier entries are not reused", func() {
				So(c.hits, ShouldEqual, 0)
				So(len(c.data), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a cache that always fails", t, func() {
		src := writeFixtures(t)
		svc := service.New(service.WithSources(src), service.WithCache(brokenCache{}))
		ctx := context.Background()
		_, err := svc.Fit(ctx, model.Sources{})
		So(err, ShouldBeNil)

		res, err := svc.Recommend(ctx, model.Query{Skills: []string{"python"}})
		So(err, ShouldBeNil)
		So(res.Status, ShouldEqual, types.StatusOK)
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		So(svc.Start(context.Background()), ShouldBeNil)
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When stopping twice", func() {
			svc.Stop()
			svc.Stop()

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}
