package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/gigmatch/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"GIGMATCH_CONFIG",
	"GIGMATCH_ADDR",
	"GIGMATCH_SVD_RANK",
	"GIGMATCH_MAX_DF",
	"GIGMATCH_CACHE_ADDR",
	"GIGMATCH_INTERACTIONS_PATH",
	"GIGMATCH_RELOAD_QUEUE_SIZE",
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		for _, v := range configEnvVars {
			t.Setenv(v, "")
			_ = os.Unsetenv(v)
		}

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
				convey.So(cfg.FreelancersPath, convey.ShouldEqual, "Datasets/synthetic_freelancers_dataset.csv")
				convey.So(cfg.SVDRank, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("GIGMATCH_ADDR", ":8080")
			t.Setenv("GIGMATCH_SVD_RANK", "3")
			t.Setenv("GIGMATCH_MAX_DF", "0.5")
			t.Setenv("GIGMATCH_CACHE_ADDR", "localhost:6379")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SVDRank, convey.ShouldEqual, 3)
				convey.So(cfg.MaxDF, convey.ShouldEqual, 0.5)
				convey.So(cfg.CacheAddr, convey.ShouldEqual, "localhost:6379")
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			path := writeConfig(t, `
addr: ":9090"
svd_rank: 4
reload_queue_size: 8
interactions_path: ""
log_format: json
`)
			t.Setenv("GIGMATCH_CONFIG", path)
			t.Setenv("GIGMATCH_SVD_RANK", "2")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SVDRank, convey.ShouldEqual, 2)
				convey.So(cfg.ReloadQueueSize, convey.ShouldEqual, 8)
				convey.So(cfg.InteractionsPath, convey.ShouldBeEmpty)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When loading config with invalid YAML", func() {
			t.Setenv("GIGMATCH_CONFIG", writeConfig(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			t.Setenv("GIGMATCH_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a value is out of range", func() {
			t.Setenv("GIGMATCH_MAX_DF", "1.5")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a value has the wrong type", func() {
			t.Setenv("GIGMATCH_SVD_RANK", "many")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gigmatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
