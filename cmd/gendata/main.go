package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/gigmatch/internal/synthetic"
	"github.com/okian/gigmatch/pkg/logger"
)

func main() {
	var (
		profilePath = flag.String("profile", "", "YAML profile file (default: built-in profile)")
		outDir      = flag.String("out", "Datasets", "Directory the CSV files are written to")
		seed        = flag.Uint64("seed", 0, "Override the profile seed when non-zero")
		freelancers = flag.Int("freelancers", 0, "Override the number of freelancers when non-zero")
		clients     = flag.Int("clients", -1, "Override the number of clients when non-negative")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := synthetic.DefaultProfile()
	if *profilePath != "" {
		p, err := synthetic.LoadProfile(*profilePath)
		if err != nil {
			logger.Get().Error(ctx, "load profile", logger.Error(err))
			os.Exit(1)
		}
		profile = p
	}
	if *seed != 0 {
		profile.Seed = *seed
	}
	if *freelancers > 0 {
		profile.Freelancers = *freelancers
	}
	if *clients >= 0 {
		profile.Clients = *clients
	}

	ds, err := synthetic.Generate(ctx, profile)
	if err != nil {
		logger.Get().Error(ctx, "generate dataset", logger.Error(err))
		os.Exit(1)
	}
	if _, err := synthetic.WriteFiles(ctx, *outDir, ds); err != nil {
		logger.Get().Error(ctx, "write dataset", logger.Error(err))
		os.Exit(1)
	}
}
