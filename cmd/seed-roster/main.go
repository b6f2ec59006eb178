package main

import (
	"context"
	"os"

	"github.com/cohortlab/vigil/internal/seed"
	"github.com/cohortlab/vigil/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg, err := seed.ParseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if err := seed.Run(context.Background(), cfg); err != nil {
		logger.Get().Error(context.Background(), "seed run failed", logger.Error(err))
		os.Exit(1)
	}
}
