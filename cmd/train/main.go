package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TFMV/OrganMatchPro/internal/trainer"
	"github.com/TFMV/OrganMatchPro/pkg/config"
	"github.com/TFMV/OrganMatchPro/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to $CONFIG_PATH)")
	dataset := flag.String("dataset", "", "training dataset CSV (overrides model.dataset_path)")
	artifactDir := flag.String("artifacts", "", "artifact directory (overrides model.artifact_dir)")
	timeout := flag.Duration("timeout", 30*time.Minute, "abort training after this long")
	flag.Parse()

	if err := run(*configPath, *dataset, *artifactDir, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "training failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dataset, artifactDir string, timeout time.Duration) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if dataset != "" {
		cfg.Model.DatasetPath = dataset
	}
	if artifactDir != "" {
		cfg.Model.ArtifactDir = artifactDir
	}

	logger := utils.NewLogger(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := trainer.New(trainer.OptionsFromConfig(cfg), logger).Train(ctx, cfg.Model.DatasetPath)
	if err != nil {
		return err
	}
	fmt.Printf("published %s (%d rows, %d terms)\n", res.VersionDir, res.Manifest.Rows, res.Manifest.VocabularySize)
	return nil
}
