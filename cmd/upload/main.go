package main

import (
	"context"
	"flag"
	"time"

	"github.com/avenet-dev/dvf-engine/internal/config"
	"github.com/avenet-dev/dvf-engine/internal/logger"
	"github.com/avenet-dev/dvf-engine/internal/upload"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	cfg := config.Load()

	dir := flag.String("dir", cfg.OutputDir, "Local directory to publish")
	prefix := flag.String("prefix", "", "Key prefix inside the bucket")
	bucket := flag.String("bucket", cfg.R2Bucket, "Destination R2 bucket")
	flag.Parse()

	ctx := logger.WithContext(context.Background(), log)
	start := time.Now()

	uploader, err := upload.New(ctx, upload.Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		Bucket:          *bucket,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize R2 uploader")
	}

	log.Info().
		Str("dir", *dir).
		Str("bucket", *bucket).
		Str("prefix", *prefix).
		Msg("Starting artifact upload")

	uploaded, skipped, err := uploader.UploadDirectory(ctx, *dir, *prefix)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	log.Info().
		Int("uploaded", uploaded).
		Int("skipped", skipped).
		Str("took", logger.FormatDuration(time.Since(start))).
		Msg("Upload complete")
}
