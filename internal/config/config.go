// Package config loads engine configuration from environment variables,
// with .env support for local runs.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the tunable surface of the engine. Statistical thresholds
// (hard outlier bounds, Tukey multiplier) are fixed constants in the
// pipeline package, not configuration.
type Config struct {
	// ReferenceYear is the year price levels are normalized to.
	ReferenceYear int
	// SpatialChunkSize bounds peak memory during the spatial join.
	SpatialChunkSize int
	// IQRMinSample is the minimum per-commune transaction count for the
	// adaptive outlier stage to apply.
	IQRMinSample int

	RawCSVPath      string
	DepartmentsPath string
	RegionsPath     string
	IrisLayerPath   string
	OutputDir       string

	// BigQuery sink (optional; disabled when ProjectID is empty).
	BigQueryProjectID string
	BigQueryDataset   string
	BigQueryTable     string
	GoogleCredentials string

	// R2 / S3-compatible artifact publication.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string
}

// Load reads the .env file (when present) and returns a populated Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		ReferenceYear:    getEnvInt("DVF_REFERENCE_YEAR", time.Now().Year()),
		SpatialChunkSize: getEnvInt("DVF_SPATIAL_CHUNK_SIZE", 500000),
		IQRMinSample:     getEnvInt("DVF_IQR_MIN_SAMPLE", 10),

		RawCSVPath:      getEnv("DVF_RAW_CSV", "data/raw/dvf.csv"),
		DepartmentsPath: getEnv("DVF_INSEE_DEPARTMENTS", "data/insee_sources/v_departement_2025.csv"),
		RegionsPath:     getEnv("DVF_INSEE_REGIONS", "data/insee_sources/v_region_2025.csv"),
		IrisLayerPath:   getEnv("DVF_IRIS_LAYER", "data/geometries/contours-iris.geojson"),
		OutputDir:       getEnv("DVF_OUTPUT_DIR", "data/processed"),

		BigQueryProjectID: getEnv("DVF_BQ_PROJECT", ""),
		BigQueryDataset:   getEnv("DVF_BQ_DATASET", "dvf"),
		BigQueryTable:     getEnv("DVF_BQ_TABLE", "transactions"),
		GoogleCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:          getEnv("R2_BUCKET_NAME", "dvf-map"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
