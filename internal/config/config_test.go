package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.ReferenceYear != time.Now().Year() {
		t.Errorf("ReferenceYear = %d, want current year", cfg.ReferenceYear)
	}
	if cfg.SpatialChunkSize != 500000 {
		t.Errorf("SpatialChunkSize = %d, want 500000", cfg.SpatialChunkSize)
	}
	if cfg.IQRMinSample != 10 {
		t.Errorf("IQRMinSample = %d, want 10", cfg.IQRMinSample)
	}
	if cfg.R2Bucket != "dvf-map" {
		t.Errorf("R2Bucket = %q, want dvf-map", cfg.R2Bucket)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DVF_REFERENCE_YEAR", "2023")
	t.Setenv("DVF_SPATIAL_CHUNK_SIZE", "1000")
	t.Setenv("DVF_IQR_MIN_SAMPLE", "25")
	t.Setenv("DVF_RAW_CSV", "/tmp/other.csv")

	cfg := Load()

	if cfg.ReferenceYear != 2023 {
		t.Errorf("ReferenceYear = %d, want 2023", cfg.ReferenceYear)
	}
	if cfg.SpatialChunkSize != 1000 {
		t.Errorf("SpatialChunkSize = %d, want 1000", cfg.SpatialChunkSize)
	}
	if cfg.IQRMinSample != 25 {
		t.Errorf("IQRMinSample = %d, want 25", cfg.IQRMinSample)
	}
	if cfg.RawCSVPath != "/tmp/other.csv" {
		t.Errorf("RawCSVPath = %q", cfg.RawCSVPath)
	}
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("DVF_SPATIAL_CHUNK_SIZE", "lots")

	cfg := Load()
	if cfg.SpatialChunkSize != 500000 {
		t.Errorf("SpatialChunkSize = %d, want default on unparsable value", cfg.SpatialChunkSize)
	}
}
