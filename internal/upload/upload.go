// Package upload publishes produced artifacts to a Cloudflare R2 bucket
// through the S3-compatible API.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/avenet-dev/dvf-engine/internal/logger"
)

// contentTypes maps artifact extensions to their serving content type;
// anything else falls back to application/octet-stream.
var contentTypes = map[string]string{
	".parquet": "application/octet-stream",
	".csv":     "text/csv",
	".json":    "application/json",
	".geojson": "application/geo+json",
	".html":    "text/html",
	".png":     "image/png",
	".svg":     "image/svg+xml",
}

// Config holds the R2 connection parameters.
type Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

func (c Config) endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

// objectAPI is the slice of the S3 client the uploader uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Uploader copies local artifacts into one bucket. Objects whose remote
// size already matches the local file are skipped.
type Uploader struct {
	client objectAPI
	bucket string
}

// New builds an uploader against the account's R2 endpoint with static
// credentials.
func New(ctx context.Context, cfg Config) (*Uploader, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("upload: missing R2 credentials (R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY)")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("upload: missing R2 bucket name")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("upload: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.endpoint())
	})
	return &Uploader{client: client, bucket: cfg.Bucket}, nil
}

// UploadFile publishes one file under the given object key. It reports
// whether bytes were actually transferred; an up-to-date object counts as
// success without a transfer.
func (u *Uploader) UploadFile(ctx context.Context, path, key string) (bool, error) {
	log := logger.FromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("upload: stat %s: %w", path, err)
	}

	if u.upToDate(ctx, key, info.Size()) {
		log.Info().Str("key", key).Msg("Object up to date, skipping")
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("upload: opening %s: %w", path, err)
	}
	defer f.Close()

	start := time.Now()
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentTypeFor(path)),
	})
	if err != nil {
		return false, fmt.Errorf("upload: putting %s: %w", key, err)
	}

	log.Info().
		Str("key", key).
		Int64("bytes", info.Size()).
		Str("took", logger.FormatDuration(time.Since(start))).
		Msg("Uploaded object")
	return true, nil
}

// UploadDirectory publishes every file under dir, keyed by its path
// relative to dir (with the optional prefix prepended). It returns the
// uploaded and skipped counts.
func (u *Uploader) UploadDirectory(ctx context.Context, dir, prefix string) (uploaded, skipped int, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" {
			key = prefix + "/" + key
		}

		transferred, err := u.UploadFile(ctx, path, key)
		if err != nil {
			return err
		}
		if transferred {
			uploaded++
		} else {
			skipped++
		}
		return nil
	})
	if err != nil {
		return uploaded, skipped, fmt.Errorf("upload: walking %s: %w", dir, err)
	}
	return uploaded, skipped, nil
}

// upToDate reports whether the remote object exists with the same size.
// Remote mtimes are upload times, not content times, so size is the only
// usable cheap signal.
func (u *Uploader) upToDate(ctx context.Context, key string, size int64) bool {
	head, err := u.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if !errors.As(err, &notFound) {
			// Treat transient HEAD failures as "changed": re-uploading is
			// safe, skipping is not.
			return false
		}
		return false
	}
	return aws.ToInt64(head.ContentLength) == size
}

func contentTypeFor(path string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}
