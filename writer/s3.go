package writer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "cryptoexport/config"
	"cryptoexport/logger"
)

// Archiver uploads generated CSV and snapshot files to an S3 bucket after a
// successful run.
type Archiver struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	log       *logger.Log
}

// NewArchiver configures the AWS SDK from the run configuration, falling
// back to environment credentials when none are set explicitly.
func NewArchiver(ctx context.Context, cfg *appconfig.Config) (*Archiver, error) {
	log := logger.GetLogger()

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Storage.S3.Region)}
	if cfg.Storage.S3.AccessKeyID != "" && cfg.Storage.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Storage.S3.AccessKeyID,
				cfg.Storage.S3.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	return &Archiver{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    cfg.Storage.S3.Bucket,
		keyPrefix: cfg.Storage.S3.KeyPrefix,
		log:       log,
	}, nil
}

// Upload stores each existing file under the configured key prefix. Files
// that do not exist (e.g. a cache snapshot for an exchange that was not
// queued) are skipped.
func (a *Archiver) Upload(ctx context.Context, paths []string) error {
	log := a.log.WithComponent("s3_archiver")

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}

		key := path.Join(a.keyPrefix, filepath.Base(p))
		if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		}); err != nil {
			return fmt.Errorf("upload %s to s3://%s/%s: %w", p, a.bucket, key, err)
		}

		log.WithFields(logger.Fields{
			"path":   p,
			"bucket": a.bucket,
			"key":    key,
			"bytes":  len(data),
		}).Info("archived file")
	}
	return nil
}
