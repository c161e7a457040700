package s3

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/couchcryptid/hydrogen-tracker/internal/config"
)

// putObjectAPI is the subset of the S3 client the uploader needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// Uploader copies the published snapshot to an S3 (or MinIO) bucket.
// It implements pipeline.Uploader.
type Uploader struct {
	client putObjectAPI
	bucket string
	key    string
	logger *slog.Logger
}

// NewUploader builds an S3 client from the S3_* settings. A custom endpoint
// switches to path-style addressing for MinIO compatibility; explicit keys
// override the default credential chain.
func NewUploader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL(cfg.S3Endpoint))
			o.UsePathStyle = true
		}
	})
	return newUploader(client, cfg.S3Bucket, cfg.S3Key, logger), nil
}

func newUploader(client putObjectAPI, bucket, key string, logger *slog.Logger) *Uploader {
	return &Uploader{client: client, bucket: bucket, key: key, logger: logger}
}

// Upload puts the file at path under the configured key.
func (u *Uploader) Upload(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}

	_, err = u.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(u.key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/vnd.apache.parquet"),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", u.bucket, u.key, err)
	}
	u.logger.Info("snapshot uploaded", "bucket", u.bucket, "key", u.key, "bytes", info.Size())
	return nil
}

// endpointURL adds a scheme to bare host:port endpoints. Plain HTTP is
// assumed for local MinIO.
func endpointURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "http://" + endpoint
}
