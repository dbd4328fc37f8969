// Package s3store implements storage.ObjectStore on Amazon S3 or a
// compatible service.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"catalog-share/internal/storage"
)

const defaultRegion = "us-east-1"

// Store is a single S3 client shared by every location. Region, endpoint
// and static credentials of a location are applied per request; anything
// left unset falls back to the ambient AWS configuration.
type Store struct {
	client *s3.Client
	log    *slog.Logger
}

// New loads the default AWS configuration (environment, shared files,
// instance roles) and builds the shared client.
func New(ctx context.Context, log *slog.Logger) (*Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = defaultRegion
	}
	if log == nil {
		log = slog.Default()
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	return &Store{client: client, log: log}, nil
}

// PutObject uploads body to key in the location's bucket.
func (s *Store) PutObject(ctx context.Context, loc storage.Location, key string, body []byte) error {
	start := time.Now()
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(loc.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}, withLocation(loc))
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", loc.Bucket, key, err)
	}

	s.log.Debug("Stored object in S3",
		slog.String("bucket", loc.Bucket),
		slog.String("key", key),
		slog.String("etag", aws.ToString(out.ETag)),
		slog.Int("size", len(body)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// GetObject downloads the object at key. Missing keys map to
// storage.ErrNotFound.
func (s *Store) GetObject(ctx context.Context, loc storage.Location, key string) ([]byte, error) {
	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(key),
	}, withLocation(loc))
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get object %s/%s: %w", loc.Bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}

	s.log.Debug("Fetched object from S3",
		slog.String("bucket", loc.Bucket),
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))
	return data, nil
}

// Close is a no-op for S3.
func (s *Store) Close() error { return nil }

func withLocation(loc storage.Location) func(*s3.Options) {
	return func(o *s3.Options) {
		if loc.Region != "" {
			o.Region = loc.Region
		}
		if loc.Endpoint != "" {
			o.BaseEndpoint = aws.String(loc.Endpoint)
			o.UsePathStyle = true
		}
		if c := loc.Credentials; c != nil && c.AccessKeyID != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")
		}
	}
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404
}
