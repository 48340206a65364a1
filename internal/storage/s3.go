package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrObjectNotFound is returned when the bucket has no such key.
var ErrObjectNotFound = errors.New("photo not found in bucket")

// S3Options points the photo store at AWS or an S3-compatible endpoint.
// An empty Endpoint means AWS itself; anything else switches to path-style
// addressing, which RustFS and MinIO expect.
type S3Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// ObjectInfo is what Stat learns about a photo before it is downloaded.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// S3Store reads photos out of a bucket.
type S3Store struct {
	api *s3.Client
}

// NewS3Store builds a store. Without a key pair the default AWS credential
// chain applies.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		creds := credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(creds))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true
	})
	return &S3Store{api: api}, nil
}

// Stat looks up the photo's size without fetching it.
func (s *S3Store) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	out, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ObjectInfo{}, objectError(bucket, key, err)
	}
	return ObjectInfo{
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}, nil
}

// Fetch downloads the photo. Objects longer than limit fail with ErrTooLarge
// even when Stat reported a smaller size.
func (s *S3Store) Fetch(ctx context.Context, bucket, key string, limit int64) ([]byte, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, objectError(bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: s3://%s/%s", ErrTooLarge, bucket, key)
	}
	return data, nil
}

func objectError(bucket, key string, err error) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: s3://%s/%s", ErrObjectNotFound, bucket, key)
	}
	return fmt.Errorf("s3://%s/%s: %w", bucket, key, err)
}
