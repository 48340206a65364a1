// Package testutil starts throwaway infrastructure for end-to-end tests.
package testutil

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Credentials baked into the RustFS container.
const (
	RustFSAccessKey = "rustfsadmin"
	RustFSSecretKey = "rustfsadmin"
	RustFSRegion    = "us-east-1"

	rustFSImage = "rustfs/rustfs:latest"
	rustFSPort  = "9000/tcp"
)

// RustFSContainer is an S3-compatible photo store for image search tests.
type RustFSContainer struct {
	Container testcontainers.Container
	endpoint  string
}

// NewRustFSContainer starts RustFS and waits until its S3 port accepts
// connections.
func NewRustFSContainer(ctx context.Context, t *testing.T) *RustFSContainer {
	t.Helper()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        rustFSImage,
			ExposedPorts: []string{rustFSPort},
			Env: map[string]string{
				"RUSTFS_ACCESS_KEY": RustFSAccessKey,
				"RUSTFS_SECRET_KEY": RustFSSecretKey,
			},
			WaitingFor: wait.ForListeningPort(rustFSPort).WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start rustfs")

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, rustFSPort)
	require.NoError(t, err)

	return &RustFSContainer{
		Container: c,
		endpoint:  "http://" + net.JoinHostPort(host, port.Port()),
	}
}

// Endpoint is the S3 base URL reachable from the test host.
func (rc *RustFSContainer) Endpoint() string { return rc.endpoint }

func (rc *RustFSContainer) Terminate(ctx context.Context) error {
	return testcontainers.TerminateContainer(rc.Container)
}

func (rc *RustFSContainer) client() *s3.Client {
	return s3.New(s3.Options{
		Region:       RustFSRegion,
		BaseEndpoint: aws.String(rc.endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(RustFSAccessKey, RustFSSecretKey, ""),
		UsePathStyle: true,
	})
}

// PutPhoto stores data as a JPEG under bucket/key, creating the bucket on
// first use.
func (rc *RustFSContainer) PutPhoto(ctx context.Context, t *testing.T, bucket, key string, data []byte) {
	t.Helper()
	api := rc.client()

	if _, err := api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		_, err = api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
		require.NoError(t, err, "create bucket %s", bucket)
	}

	_, err := api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	require.NoError(t, err, "upload s3://%s/%s", bucket, key)
}
