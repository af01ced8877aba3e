package s3client

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/bstardust/photo-metadata/internal/logger"
	"github.com/bstardust/photo-metadata/pkg/common"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config represents the configuration for an S3 client
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Prefix    string
}

// minioAPI is the subset of *minio.Client the client calls
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// Client represents an S3 client
type Client struct {
	client minioAPI
	config Config
}

var _ S3Interface = (*Client)(nil)

// New connects to the endpoint and checks that the bucket exists
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, common.NewConfigError("S3 endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, common.NewConfigError("S3 bucket name is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, common.NewConfigError("S3 access key and secret key are required")
	}

	// Remove protocol prefix if present
	endpoint := cfg.Endpoint
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, common.NewS3Error("connect", "", err)
	}

	c, err := newClient(ctx, mc, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to S3 endpoint %s, bucket %s", endpoint, cfg.Bucket)
	return c, nil
}

func newClient(ctx context.Context, api minioAPI, cfg Config) (*Client, error) {
	exists, err := api.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, common.NewS3Error("check bucket", cfg.Bucket, err)
	}
	if !exists {
		return nil, common.NewS3Error("check bucket", cfg.Bucket, ErrBucketNotFound)
	}
	return &Client{client: api, config: cfg}, nil
}

// UploadFile uploads size bytes from reader under objectKey
func (c *Client) UploadFile(ctx context.Context, reader io.Reader, objectKey string, size int64, metadata map[string]string, contentType string) error {
	objectKey = c.getObjectKey(objectKey)

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	}

	info, err := c.client.PutObject(ctx, c.config.Bucket, objectKey, reader, size, opts)
	if err != nil {
		return common.NewS3Error("upload", objectKey, err)
	}

	logger.Debug("Uploaded %s (%d bytes, etag: %s)", objectKey, info.Size, info.ETag)
	return nil
}

// ObjectExists checks if an object exists in the bucket
func (c *Client) ObjectExists(ctx context.Context, objectKey string) (bool, error) {
	objectKey = c.getObjectKey(objectKey)

	_, err := c.client.StatObject(ctx, c.config.Bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if IsNotFoundError(err) {
			return false, nil
		}
		return false, common.NewS3Error("stat", objectKey, err)
	}

	return true, nil
}

// ListObjects lists objects in the bucket with the given prefix
func (c *Client) ListObjects(ctx context.Context, prefix string) ([]minio.ObjectInfo, error) {
	prefix = c.getObjectKey(prefix)

	var objects []minio.ObjectInfo
	objectCh := c.client.ListObjects(ctx, c.config.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return nil, common.NewS3Error("list", prefix, object.Err)
		}
		objects = append(objects, object)
	}

	return objects, nil
}

// getObjectKey returns the full object key with prefix
func (c *Client) getObjectKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if c.config.Prefix == "" {
		return key
	}

	prefix := strings.Trim(c.config.Prefix, "/")
	if key == "" {
		return prefix + "/"
	}
	return path.Join(prefix, key)
}

// GetBucketName returns the bucket name
func (c *Client) GetBucketName() string {
	return c.config.Bucket
}

// GetEndpoint returns the endpoint
func (c *Client) GetEndpoint() string {
	return c.config.Endpoint
}

// GetPrefix returns the prefix
func (c *Client) GetPrefix() string {
	return c.config.Prefix
}

// String describes the destination as s3://bucket/prefix
func (c *Client) String() string {
	return fmt.Sprintf("s3://%s/%s", c.config.Bucket, strings.Trim(c.config.Prefix, "/"))
}
