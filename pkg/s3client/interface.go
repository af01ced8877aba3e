package s3client

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
)

// S3Interface defines the operations the publisher needs from object storage
type S3Interface interface {
	UploadFile(ctx context.Context, reader io.Reader, objectKey string, size int64, metadata map[string]string, contentType string) error
	ObjectExists(ctx context.Context, objectKey string) (bool, error)
	ListObjects(ctx context.Context, prefix string) ([]minio.ObjectInfo, error)
	GetBucketName() string
	GetEndpoint() string
	GetPrefix() string
}
