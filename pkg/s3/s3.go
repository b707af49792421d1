package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ImageHost stores image payloads and hands back durable URLs.
type ImageHost interface {
	UploadImage(ctx context.Context, objectName string, content io.Reader, size int64, contentType string) (string, error)
	DeleteImage(ctx context.Context, imageURL string) error
}

// ObjectStorage is an ImageHost backed by an S3 compatible bucket.
type ObjectStorage struct {
	Conn   *minio.Client
	bucket string
	region string
}

// NewObjectStorage returns storage bound to bucket. Call Connect before use.
func NewObjectStorage(bucket, region string) *ObjectStorage {
	if region == "" {
		region = "us-east-1"
	}
	return &ObjectStorage{bucket: bucket, region: region}
}

// Connect establishes the object storage connection and makes sure the bucket exists.
func (o *ObjectStorage) Connect(ctx context.Context, endpoint, accessKeyID, secretAccessKey string, useSSL bool) error {
	var err error
	o.Conn, err = minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
		Region: o.region,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := o.Conn.BucketExists(ctx, o.bucket)
	if err != nil {
		return fmt.Errorf("failed to establish minio connection: %w", err)
	}
	if exists {
		return nil
	}

	if err := o.Conn.MakeBucket(ctx, o.bucket, minio.MakeBucketOptions{Region: o.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", o.bucket, err)
	}
	return nil
}

// UploadImage stores the image and returns its object URL.
func (o *ObjectStorage) UploadImage(ctx context.Context, objectName string, content io.Reader, size int64, contentType string) (string, error) {
	if o.Conn == nil {
		return "", errors.New("object storage is not connected")
	}

	info, err := o.Conn.PutObject(ctx, o.bucket, objectName, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectName, err)
	}

	return ObjectURL(o.Conn.EndpointURL(), info.Bucket, info.Key), nil
}

// DeleteImage removes the object referenced by imageURL.
func (o *ObjectStorage) DeleteImage(ctx context.Context, imageURL string) error {
	if o.Conn == nil {
		return errors.New("object storage is not connected")
	}

	objectName, err := ObjectNameFromURL(imageURL, o.bucket)
	if err != nil {
		return err
	}

	if err := o.Conn.RemoveObject(ctx, o.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectName, err)
	}
	return nil
}

// ObjectURL builds the path-style URL of an object.
func ObjectURL(endpoint *url.URL, bucket, objectName string) string {
	u := *endpoint
	u.Path = "/" + bucket + "/" + objectName
	return u.String()
}

// ObjectNameFromURL extracts the object key of a path-style URL in bucket.
func ObjectNameFromURL(imageURL, bucket string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("invalid image url: %w", err)
	}

	prefix := "/" + bucket + "/"
	if !strings.HasPrefix(u.Path, prefix) || len(u.Path) == len(prefix) {
		return "", fmt.Errorf("image url %s is not in bucket %s", imageURL, bucket)
	}
	return strings.TrimPrefix(u.Path, prefix), nil
}
