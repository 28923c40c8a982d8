package storage

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/narravid/narravid-go/internal/port"
)

type minioClient interface {
	PresignedGetObject(ctx context.Context, bucketName string, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	StatObject(ctx context.Context, bucketName, fileKey string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

// MinioResolver presigns download URLs directly against the S3-compatible
// storage backend. It is the self-hosted alternative to the signing edge
// function; both satisfy port.URLResolver.
type MinioResolver struct {
	client        minioClient
	defaultBucket string
}

// compile-time check: *MinioResolver must satisfy port.URLResolver
var _ port.URLResolver = (*MinioResolver)(nil)

func NewMinioResolver(endpoint, accessKey, secretKey string, useSSL bool, defaultBucket string) (*MinioResolver, error) {
	log.Println("initialising minio client...")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, mapMinioErr(err)
	}
	return &MinioResolver{client: client, defaultBucket: defaultBucket}, nil
}

func (r *MinioResolver) ResolveDownloadURL(ctx context.Context, in port.ResolveInput) (string, error) {
	bucket := in.Bucket
	if bucket == "" {
		bucket = r.defaultBucket
	}
	if bucket == "" {
		return "", ErrBucketNotFound
	}

	if _, err := r.client.StatObject(ctx, bucket, in.Path, minio.StatObjectOptions{}); err != nil {
		return "", mapMinioErr(err)
	}

	filename := in.Filename
	if filename == "" {
		filename = path.Base(in.Path)
	}
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))

	presignedURL, err := r.client.PresignedGetObject(ctx, bucket, in.Path, in.Expires, params)
	if err != nil {
		return "", mapMinioErr(err)
	}
	return presignedURL.String(), nil
}
