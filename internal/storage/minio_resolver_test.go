package storage

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/uuid"
)

type fakeMinioClient struct {
	presignedURL string
	presignErr   error
	statErr      error

	statCalled    bool
	presignCalled bool

	gotBucket  string
	gotKey     string
	gotExpires time.Duration
	gotParams  url.Values
}

func (f *fakeMinioClient) PresignedGetObject(ctx context.Context, bucket, key string, expires time.Duration, params url.Values) (*url.URL, error) {
	f.presignCalled = true
	f.gotBucket = bucket
	f.gotKey = key
	f.gotExpires = expires
	f.gotParams = params
	if f.presignErr != nil {
		return nil, f.presignErr
	}
	return url.Parse(f.presignedURL)
}

func (f *fakeMinioClient) StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	f.statCalled = true
	if f.statErr != nil {
		return minio.ObjectInfo{}, f.statErr
	}
	return minio.ObjectInfo{Key: key}, nil
}

func (f *fakeMinioClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return true, nil
}

func TestResolveDownloadURL(t *testing.T) {
	client := &fakeMinioClient{presignedURL: "https://minio.example/videos/cat.mp4?signed=1"}
	r := &MinioResolver{client: client, defaultBucket: "videos"}

	got, err := r.ResolveDownloadURL(context.Background(), port.ResolveInput{
		RecordID: uuid.NewUUID(),
		Path:     "user-1/cat.mp4",
		Expires:  time.Hour,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != client.presignedURL {
		t.Errorf("url = %q; want %q", got, client.presignedURL)
	}
	if !client.statCalled {
		t.Error("object existence should be checked before presigning")
	}
	if client.gotBucket != "videos" {
		t.Errorf("bucket = %q; want the default bucket", client.gotBucket)
	}
	if client.gotExpires != time.Hour {
		t.Errorf("expires = %v; want 1h", client.gotExpires)
	}
	if got := client.gotParams.Get("response-content-disposition"); got != `attachment; filename="cat.mp4"` {
		t.Errorf("disposition = %q; want a defaulted attachment filename", got)
	}
}

func TestResolveDownloadURLExplicitBucketAndFilename(t *testing.T) {
	client := &fakeMinioClient{presignedURL: "https://minio.example/archive/a.mp4?signed=1"}
	r := &MinioResolver{client: client, defaultBucket: "videos"}

	_, err := r.ResolveDownloadURL(context.Background(), port.ResolveInput{
		Bucket:   "archive",
		Path:     "a.mp4",
		Expires:  time.Minute,
		Filename: "my-video.mp4",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if client.gotBucket != "archive" {
		t.Errorf("bucket = %q; want archive", client.gotBucket)
	}
	if got := client.gotParams.Get("response-content-disposition"); got != `attachment; filename="my-video.mp4"` {
		t.Errorf("disposition = %q; want the explicit filename", got)
	}
}

func TestResolveDownloadURLNoBucket(t *testing.T) {
	r := &MinioResolver{client: &fakeMinioClient{}}

	_, err := r.ResolveDownloadURL(context.Background(), port.ResolveInput{Path: "a.mp4", Expires: time.Minute})
	if !errors.Is(err, ErrBucketNotFound) {
		t.Fatalf("err = %v; want ErrBucketNotFound", err)
	}
}

func TestResolveDownloadURLObjectMissing(t *testing.T) {
	client := &fakeMinioClient{statErr: minio.ErrorResponse{Code: "NoSuchKey"}}
	r := &MinioResolver{client: client, defaultBucket: "videos"}

	_, err := r.ResolveDownloadURL(context.Background(), port.ResolveInput{Path: "gone.mp4", Expires: time.Minute})
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("err = %v; want ErrObjectNotFound", err)
	}
	if client.presignCalled {
		t.Error("a missing object must not be presigned")
	}
}
