package store

import (
	"context"
	"errors"
	"io"

	"github.com/minio/minio-go/v7"
)

// ErrNotExist is returned when the named object is not in the bucket.
var ErrNotExist = errors.New("object does not exist")

type Interface interface {
	// Ensure creates the artifact bucket if it does not exist yet.
	Ensure(ctx context.Context) error

	// Put writes an object and returns its stored size.
	//
	// Pass size < 0 when the length is not known in advance.
	Put(ctx context.Context, key string, r io.Reader, size int64) (int64, error)

	// Get opens an object for reading.
	//
	// Callers should close the returned reader.
	// When no such object exists, it returns ErrNotExist.
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// Stat returns the size of an object.
	//
	// When no such object exists, it returns ErrNotExist.
	Stat(ctx context.Context, key string) (int64, error)

	// Remove deletes an object.
	//
	// Removing an object which is already gone is not an error.
	Remove(ctx context.Context, key string) error
}

type impl struct {
	client *minio.Client
	bucket string
}

func New(client *minio.Client, bucket string) Interface {
	return &impl{client: client, bucket: bucket}
}

func (s *impl) Ensure(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

func (s *impl) Put(ctx context.Context, key string, r io.Reader, size int64) (int64, error) {
	info, err := s.client.PutObject(
		ctx, s.bucket, key, r, size,
		minio.PutObjectOptions{ContentType: "application/octet-stream"},
	)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

func (s *impl) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, asNotExist(err)
	}

	// GetObject is lazy. Stat here so that missing keys are reported now.
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, 0, asNotExist(err)
	}
	return obj, stat.Size, nil
}

func (s *impl) Stat(ctx context.Context, key string) (int64, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, asNotExist(err)
	}
	return stat.Size, nil
}

func (s *impl) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func asNotExist(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrNotExist
	}
	return err
}
