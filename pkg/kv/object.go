package kv

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore keeps each key as one object in a MinIO/S3 bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewObjectStore connects to MinIO and ensures the bucket exists.
func NewObjectStore(endpoint, accessKey, secretKey, bucket, prefix string, useSSL bool) (*ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &ObjectStore{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (o *ObjectStore) objectName(key string) string {
	if o.prefix == "" {
		return key
	}
	return path.Join(o.prefix, key)
}

// Get downloads the object for key.
func (o *ObjectStore) Get(ctx context.Context, key string) (string, bool, error) {
	obj, err := o.client.GetObject(ctx, o.bucket, o.objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return "", false, fmt.Errorf("get object: %w", err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read object: %w", err)
	}
	return string(data), true, nil
}

// Set uploads value as a text object.
func (o *ObjectStore) Set(ctx context.Context, key, value string) error {
	_, err := o.client.PutObject(ctx, o.bucket, o.objectName(key), strings.NewReader(value), int64(len(value)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// RemoveMany removes objects one by one.
func (o *ObjectStore) RemoveMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	for _, key := range keys {
		if err := o.client.RemoveObject(ctx, o.bucket, o.objectName(key), minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("delete object: %w", err)
		}
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
