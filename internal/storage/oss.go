package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

const signedURLTTL = time.Hour

// OSSStore keeps evidence in Aliyun OSS. Logical bucket names such as
// "bukti_rab" are mapped to valid OSS names ("<prefix>bukti-rab").
type OSSStore struct {
	client *oss.Client
	prefix string
}

func NewOSSStore(endpoint, accessKeyID, accessKeySecret, bucketPrefix string) (*OSSStore, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	return &OSSStore{client: client, prefix: strings.ToLower(bucketPrefix)}, nil
}

func (s *OSSStore) bucketName(bucket string) string {
	return s.prefix + strings.ReplaceAll(strings.ToLower(bucket), "_", "-")
}

func (s *OSSStore) EnsureBucket(_ context.Context, bucket string) error {
	name := s.bucketName(bucket)
	exists, err := s.client.IsBucketExist(name)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", name, err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateBucket(name, oss.ACL(oss.ACLPrivate))
	if err != nil && !isServiceCode(err, "BucketAlreadyExists") {
		return fmt.Errorf("create bucket %s: %w", name, err)
	}
	return nil
}

func (s *OSSStore) Upload(ctx context.Context, bucket, objectPath string, f File) (string, error) {
	bkt, err := s.client.Bucket(s.bucketName(bucket))
	if err != nil {
		return "", fmt.Errorf("client.Bucket: %w", err)
	}
	err = bkt.PutObject(objectPath, f.Body,
		oss.WithContext(ctx),
		oss.ContentType(contentType(f)),
		oss.ContentDisposition("inline"),
	)
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", objectPath, err)
	}
	return objectPath, nil
}

// URL signs a GET URL since evidence buckets are private.
func (s *OSSStore) URL(_ context.Context, bucket, objectPath string) (string, error) {
	bkt, err := s.client.Bucket(s.bucketName(bucket))
	if err != nil {
		return "", fmt.Errorf("client.Bucket: %w", err)
	}
	return bkt.SignURL(objectPath, oss.HTTPGet, int64(signedURLTTL.Seconds()))
}

func (s *OSSStore) Delete(ctx context.Context, bucket, objectPath string) error {
	bkt, err := s.client.Bucket(s.bucketName(bucket))
	if err != nil {
		return fmt.Errorf("client.Bucket: %w", err)
	}
	err = bkt.DeleteObject(objectPath, oss.WithContext(ctx))
	if err != nil && !isServiceCode(err, "NoSuchKey") {
		return fmt.Errorf("delete object %s: %w", objectPath, err)
	}
	return nil
}

func isServiceCode(err error, code string) bool {
	var se oss.ServiceError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
