package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client the service calls directly.
type S3API interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Service stores profile pictures in Amazon S3 (or compatible APIs).
type S3Service struct {
	client    S3API
	uploader  manager.UploadAPIClient
	presigner *s3.PresignClient
	bucket    string
	keyPrefix string
}

func NewS3Service(client *s3.Client, bucket, keyPrefix string) (*S3Service, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	return &S3Service{
		client:    client,
		uploader:  client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}, nil
}

func (s *S3Service) Put(ctx context.Context, obj Object) error {
	key, err := s.objectKey(obj.Key)
	if err != nil {
		return err
	}

	uploader := manager.NewUploader(s.uploader)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        obj.Body,
		ContentType: aws.String(obj.ContentType),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (s *S3Service) Delete(ctx context.Context, key string) error {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", objectKey, err)
	}
	return nil
}

func (s *S3Service) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return "", err
	}
	if expires <= 0 {
		expires = 15 * time.Minute
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectKey, err)
	}
	return req.URL, nil
}

func (s *S3Service) objectKey(key string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	if s.keyPrefix == "" {
		return key, nil
	}
	return s.keyPrefix + "/" + key, nil
}

var _ Service = (*S3Service)(nil)
