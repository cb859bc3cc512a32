package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/foodgram/backend/config"
)

// S3Store uploads media to an S3 bucket with public-read objects.
type S3Store struct {
	cfg *config.S3Config
}

func NewS3Store(cfg *config.S3Config) *S3Store {
	return &S3Store{cfg: cfg}
}

func (s *S3Store) Save(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := s.cfg.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BucketName),
		Key:         aws.String(objectName),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (s *S3Store) URL(objectName string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.cfg.BucketName, objectName)
}

func (s *S3Store) Delete(ctx context.Context, objectName string) error {
	_, err := s.cfg.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(objectName),
	})
	return err
}
