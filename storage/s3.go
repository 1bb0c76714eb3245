package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3PantryState reads the pantry artifact from one S3 object.
type S3PantryState struct {
	bucket string
	key    string
	s3     s3API
}

func NewS3PantryState(s3Client s3API, bucket, key string) *S3PantryState {
	return &S3PantryState{
		bucket: bucket,
		key:    key,
		s3:     s3Client,
	}
}

func (s *S3PantryState) Load(ctx context.Context) ([]byte, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get pantry object from S3: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
