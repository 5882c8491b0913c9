// SPDX-License-Identifier: AGPL-3.0-or-later

package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3API is the subset of the S3 client this package calls, narrowed so
// tests can substitute a fake without pulling in the SDK's transport.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Store implements Store against AWS S3.
type S3Store struct {
	client s3API
}

// NewS3Store wraps an *s3.Client (or any s3API-compatible fake).
func NewS3Store(client s3API) *S3Store {
	return &S3Store{client: client}
}

func (s *S3Store) Get(ctx context.Context, bucket, key, localPath string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("blobstore: get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("blobstore: creating %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		return fmt.Errorf("blobstore: writing %s: %w", localPath, err)
	}
	return nil
}

func (s *S3Store) Put(ctx context.Context, bucket, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   strings.NewReader(string(body)),
	})
	if err != nil {
		return fmt.Errorf("blobstore: put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *S3Store) Stat(ctx context.Context, bucket, key string) (etag, md5Meta string, err error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("blobstore: head s3://%s/%s: %w", bucket, key, err)
	}
	if out.ETag != nil {
		etag = strings.Trim(*out.ETag, `"`)
	}
	for k, v := range out.Metadata {
		if strings.EqualFold(k, "md5") {
			md5Meta = strings.Trim(v, `"`)
		}
	}
	return etag, md5Meta, nil
}
