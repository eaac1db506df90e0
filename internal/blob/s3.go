package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client abstracts the S3 API operations used by [S3Store].
// The [s3.Client] type satisfies this interface.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Options configures a client for an S3-compatible endpoint.
type S3Options struct {
	Endpoint        string // empty uses AWS
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an [s3.Client] with static credentials. Path-style
// addressing is enabled whenever a custom endpoint is set, which is what
// MinIO and most self-hosted stores expect.
func NewS3Client(opts S3Options) *s3.Client {
	creds := aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		if opts.AccessKeyID == "" {
			return aws.Credentials{}, errors.New("S3 access key is not configured")
		}
		return aws.Credentials{
			AccessKeyID:     opts.AccessKeyID,
			SecretAccessKey: opts.SecretAccessKey,
			Source:          "face-recall-env",
		}, nil
	}))

	return s3.New(s3.Options{
		Region:      opts.Region,
		Credentials: creds,
	}, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
}

// S3Store implements Store backed by Amazon S3 or any S3-compatible
// object store (MinIO, R2, Supabase storage, etc.).
type S3Store struct {
	client    S3Client
	bucket    string
	prefix    string
	publicURL string
}

// NewS3 creates an S3-backed Store. Prefix is prepended to all object keys;
// pass "" for no prefix. publicURL is the base under which the bucket is
// publicly readable, e.g. "https://cdn.example.com/face-images".
func NewS3(client S3Client, bucket, prefix, publicURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, publicURL: publicURL}
}

// key builds the full S3 object key for the given storage key.
func (s *S3Store) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// Put uploads the object in a single PutObject call.
func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(key)),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put object %s: %s", key, describeS3Error(err))
	}
	return nil
}

// Delete removes the object. S3 DeleteObject is already idempotent.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %s", key, describeS3Error(err))
	}
	return nil
}

// PublicURL returns publicURL/prefix/key.
func (s *S3Store) PublicURL(key string) string {
	return joinURL(s.publicURL, s.key(key))
}

// describeS3Error flattens an API error into "Code: message" so the
// handler can surface it without the SDK's request metadata.
func describeS3Error(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()
	}
	return err.Error()
}

// Compile-time interface check.
var _ Store = (*S3Store)(nil)
