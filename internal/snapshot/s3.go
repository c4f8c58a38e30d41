package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the part of *s3.Client used by S3Store.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ PutObjectAPI = (*s3.Client)(nil)

// S3Store uploads snapshots to an S3 bucket under a key prefix.
type S3Store struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Store creates a store uploading to bucket. Keys are
// prefix + name + ".html".
func NewS3Store(client PutObjectAPI, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// NewS3Client builds an S3 client from the default AWS credential chain.
// An empty region uses the chain's region.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Key returns the object key for a snapshot name.
func (s *S3Store) Key(name string) string {
	return s.prefix + name + ".html"
}

// Put uploads the snapshot and returns its s3:// URL.
func (s *S3Store) Put(ctx context.Context, snap *Snapshot) (string, error) {
	if !validName(snap.Name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, snap.Name)
	}

	key := s.Key(snap.Name)
	metadata := map[string]string{
		"snapshot-id": snap.ID,
		"created-at":  snap.CreatedAt.UTC().Format(time.RFC3339),
	}
	if snap.Root != "" {
		metadata["root"] = snap.Root
		metadata["generation"] = strconv.FormatUint(snap.Generation, 10)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(snap.HTML),
		ContentLength: aws.Int64(int64(len(snap.HTML))),
		ContentType:   aws.String(ContentType),
		Metadata:      metadata,
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
