// Package storage archives raw extracted topic text to S3-compatible
// object storage. The archive is an audit trail; indexing never reads it.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ArchiveConfig configures the S3 client.
type ArchiveConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Archive stores topic source text under topics/{topic}/gen-{n}.txt.
type Archive struct {
	client *s3.Client
	bucket string
}

// NewArchive creates an Archive client. A custom endpoint with path-style
// addressing supports MinIO and similar S3-compatible stores.
func NewArchive(ctx context.Context, cfg ArchiveConfig) (*Archive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Archive{client: client, bucket: cfg.Bucket}, nil
}

// ArchiveTopicSource uploads one generation's source text.
func (a *Archive) ArchiveTopicSource(ctx context.Context, topicID uuid.UUID, generation int64, text string) error {
	key := fmt.Sprintf("topics/%s/gen-%d.txt", topicID, generation)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader([]byte(text)),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}
