package media

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Config struct {
	Bucket string
	Region string
	// Endpoint overrides the AWS endpoint for S3-compatible stores. Path-style
	// addressing is used when set.
	Endpoint string
	// PublicURL is the base objects are served from. Defaults to the
	// virtual-hosted bucket URL.
	PublicURL string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3 struct {
	client    putObjectAPI
	bucket    string
	publicURL string
}

// NewS3 loads credentials from the default AWS chain.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	awsConf, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newS3WithConfig(awsConf, cfg), nil
}

func newS3WithConfig(awsConf aws.Config, cfg S3Config) *S3 {
	client := s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		if cfg.Endpoint != "" {
			public = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			public = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return &S3{client: client, bucket: cfg.Bucket, publicURL: public}
}

func (s *S3) Upload(ctx context.Context, data []byte, contentType, folder string) (string, error) {
	if len(data) == 0 {
		return "", uploadErr("empty payload")
	}
	key := objectKey(folder, contentType)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", uploadErr("put %s: %v", key, err)
	}
	return s.publicURL + "/" + key, nil
}
