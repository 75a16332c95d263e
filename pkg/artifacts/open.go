package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config describes how to reach an S3-compatible service.
type S3Config struct {
	Region          string
	Endpoint        string // optional, for MinIO, R2 and the like
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	UsePathStyle    bool
}

// S3ConfigFromEnv reads the standard AWS_* variables. AWS_ENDPOINT_URL, when
// set, also switches to path-style addressing.
func S3ConfigFromEnv() S3Config {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	endpoint := os.Getenv("AWS_ENDPOINT_URL")
	return S3Config{
		Region:          region,
		Endpoint:        endpoint,
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		UsePathStyle:    endpoint != "",
	}
}

// Client builds an s3.Client from c.
func (c S3Config) Client() (*s3.Client, error) {
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return nil, errors.New("artifacts: s3 credentials are not set")
	}
	region := c.Region
	if region == "" {
		region = "us-east-1"
	}
	creds := aws.Credentials{
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
		Source:          "agentkit",
	}
	opts := s3.Options{
		Region:       region,
		UsePathStyle: c.UsePathStyle,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		}),
	}
	if c.Endpoint != "" {
		opts.BaseEndpoint = aws.String(c.Endpoint)
	}
	return s3.New(opts), nil
}

// ParseS3 splits "s3://bucket/prefix" into bucket and prefix.
func ParseS3(dest string) (bucket, prefix string, ok bool) {
	rest, ok := strings.CutPrefix(dest, "s3://")
	if !ok {
		return "", "", false
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	return bucket, strings.Trim(prefix, "/"), bucket != ""
}

// Open returns the store for dest: "s3://bucket/prefix" opens an S3 store
// configured by cfg, anything else is a local directory.
func Open(_ context.Context, dest string, cfg S3Config) (Store, error) {
	if strings.HasPrefix(dest, "s3://") {
		bucket, prefix, ok := ParseS3(dest)
		if !ok {
			return nil, fmt.Errorf("artifacts: %q: missing bucket", dest)
		}
		client, err := cfg.Client()
		if err != nil {
			return nil, err
		}
		return NewS3(client, bucket, prefix), nil
	}
	l, err := NewLocal(dest)
	if err != nil {
		return nil, fmt.Errorf("artifacts: %w", err)
	}
	return l, nil
}
