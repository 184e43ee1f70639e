package r2

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"videoquiz/internal/config"
	"videoquiz/internal/logger"
)

// HistoryKey is the object key the history document is mirrored to.
const HistoryKey = "history/history.json"

// Client mirrors documents into a Cloudflare R2 bucket.
type Client struct {
	s3Client   *s3.Client
	bucketName string
	log        *logger.Logger
}

type Option func(*options)

type options struct {
	endpoint string
	log      *logger.Logger
}

// WithEndpoint overrides the R2 account endpoint.
func WithEndpoint(url string) Option {
	return func(o *options) { o.endpoint = url }
}

func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// NewClient builds an R2 client. It returns (nil, nil) when cfg is incomplete
// so callers can run with mirroring disabled.
func NewClient(ctx context.Context, cfg config.R2Config, opts ...Option) (*Client, error) {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Enabled() {
		o.log.Warn("R2 settings incomplete, history mirroring disabled")
		return nil, nil
	}
	endpoint := o.endpoint
	if endpoint == "" {
		// https://<ACCOUNT_ID>.r2.cloudflarestorage.com
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: endpoint, HostnameImmutable: true}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithEndpointResolverWithOptions(r2Resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(opts *s3.Options) {
		opts.UsePathStyle = true
	})

	o.log.Info("R2 client initialized", "bucket", cfg.BucketName)
	return &Client{s3Client: s3Client, bucketName: cfg.BucketName, log: o.log}, nil
}

// PutHistory uploads the full history document, replacing the previous copy.
func (c *Client) PutHistory(ctx context.Context, data []byte) error {
	if c == nil || c.s3Client == nil {
		return fmt.Errorf("R2 client not initialized, skipping upload")
	}

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(HistoryKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload history to R2 (key: %s): %w", HistoryKey, err)
	}

	c.log.Debug("history mirrored to R2", "bucket", c.bucketName, "bytes", len(data))
	return nil
}
