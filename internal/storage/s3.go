package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// StorageType names the S3 flavour behind the endpoint.
type StorageType string

const (
	StorageTypeR2           StorageType = "r2"
	StorageTypeS3           StorageType = "s3"
	StorageTypeS3Compatible StorageType = "s3compatible"
)

// transcriptCacheControl keeps archived transcripts out of shared caches.
const transcriptCacheControl = "private, no-store"

// S3Config configures the transcript bucket (AWS S3, Cloudflare R2, MinIO).
type S3Config struct {
	Type      StorageType
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
	PublicURL string // optional prefix for links in logs and the CLI
}

// S3Storage writes objects to one S3-compatible bucket.
type S3Storage struct {
	client    *s3.Client
	bucket    string
	host      string
	scheme    string
	storeType StorageType
	publicURL string
}

// NewS3Storage builds a client for cfg. No request is made until the first
// call.
func NewS3Storage(cfg *S3Config) (*S3Storage, error) {
	host := endpointHost(cfg.Endpoint)
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(regionFor(cfg)),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// AWS itself resolves its own endpoints; everything else is path-style.
		if host == "" {
			return
		}
		o.BaseEndpoint = aws.String(scheme + "://" + host)
		o.UsePathStyle = true
	})

	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		host:      host,
		scheme:    scheme,
		storeType: cfg.Type,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

func regionFor(cfg *S3Config) string {
	switch {
	case cfg.Region != "":
		return cfg.Region
	case cfg.Type == StorageTypeR2:
		return "auto"
	default:
		return "us-east-1"
	}
}

// endpointHost reduces "https://host:port/path" to "host:port".
func endpointHost(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if i := strings.Index(endpoint, "://"); i != -1 {
		endpoint = endpoint[i+3:]
	}
	if i := strings.IndexByte(endpoint, '/'); i != -1 {
		endpoint = endpoint[:i]
	}
	return endpoint
}

// EnsureBucket creates the transcript bucket when it is missing. R2 buckets
// can only be created from the dashboard.
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if s.storeType == StorageTypeR2 {
		return fmt.Errorf("bucket %s not found; create it in the R2 dashboard: %w", s.bucket, err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &owned) {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Upload puts one object. Transcripts are never served publicly, so every
// object is marked uncacheable.
func (s *S3Storage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          reader,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(transcriptCacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// GetURL returns a link to key: the public prefix when set, the virtual-host
// AWS URL without an endpoint, else a path-style endpoint URL.
func (s *S3Storage) GetURL(key string) string {
	switch {
	case s.publicURL != "":
		return s.publicURL + "/" + key
	case s.host == "":
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	default:
		return fmt.Sprintf("%s://%s/%s/%s", s.scheme, s.host, s.bucket, key)
	}
}
