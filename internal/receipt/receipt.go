// Package receipt stores receipt photos in S3-compatible object storage.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxSize is the largest receipt accepted, in bytes.
const MaxSize = 5 << 20

var (
	ErrTooLarge      = errors.New("receipt must be 5 MB or smaller")
	ErrNotImage      = errors.New("receipt must be an image")
	ErrNotConfigured = errors.New("receipt storage not configured")
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration. PublicURL, when set, is
// the base URL objects are served from.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	PublicURL string
}

// Configured reports whether enough settings are present to upload.
func (c Config) Configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Store uploads receipts and returns their public URLs.
type Store struct {
	client s3Client
	cfg    Config
	now    func() time.Time
}

// New returns a Store for cfg. Uploads fail with ErrNotConfigured when cfg
// lacks a bucket or credentials.
func New(cfg Config) *Store {
	s := &Store{cfg: cfg, now: time.Now}
	if cfg.Configured() {
		s.client = NewS3Client(cfg)
	}
	return s
}

// NewS3Client builds a path-style client for cfg.
func NewS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether the store can accept uploads.
func (s *Store) Enabled() bool {
	return s.client != nil
}

// Validate checks a receipt's size and declared content type.
func Validate(size int64, contentType string) error {
	if size > MaxSize {
		return ErrTooLarge
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return ErrNotImage
	}
	return nil
}

// Upload validates and stores a receipt, returning the URL it can be
// retrieved from.
func (s *Store) Upload(ctx context.Context, body io.Reader, size int64, contentType string) (string, error) {
	if err := Validate(size, contentType); err != nil {
		return "", err
	}
	if s.client == nil {
		return "", ErrNotConfigured
	}

	key := s.objectKey(contentType)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload receipt: %w", err)
	}
	return s.URL(key), nil
}

// Delete removes a previously uploaded receipt by URL. URLs that do not
// belong to this store are ignored.
func (s *Store) Delete(ctx context.Context, url string) error {
	if s.client == nil {
		return ErrNotConfigured
	}
	base := s.baseURL() + "/"
	if !strings.HasPrefix(url, base) {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(strings.TrimPrefix(url, base)),
	})
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	return nil
}

// URL returns the public URL for an object key.
func (s *Store) URL(key string) string {
	return s.baseURL() + "/" + key
}

func (s *Store) baseURL() string {
	switch {
	case s.cfg.PublicURL != "":
		return strings.TrimRight(s.cfg.PublicURL, "/")
	case s.cfg.Endpoint != "":
		return strings.TrimRight(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.cfg.Bucket, s.cfg.Region)
	}
}

func (s *Store) objectKey(contentType string) string {
	return fmt.Sprintf("receipts/%s/%s%s", s.now().UTC().Format("2006/01"), uuid.New().String(), extension(contentType))
}

func extension(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/heic":
		return ".heic"
	default:
		return ""
	}
}
