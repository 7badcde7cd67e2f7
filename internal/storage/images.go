// Package storage keeps product images and avatars in an S3-compatible
// bucket (AWS S3 or MinIO).
package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iliyamo/chobar-cart/internal/config"
)

// ErrNotImage is returned for uploads that are not images.
var ErrNotImage = errors.New("only image files are allowed")

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type ImageStore struct {
	api     objectAPI
	bucket  string
	baseURL string // public url prefix, no trailing slash
	now     func() time.Time
}

// NewImageStore builds an S3 client from cfg.  Static credentials are used
// when given, otherwise the default AWS chain.  A custom endpoint switches
// to path-style addressing for MinIO.
func NewImageStore(ctx context.Context, cfg config.S3Config) (*ImageStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newImageStore(client, cfg), nil
}

func newImageStore(api objectAPI, cfg config.S3Config) *ImageStore {
	base := cfg.PublicBaseURL
	switch {
	case base != "":
	case cfg.Endpoint != "":
		base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &ImageStore{
		api:     api,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(base, "/"),
		now:     time.Now,
	}
}

// Upload stores fh under folder/yyyy/mm/dd/<uuid><ext> and returns its
// public URL.
func (s *ImageStore) Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	ctype := fh.Header.Get("Content-Type")
	if ctype == "" || ctype == "application/octet-stream" {
		ctype = mime.TypeByExtension(ext)
	}
	if !strings.HasPrefix(ctype, "image/") {
		return "", ErrNotImage
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	d := s.now().UTC()
	key := fmt.Sprintf("%s/%04d/%02d/%02d/%s%s", folder, d.Year(), d.Month(), d.Day(), uuid.New(), ext)
	if _, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentType:   aws.String(ctype),
		ContentLength: aws.Int64(fh.Size),
	}); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes the object behind url.  URLs outside this bucket (or
// empty) are ignored.
func (s *ImageStore) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || key == "" {
		return nil
	}
	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
