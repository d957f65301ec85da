// Package archive writes a durable JSON snapshot of each issued certificate
// to S3-compatible storage. Uploads are a secondary path: failures are
// reported to the caller to log and swallow, never to roll back issuance.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rowanvale/bridgewell/internal/model"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

type Uploader struct {
	cfg    Config
	client s3Client
}

func NewUploader(cfg Config) *Uploader {
	u := &Uploader{cfg: cfg}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		u.client = newS3Client(cfg)
	}
	return u
}

func newS3Client(cfg Config) *s3.Client {
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

// Enabled reports whether archive credentials are configured.
func (u *Uploader) Enabled() bool {
	return u.client != nil
}

// StoreCertificate uploads the certificate record as JSON keyed by its
// certificate number.
func (u *Uploader) StoreCertificate(ctx context.Context, cert *model.Certificate) error {
	if u.client == nil {
		return fmt.Errorf("archive not configured")
	}

	data, err := json.MarshalIndent(cert, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal certificate: %w", err)
	}

	key := fmt.Sprintf("certificates/%s.json", cert.CertificateNumber)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload certificate %s: %w", cert.CertificateNumber, err)
	}
	return nil
}
