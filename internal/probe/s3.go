package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/backmassage/galleryscan/internal/config"
	"github.com/backmassage/galleryscan/internal/naming"
)

// S3Checker probes s3://bucket/key targets with StatObject. Any error,
// including access denied, counts as absent.
type S3Checker struct {
	Client *minio.Client
	Verify bool
}

// Exists reports whether the object exists (and decodes, with Verify).
func (c *S3Checker) Exists(ctx context.Context, target string) bool {
	if c == nil || c.Client == nil {
		return false
	}
	bucket, key, err := ParseS3URL(target)
	if err != nil || key == "" {
		return false
	}
	if !c.Verify {
		_, err := c.Client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
		return err == nil
	}
	obj, err := c.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return false
	}
	defer obj.Close()
	return Verify(obj, naming.ExtOf(key))
}

// NewS3Client builds a minio client from cfg. An endpoint given as a URL
// selects TLS from its scheme and overrides cfg.UseSSL.
func NewS3Client(cfg config.S3Config) (*minio.Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	secure := cfg.UseSSL
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "http://"), false
	}
	endpoint = strings.TrimRight(endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return client, nil
}

// ParseS3URL splits "s3://bucket/key/parts" into bucket and key. The key may
// be empty ("s3://bucket" or "s3://bucket/").
func ParseS3URL(raw string) (bucket, key string, err error) {
	rest, ok := cutPrefixFold(strings.TrimSpace(raw), "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 url: %q", raw)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 url has no bucket: %q", raw)
	}
	return bucket, strings.TrimLeft(key, "/"), nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
