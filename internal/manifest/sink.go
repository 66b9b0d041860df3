package manifest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/backmassage/galleryscan/internal/config"
	"github.com/backmassage/galleryscan/internal/probe"
)

// Write renders m in cfg.Format and delivers it to cfg.OutputPath: stdout
// when empty or "-", an S3 object for s3://bucket/key, otherwise a local
// file. It returns the destination and the number of bytes written.
func Write(ctx context.Context, cfg *config.Config, m Manifest, stdout io.Writer) (dest string, n int, err error) {
	var buf bytes.Buffer
	if err := Encode(&buf, m, cfg.Format); err != nil {
		return "", 0, err
	}

	out := strings.TrimSpace(cfg.OutputPath)
	switch {
	case out == "" || out == "-":
		written, err := stdout.Write(buf.Bytes())
		return "stdout", written, err
	case strings.HasPrefix(strings.ToLower(out), "s3://"):
		client, err := probe.NewS3Client(cfg.S3)
		if err != nil {
			return out, 0, err
		}
		if err := Upload(ctx, client, out, buf.Bytes(), ContentType(cfg.Format)); err != nil {
			return out, 0, err
		}
		return out, buf.Len(), nil
	default:
		if err := SaveFile(out, buf.Bytes()); err != nil {
			return out, 0, err
		}
		return out, buf.Len(), nil
	}
}

// SaveFile writes data to path atomically via a temp file and rename.
// Parent directories are created as needed.
func SaveFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open tmp: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename tmp: %w", err)
	}
	return nil
}

// Upload stores data at dest (s3://bucket/key), creating the bucket if it
// does not exist yet.
func Upload(ctx context.Context, client *minio.Client, dest string, data []byte, contentType string) error {
	bucket, key, err := probe.ParseS3URL(dest)
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("s3 destination needs an object key: %q", dest)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}

	_, err = client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload manifest: %w", err)
	}
	return nil
}
