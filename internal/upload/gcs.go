package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// GCSConfig captures the parameters for the Cloud Storage backend.
type GCSConfig struct {
	Bucket string
	// Prefix is prepended to every object key, e.g. "pinharvest/2026-01".
	Prefix string
}

// GCSUploader mirrors the output tree into a bucket. Unlike Drive there is no
// folder handshake; the category/topic layout is preserved in object keys.
type GCSUploader struct {
	client *storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewGCSUploader creates a Cloud Storage backed uploader.
func NewGCSUploader(client *storage.Client, cfg GCSConfig, logger *zap.Logger) (*GCSUploader, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("upload.gcs_bucket is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GCSUploader{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logger,
	}, nil
}

// UploadTree mirrors every category directory under root into the bucket.
func (u *GCSUploader) UploadTree(ctx context.Context, root string) (Results, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read output root: %w", err)
	}
	results := make(Results)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("upload tree: %w", err)
		}
		results[entry.Name()] = u.uploadCategory(ctx, root, entry.Name())
	}
	return results, nil
}

func (u *GCSUploader) uploadCategory(ctx context.Context, root, name string) bool {
	u.logger.Info("Uploading category", zap.String("category", name), zap.String("bucket", u.bucket))
	uploaded, skipped, failed := 0, 0, 0

	walkErr := filepath.WalkDir(filepath.Join(root, name), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		key := path.Join(u.prefix, filepath.ToSlash(rel))
		created, err := u.putIfAbsent(ctx, key, p)
		switch {
		case err != nil:
			u.logger.Warn("Upload failed", zap.String("object", key), zap.Error(err))
			failed++
		case created:
			uploaded++
		default:
			skipped++
		}
		return nil
	})
	if walkErr != nil {
		u.logger.Warn("Category walk failed", zap.String("category", name), zap.Error(walkErr))
		failed++
	}

	u.logger.Info("Category upload complete",
		zap.String("category", name),
		zap.Int("uploaded", uploaded),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed))
	return failed == 0
}

// putIfAbsent uploads the file unless an object already exists at key.
func (u *GCSUploader) putIfAbsent(ctx context.Context, key, filePath string) (bool, error) {
	obj := u.client.Bucket(u.bucket).Object(key)
	if _, err := obj.Attrs(ctx); err == nil {
		return false, nil
	} else if !errors.Is(err, storage.ErrObjectNotExist) {
		return false, fmt.Errorf("stat object: %w", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", filepath.Base(filePath), err)
	}
	defer f.Close()

	writer := obj.NewWriter(ctx)
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		writer.ContentType = ct
	}
	if _, err := io.Copy(writer, f); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return false, fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return false, fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return false, fmt.Errorf("close writer: %w", err)
	}
	return true, nil
}
