// Package local implements ObjectStorage on the local filesystem, the
// default backend for single-node deployments. Objects live under
// root/<bucket>/<key>.
package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"textmill/internal/domain"
	"textmill/internal/port"
)

type localStorage struct {
	root    string
	baseURL string
}

// New creates a disk-backed ObjectStorage rooted at root. baseURL is
// prepended to object paths when a download URL is requested, e.g.
// "http://localhost:8080/api/v1/download".
func New(root, baseURL string) (port.ObjectStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &localStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *localStorage) objectPath(bucket, key string) (string, error) {
	p := filepath.Join(s.root, bucket, filepath.FromSlash(key))
	// Reject keys that escape the storage root.
	if !strings.HasPrefix(filepath.Clean(p), filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return p, nil
}

func (s *localStorage) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.objectPath(input.Bucket, input.Key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("creating object dir: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return nil, fmt.Errorf("creating object file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, input.Body); err != nil {
		return nil, fmt.Errorf("writing object: %w", err)
	}
	return &port.UploadOutput{Location: p}, nil
}

func (s *localStorage) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return data, nil
}

func (s *localStorage) Delete(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}

func (s *localStorage) List(ctx context.Context, bucket, prefix string) ([]port.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := filepath.Join(s.root, bucket)
	var objects []port.ObjectInfo

	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, port.ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	return objects, nil
}

// GetPresignedURL returns a stable URL under the configured base; local
// storage has no notion of expiry.
func (s *localStorage) GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := s.objectPath(bucket, key); err != nil {
		return "", err
	}
	return s.baseURL + "/" + key, nil
}
