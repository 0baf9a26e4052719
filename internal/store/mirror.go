package store

import (
	"bytes"
	"context"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mrz1836/sieve/internal/config"
	sieveerrors "github.com/mrz1836/sieve/internal/errors"
)

// defaultRegion is used when the mirror config leaves region empty.
const defaultRegion = "us-east-1"

// Mirror receives a copy of every file the FileStore writes.
type Mirror interface {
	// Put uploads content under key, replacing any existing object.
	Put(ctx context.Context, key string, content []byte, contentType string) error
}

// ObjectMirror uploads results to an S3-compatible bucket.
type ObjectMirror struct {
	client   *minio.Client
	bucket   string
	region   string
	prefix   string
	initOnce sync.Once
	initErr  error
}

var _ Mirror = (*ObjectMirror)(nil)

// NewObjectMirror creates a mirror from cfg. The bucket is created on first Put
// when it does not exist.
func NewObjectMirror(cfg config.MirrorConfig) (*ObjectMirror, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, sieveerrors.Wrap(sieveerrors.ErrConfigInvalidStore, "mirror endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, sieveerrors.Wrap(sieveerrors.ErrConfigInvalidStore, "mirror access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, sieveerrors.Wrap(sieveerrors.ErrConfigInvalidStore, "mirror bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, sieveerrors.Wrap(err, "init object mirror client")
	}

	return &ObjectMirror{
		client: client,
		bucket: bucket,
		region: region,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// ObjectKey returns the bucket key for a store-relative key.
func (m *ObjectMirror) ObjectKey(key string) string {
	if m.prefix == "" {
		return key
	}
	return path.Join(m.prefix, key)
}

// Put uploads content under the prefixed key.
func (m *ObjectMirror) Put(ctx context.Context, key string, content []byte, contentType string) error {
	if err := m.ensureBucket(ctx); err != nil {
		return sieveerrors.Wrap(err, "ensure bucket")
	}
	_, err := m.client.PutObject(ctx, m.bucket, m.ObjectKey(key), bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return sieveerrors.Wrapf(err, "put %s", key)
	}
	return nil
}

func (m *ObjectMirror) ensureBucket(ctx context.Context) error {
	m.initOnce.Do(func() {
		exists, err := m.client.BucketExists(ctx, m.bucket)
		if err != nil {
			m.initErr = err
			return
		}
		if exists {
			return
		}
		m.initErr = m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region})
	})
	return m.initErr
}

// FromConfig builds the FileStore described by cfg, attaching an ObjectMirror
// when the mirror is enabled.
func FromConfig(cfg *config.Config) (*FileStore, error) {
	var opts []Option
	if cfg.Store.Mirror.Enabled {
		m, err := NewObjectMirror(cfg.Store.Mirror)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithMirror(m))
	}
	return NewFileStore(cfg.Paths.RawRoot(), cfg.Paths.ParsedRoot(), opts...), nil
}
