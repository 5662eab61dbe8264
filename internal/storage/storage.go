// Package storage wraps the S3-compatible object store holding media files.
// Stored paths may be bare keys, leading-slash paths or full URLs; the
// shim turns them into time-limited signed URLs and degrades to the original
// path whenever the store cannot be reached.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kerjaberkah/portal/internal/config"
)

var (
	signFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_storage_sign_failures_total",
		Help: "Presign requests that fell back to the stored path.",
	})
	statFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_storage_stat_failures_total",
		Help: "Object metadata lookups that fell back to a zero size.",
	})
)

// ObjectClient is the subset of *minio.Client used here.
type ObjectClient interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	PresignedPutObject(ctx context.Context, bucketName, objectName string, expires time.Duration) (*url.URL, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// ErrEmptyKey is returned when a path normalizes to nothing.
var ErrEmptyKey = errors.New("storage: empty object key")

// Storage is safe for concurrent use; build one per process.
type Storage struct {
	client ObjectClient
	bucket string
	ttl    time.Duration
	log    *slog.Logger
}

// New connects a minio client for cfg. No network call is made here; with
// Region set, presigning also works offline.
func New(cfg config.StorageConfig, log *slog.Logger) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return NewWithClient(client, cfg.Bucket, cfg.SignedURLTTL, log), nil
}

// NewWithClient builds a Storage around an existing client.
func NewWithClient(client ObjectClient, bucket string, ttl time.Duration, log *slog.Logger) *Storage {
	if ttl <= 0 || ttl > config.MaxSignedURLTTL {
		ttl = config.MaxSignedURLTTL
	}
	return &Storage{
		client: client,
		bucket: bucket,
		ttl:    ttl,
		log:    log.With(slog.String("component", "storage")),
	}
}

// IsAbsoluteURL reports whether p is already an http(s) URL.
func IsAbsoluteURL(p string) bool {
	lp := strings.ToLower(strings.TrimSpace(p))
	return strings.HasPrefix(lp, "http://") || strings.HasPrefix(lp, "https://")
}

// NormalizeKey turns a stored path into an object key: scheme, host and
// query are dropped, then a leading bucket segment and leading slashes.
//
//	"/portal/news/a.jpg"                       -> "news/a.jpg"
//	"https://s3.example.go.id/portal/news/a.jpg" -> "news/a.jpg"
//	"news/a.jpg"                               -> "news/a.jpg"
func NormalizeKey(p, bucket string) string {
	p = strings.TrimSpace(p)
	if strings.Contains(p, "://") {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
		}
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimLeft(p, "/")
	if bucket != "" {
		if p == bucket {
			return ""
		}
		p = strings.TrimPrefix(p, bucket+"/")
	}
	return strings.TrimLeft(p, "/")
}

// ResolveURL returns a signed GET URL for a stored media path.
// Empty paths stay empty, absolute http(s) URLs are returned unchanged and
// signing failures fall back to the original path.
func (s *Storage) ResolveURL(ctx context.Context, p string) string {
	if strings.TrimSpace(p) == "" || IsAbsoluteURL(p) {
		return p
	}
	key := NormalizeKey(p, s.bucket)
	if key == "" {
		return p
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.ttl, nil)
	if err != nil {
		signFailures.Inc()
		s.log.WarnContext(ctx, "presign failed, using stored path",
			slog.String("key", key), slog.String("error", err.Error()))
		return p
	}
	return u.String()
}

// Size returns the object size in bytes, or 0 when it cannot be determined.
func (s *Storage) Size(ctx context.Context, p string) int64 {
	if IsAbsoluteURL(p) {
		if u, err := url.Parse(p); err != nil || u.Query().Get("X-Amz-Signature") != "" {
			return 0
		}
	}
	key := NormalizeKey(p, s.bucket)
	if key == "" {
		return 0
	}
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		statFailures.Inc()
		s.log.DebugContext(ctx, "stat failed", slog.String("key", key), slog.String("error", err.Error()))
		return 0
	}
	return info.Size
}

// Upload stores r under key and returns the normalized key.
func (s *Storage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	key = NormalizeKey(key, s.bucket)
	if key == "" {
		return "", ErrEmptyKey
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// Delete removes the object a stored path points at.
func (s *Storage) Delete(ctx context.Context, p string) error {
	key := NormalizeKey(p, s.bucket)
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// PresignUpload returns a signed PUT URL so browsers can upload directly.
func (s *Storage) PresignUpload(ctx context.Context, key string) (string, error) {
	key = NormalizeKey(key, s.bucket)
	if key == "" {
		return "", ErrEmptyKey
	}
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, s.ttl)
	if err != nil {
		return "", fmt.Errorf("presign upload %s: %w", key, err)
	}
	return u.String(), nil
}

// TTL is the lifetime of URLs issued by this Storage.
func (s *Storage) TTL() time.Duration { return s.ttl }
