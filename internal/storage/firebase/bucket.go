// Package firebase stores uploaded files in a Firebase Storage bucket through
// the Google Cloud Storage JSON API.
package firebase

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

// downloadTokenKey is the object metadata key Firebase reads download tokens from
const downloadTokenKey = "firebaseStorageDownloadTokens"

// Bucket uploads objects into one bucket under a fixed prefix
type Bucket struct {
	svc    *storage.Service
	bucket string
	prefix string
}

// NewBucket creates a bucket client. With an empty credentialsFile the
// application default credentials are used.
func NewBucket(ctx context.Context, bucket, credentialsFile, prefix string) (*Bucket, error) {
	if bucket == "" {
		return nil, fmt.Errorf("firebase bucket is not configured")
	}

	opts := []option.ClientOption{option.WithScopes(storage.DevstorageReadWriteScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	return &Bucket{svc: svc, bucket: bucket, prefix: prefix}, nil
}

// Upload stores r as <prefix>/<name> and returns the object name and a
// tokenized download URL.
func (b *Bucket) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, string, error) {
	token := uuid.NewString()
	obj := &storage.Object{
		Name:        path.Join(b.prefix, name),
		ContentType: contentType,
		Metadata:    map[string]string{downloadTokenKey: token},
	}

	res, err := b.svc.Objects.Insert(b.bucket, obj).
		Media(r, googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to upload object: %w", err)
	}

	return res.Name, DownloadURL(b.bucket, res.Name, token), nil
}

// DownloadURL builds the public Firebase download URL for an object
func DownloadURL(bucket, object, token string) string {
	return fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(object), url.QueryEscape(token),
	)
}
