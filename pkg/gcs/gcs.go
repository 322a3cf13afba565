package gcs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"nextgen-hr-worker/pkg/apperror"
)

// NormalizeURI converts a storage.googleapis.com signed URL to the gs:// form.
// Locations already in gs:// form pass through unchanged.
func NormalizeURI(raw string) (string, error) {
	if strings.HasPrefix(raw, "gs://") {
		return raw, nil
	}
	if !strings.HasPrefix(raw, "https://") {
		return "", fmt.Errorf("unsupported storage location %q", raw)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid storage URL: %w", err)
	}

	var bucket, object string
	if parsed.Hostname() == "storage.googleapis.com" {
		// Path style: /bucket/object
		parts := strings.SplitN(strings.TrimPrefix(parsed.Path, "/"), "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", fmt.Errorf("invalid signed URL format %q", raw)
		}
		bucket, object = parts[0], parts[1]
	} else {
		// Virtual-hosted style: bucket.storage.googleapis.com/object
		bucket = strings.SplitN(parsed.Hostname(), ".", 2)[0]
		object = strings.TrimPrefix(parsed.Path, "/")
		if bucket == "" || object == "" {
			return "", fmt.Errorf("invalid signed URL format %q", raw)
		}
	}

	object, err = url.PathUnescape(object)
	if err != nil {
		return "", fmt.Errorf("invalid object name in %q: %w", raw, err)
	}
	return "gs://" + bucket + "/" + object, nil
}

// ParseURI splits gs://bucket/object into its bucket and object parts.
func ParseURI(gsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gsURI, "gs://") {
		return "", "", fmt.Errorf("storage location %q must start with gs://", gsURI)
	}
	parts := strings.SplitN(strings.TrimPrefix(gsURI, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("storage location %q must contain a bucket and object", gsURI)
	}
	return parts[0], parts[1], nil
}

// Downloader fetches Cloud Storage objects into a local scratch directory.
type Downloader struct {
	client     *storage.Client
	scratchDir string
}

func NewDownloader(ctx context.Context, scratchDir string, opts ...option.ClientOption) (*Downloader, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return &Downloader{client: client, scratchDir: scratchDir}, nil
}

// Fetch downloads the object behind uri (gs:// or signed URL) to the scratch
// directory and returns the local path. Callers own the file and remove it
// when done. The name is uuid-prefixed so concurrent handlers never collide.
func (d *Downloader) Fetch(ctx context.Context, uri string) (string, error) {
	gsURI, err := NormalizeURI(uri)
	if err != nil {
		return "", apperror.Extraction("invalid audio location", err)
	}
	bucket, object, err := ParseURI(gsURI)
	if err != nil {
		return "", apperror.Extraction("invalid audio location", err)
	}

	rc, err := d.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return "", apperror.Extraction("open storage object "+gsURI, err)
	}
	defer rc.Close()

	localPath := filepath.Join(d.scratchDir, uuid.NewString()+"_"+path.Base(object))
	out, err := os.Create(localPath)
	if err != nil {
		return "", apperror.Extraction("create scratch file", err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(localPath)
		return "", apperror.Extraction("download storage object "+gsURI, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(localPath)
		return "", apperror.Extraction("flush scratch file", err)
	}
	return localPath, nil
}

func (d *Downloader) Close() error {
	return d.client.Close()
}
