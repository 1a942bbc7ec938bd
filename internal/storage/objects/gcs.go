// Package objects keeps message media in a Google Cloud Storage bucket,
// one folder per channel and one object per message.
package objects

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/lueurxax/telegrasper/internal/core/domain"
)

// PublicBaseURL is the public endpoint objects are served from.
const PublicBaseURL = "https://storage.googleapis.com"

// GCS implements ports.ObjectStore.
type GCS struct {
	client *storage.Client
	logger *zerolog.Logger
}

// NewGCS creates a client. With an empty credentialsFile the ambient
// application default credentials are used.
func NewGCS(ctx context.Context, credentialsFile string, logger *zerolog.Logger) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCS{client: client, logger: logger}, nil
}

func objectName(folder, file string) string {
	return path.Join(folder, file)
}

func folderMarker(folder string) string {
	return folder + "/"
}

// PublicURL is the address of an uploaded object.
func PublicURL(bucket, name string) string {
	return PublicBaseURL + "/" + url.PathEscape(bucket) + "/" + name
}

// Stat returns the descriptor of an existing object, or nil when absent.
func (g *GCS) Stat(ctx context.Context, bucket, folder, file string) (*domain.Media, error) {
	name := objectName(folder, file)

	attrs, err := g.client.Bucket(bucket).Object(name).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}

	return &domain.Media{URL: PublicURL(bucket, name), MimeType: attrs.ContentType}, nil
}

// EnsureFolder writes an empty "<folder>/" marker object if none exists.
func (g *GCS) EnsureFolder(ctx context.Context, bucket, folder string) error {
	obj := g.client.Bucket(bucket).Object(folderMarker(folder))

	_, err := obj.Attrs(ctx)
	if err == nil {
		return nil
	}

	if !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("stat folder %s: %w", folder, err)
	}

	w := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if err := w.Close(); err != nil && !isPreconditionFailed(err) {
		return fmt.Errorf("create folder %s: %w", folder, err)
	}

	g.logger.Debug().Str("bucket", bucket).Str("folder", folder).Msg("Created media folder")

	return nil
}

// Upload stores data and returns its public URL.
func (g *GCS) Upload(ctx context.Context, bucket, folder, file string, data []byte, mimeType string) (string, error) {
	name := objectName(folder, file)

	w := g.client.Bucket(bucket).Object(name).NewWriter(ctx)
	w.ContentType = mimeType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()

		return "", fmt.Errorf("write %s: %w", name, err)
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}

	return PublicURL(bucket, name), nil
}

func (g *GCS) Close() error {
	if err := g.client.Close(); err != nil {
		return fmt.Errorf("close storage client: %w", err)
	}

	return nil
}
