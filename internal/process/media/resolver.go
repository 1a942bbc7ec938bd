// Package media stores message attachments in object storage at most once.
package media

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	"github.com/lueurxax/telegrasper/internal/core/ports"
	"github.com/lueurxax/telegrasper/internal/platform/observability"
)

// Resolver looks up stored media and uploads it when absent.
type Resolver struct {
	store  ports.ObjectStore
	bucket string
	logger *zerolog.Logger
}

// New creates a Resolver writing to bucket.
func New(store ports.ObjectStore, bucket string, logger *zerolog.Logger) *Resolver {
	return &Resolver{store: store, bucket: bucket, logger: logger}
}

// Folder returns the object folder for a channel.
func Folder(channelID int64) string {
	return strconv.FormatInt(channelID, 10)
}

// EnsureFolder creates the channel folder in the bucket.
func (r *Resolver) EnsureFolder(ctx context.Context, channelID int64) error {
	return r.store.EnsureFolder(ctx, r.bucket, Folder(channelID))
}

// Resolve returns the media descriptor for a message or nil. Download and
// upload failures are logged and yield nil. A failed existence lookup is
// returned as an error and no transfer is attempted.
func (r *Resolver) Resolve(ctx context.Context, session ports.Session, channelID int64, messageID int, msg domain.SourceMessage) (*domain.Media, error) {
	folder, file := Folder(channelID), strconv.Itoa(messageID)
	log := r.logger.With().Int64("channel_id", channelID).Int("message_id", messageID).Logger()

	existing, err := r.store.Stat(ctx, r.bucket, folder, file)
	if err != nil {
		observability.MediaResolved.WithLabelValues(observability.MediaLookupFailed).Inc()

		return nil, fmt.Errorf("lookup media %s/%s: %w", folder, file, err)
	}

	if existing != nil {
		log.Warn().Str("url", existing.URL).Msg("Media already stored, skipping download")
		observability.MediaResolved.WithLabelValues(observability.MediaExisting).Inc()

		return existing, nil
	}

	if msg.Attachment == nil {
		observability.MediaResolved.WithLabelValues(observability.MediaAbsent).Inc()

		return nil, nil
	}

	data, err := session.Download(ctx, msg.Attachment)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(msg.Attachment.Kind)).Msg("Media download failed")
		observability.MediaResolved.WithLabelValues(observability.MediaDownloadFailed).Inc()

		return nil, nil
	}

	url, err := r.store.Upload(ctx, r.bucket, folder, file, data, msg.Attachment.MimeType)
	if err != nil {
		log.Error().Err(err).Msg("Media upload failed")
		observability.MediaResolved.WithLabelValues(observability.MediaUploadFailed).Inc()

		return nil, nil
	}

	observability.MediaResolved.WithLabelValues(observability.MediaUploaded).Inc()
	log.Debug().Str("url", url).Int("bytes", len(data)).Msg("Media uploaded")

	return &domain.Media{URL: url, MimeType: msg.Attachment.MimeType}, nil
}
