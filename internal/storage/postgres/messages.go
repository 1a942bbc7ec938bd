package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
)

const (
	queryMessageExists = `SELECT EXISTS (SELECT 1 FROM channel_messages WHERE channel_id = $1 AND id = $2)`

	queryInsertMessage = `
		INSERT INTO channel_messages
			(channel_id, id, ts, text, sender, views, url, media_url, media_type, argot, drugs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	queryTouchChannel = `
		INSERT INTO channel_info (id, updated_at) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET updated_at = GREATEST(channel_info.updated_at, EXCLUDED.updated_at)`

	queryListChannelIDs = `SELECT id FROM channel_info ORDER BY id`
)

func (db *DB) MessageExists(ctx context.Context, channelID int64, id int) (bool, error) {
	var exists bool

	if err := db.Pool.QueryRow(ctx, queryMessageExists, channelID, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("message exists: %w", err)
	}

	return exists, nil
}

// messageRow flattens a record into column values.
type messageRow struct {
	sender    []byte
	mediaURL  *string
	mediaType *string
	argot     []string
	drugs     []string
}

func toRow(msg *domain.Message) (messageRow, error) {
	sender, err := json.Marshal(msg.Sender)
	if err != nil {
		return messageRow{}, fmt.Errorf("encode sender: %w", err)
	}

	row := messageRow{
		sender: sender,
		argot:  nonNil(msg.ArgotIDs),
		drugs:  nonNil(msg.DrugIDs),
	}

	if msg.Media != nil {
		row.mediaURL = &msg.Media.URL
		row.mediaType = &msg.Media.MimeType
	}

	return row, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}

	return ids
}

func (db *DB) InsertMessage(ctx context.Context, msg *domain.Message) error {
	row, err := toRow(msg)
	if err != nil {
		return err
	}

	_, err = db.Pool.Exec(ctx, queryInsertMessage,
		msg.ChannelID, msg.ID, msg.Timestamp, msg.Text, row.sender, msg.Views,
		msg.URL, row.mediaURL, row.mediaType, row.argot, row.drugs,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert message %d/%d: %w", msg.ChannelID, msg.ID, coreerrors.ErrDuplicate)
		}

		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (db *DB) TouchChannel(ctx context.Context, channelID int64, ts time.Time) error {
	if _, err := db.Pool.Exec(ctx, queryTouchChannel, channelID, ts.UTC()); err != nil {
		return fmt.Errorf("touch channel %d: %w", channelID, err)
	}

	return nil
}

func (db *DB) ListChannelIDs(ctx context.Context) ([]int64, error) {
	rows, err := db.Pool.Query(ctx, queryListChannelIDs)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan channels: %w", err)
	}

	return ids, nil
}
