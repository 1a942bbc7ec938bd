package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/telegrasper/internal/core/domain"
	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
)

const (
	querySaveChannel = `
		INSERT INTO channel_info (id, access_hash, username, title) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			access_hash = EXCLUDED.access_hash,
			username    = EXCLUDED.username,
			title       = EXCLUDED.title`

	queryLookupChannel = `SELECT id, access_hash, username, title FROM channel_info WHERE id = $1`
)

func (db *DB) SaveChannel(ctx context.Context, ch *domain.Channel) error {
	if _, err := db.Pool.Exec(ctx, querySaveChannel, ch.ID, ch.AccessHash, ch.Username, ch.Title); err != nil {
		return fmt.Errorf("save channel %d: %w", ch.ID, err)
	}

	return nil
}

func (db *DB) LookupChannel(ctx context.Context, id int64) (*domain.Channel, error) {
	var ch domain.Channel

	err := db.Pool.QueryRow(ctx, queryLookupChannel, id).Scan(&ch.ID, &ch.AccessHash, &ch.Username, &ch.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("channel %d: %w", id, coreerrors.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("find channel %d: %w", id, err)
	}

	return &ch, nil
}
