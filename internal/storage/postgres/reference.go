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
	queryLoadArgot = `SELECT id, name, drug_id FROM argot WHERE name <> '' ORDER BY id`
	queryFindDrug  = `SELECT id, drug_name, drug_type, drug_english_name FROM drugs WHERE id = $1`
)

func (db *DB) LoadLexicon(ctx context.Context) (domain.Lexicon, error) {
	rows, err := db.Pool.Query(ctx, queryLoadArgot)
	if err != nil {
		return domain.Lexicon{}, fmt.Errorf("load argot: %w", err)
	}

	terms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ArgotTerm, error) {
		var t domain.ArgotTerm
		err := row.Scan(&t.ID, &t.Name, &t.DrugID)

		return t, err
	})
	if err != nil {
		return domain.Lexicon{}, fmt.Errorf("scan argot: %w", err)
	}

	return domain.NewLexicon(terms), nil
}

func (db *DB) FindDrug(ctx context.Context, id string) (*domain.Drug, error) {
	var d domain.Drug

	err := db.Pool.QueryRow(ctx, queryFindDrug, id).Scan(&d.ID, &d.Name, &d.Type, &d.EnglishName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("drug %q: %w", id, coreerrors.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("find drug %q: %w", id, err)
	}

	return &d, nil
}
