// Package graph writes the channel/argot/drug knowledge graph to Neo4j.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegrasper/internal/core/ports"
)

// Store implements ports.GraphStore on a Neo4j driver.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zerolog.Logger
}

// Options configures the Neo4j connection.
type Options struct {
	URI      string
	User     string
	Password string
	Database string
}

// New connects and verifies the server is reachable.
func New(ctx context.Context, opts Options, logger *zerolog.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.User, opts.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)

		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	logger.Info().Str("uri", opts.URI).Msg("Connected to Neo4j")

	return &Store{driver: driver, database: opts.Database, logger: logger}, nil
}

// Merge runs one MERGE statement in its own write session.
func (s *Store) Merge(ctx context.Context, op ports.MergeOp) (ports.MergeSummary, error) {
	query, params, err := buildMerge(op)
	if err != nil {
		return ports.MergeSummary{}, err
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return ports.MergeSummary{}, fmt.Errorf("merge %s: %w", op.Kind, err)
	}

	summary, err := result.Consume(ctx)
	if err != nil {
		return ports.MergeSummary{}, fmt.Errorf("consume merge %s: %w", op.Kind, err)
	}

	counters := summary.Counters()

	return ports.MergeSummary{
		NodesCreated:         counters.NodesCreated(),
		RelationshipsCreated: counters.RelationshipsCreated(),
	}, nil
}

// Ping checks the server is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("neo4j ping: %w", err)
	}

	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if err := s.driver.Close(ctx); err != nil {
		return fmt.Errorf("close neo4j driver: %w", err)
	}

	return nil
}
