package postgres

import "time"

const (
	connectAttempts   = 10
	connectRetryDelay = 2 * time.Second
)

// Pool sizing. A scrape writes one message at a time, so the pool stays small.
const (
	poolMaxConns        int32 = 8
	poolMinConns        int32 = 1
	poolMaxConnIdleTime       = 15 * time.Minute
	poolMaxConnLifetime       = time.Hour
	poolHealthCheck           = time.Minute
)

// migrationLockID keys the advisory lock held while goose runs.
const migrationLockID = 7401

// uniqueViolation is the SQLSTATE for duplicate keys.
const uniqueViolation = "23505"
