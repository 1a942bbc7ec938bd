package mocks

import "errors"

var (
	// ErrChannelNotFound is returned when a session has no channel for a key.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrNoPayload is returned when a session has no bytes for an attachment.
	ErrNoPayload = errors.New("no payload for attachment")
)
