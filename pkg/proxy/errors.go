package proxy

import "errors"

var (
	// ErrRequestTooLarge is returned when a request reaches the configured
	// size ceiling.
	ErrRequestTooLarge = errors.New("request entity too large")

	// ErrIncompleteBody is returned when the client closes before sending
	// the declared content length.
	ErrIncompleteBody = errors.New("connection closed before body was complete")

	// ErrIncompleteHeaders is returned when a body-carrying request has no
	// blank line within the header scan window.
	ErrIncompleteHeaders = errors.New("header block not terminated")

	// ErrInvalidBody is returned when a non-multipart body is not UTF-8.
	ErrInvalidBody = errors.New("request body is not valid utf-8")
)
