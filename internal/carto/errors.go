package carto

import (
	"errors"

	"github.com/gi8lino/tilecarto/internal/fetcher"
	"github.com/gi8lino/tilecarto/internal/protocols"
)

// Resolution failures. Match them with errors.Is.
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrUnsupportedScheme  = protocols.ErrUnsupportedScheme
	ErrInvalidDescriptor  = errors.New("invalid connection descriptor")
	ErrConfigLoad         = errors.New("load map config")

	ErrRemoteRejected     = fetcher.ErrRemoteRejected
	ErrRemoteUnavailable  = fetcher.ErrRemoteUnavailable
	ErrUnexpectedResponse = fetcher.ErrUnexpectedResponse
	ErrTransport          = fetcher.ErrTransport
)
