package application

import "errors"

// Domain outcomes returned by the services. Handlers map them to HTTP statuses;
// anything else is an internal failure.
var (
	ErrConflict           = errors.New("email already registered")
	ErrNotFound           = errors.New("not found")
	ErrExpired            = errors.New("verification token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidPlan        = errors.New("invalid plan type")
	ErrUnsupportedMedia   = errors.New("unsupported media type")
	ErrUpstream           = errors.New("upstream service failure")
)
