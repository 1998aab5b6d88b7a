package model

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures at the service boundary. The HTTP layer maps
// validation to 400, not-found to 404 and everything else to 500.
var (
	TagValidation = goerr.NewTag("validation")
	TagNotFound   = goerr.NewTag("not_found")
	TagExternal   = goerr.NewTag("external")
)

var (
	ErrEmptyQuestion  = goerr.New("question must not be empty", goerr.T(TagValidation))
	ErrEmptyTranscr   = goerr.New("transcript must not be empty", goerr.T(TagValidation))
	ErrNoActiveQuery  = goerr.New("last transcript turn must be a user turn with content", goerr.T(TagValidation))
	ErrNoSources      = goerr.New("sources must be a non-empty list", goerr.T(TagValidation))
	ErrIndexNotFound  = goerr.New("index not found at given path", goerr.T(TagValidation))
	ErrSourceNotFound = goerr.New("source document not found", goerr.T(TagNotFound))
	ErrModelMismatch  = goerr.New("embedding model does not match index", goerr.T(TagValidation))
)

// IsValidation reports whether err carries the validation tag.
func IsValidation(err error) bool {
	return goerr.HasTag(err, TagValidation)
}

// IsNotFound reports whether err carries the not-found tag.
func IsNotFound(err error) bool {
	return goerr.HasTag(err, TagNotFound)
}
