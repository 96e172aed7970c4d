package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrDefinitionNotFound is returned when a requested key is not in the definition table.
	ErrDefinitionNotFound = zerr.New("resource definition not found")

	// ErrFetchFailed is returned when fetching or decoding a resource fails.
	ErrFetchFailed = zerr.New("resource fetch failed")

	// ErrDisposed is returned when an operation is attempted after disposal.
	ErrDisposed = zerr.New("resource manager disposed")

	// ErrInvalidDefinition is returned when a resource definition is malformed.
	ErrInvalidDefinition = zerr.New("invalid resource definition")

	// ErrDuplicateDefinition is returned when two definitions share a key.
	ErrDuplicateDefinition = zerr.New("duplicate resource definition")

	// ErrConfigNotFound is returned when no configuration file can be located.
	ErrConfigNotFound = zerr.New("could not find skybox.yaml")

	// ErrInvalidConfig is returned when the configuration file cannot be used.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrUnsupportedLocation is returned when a face location uses an unknown scheme.
	ErrUnsupportedLocation = zerr.New("unsupported location")

	// ErrFaceDecodeFailed is returned when a face image cannot be decoded.
	ErrFaceDecodeFailed = zerr.New("failed to decode face")

	// ErrInvalidCubemap is returned when decoded faces do not form a cubemap.
	ErrInvalidCubemap = zerr.New("faces do not form a cubemap")

	// ErrAlreadyDisposed is returned by resources disposed more than once.
	ErrAlreadyDisposed = zerr.New("resource already disposed")

	// ErrEmptyResource is returned when an operation needs pixels but the key
	// names no resource.
	ErrEmptyResource = zerr.New("resource is empty")

	// ErrUnsupportedResource is returned when a resource is not of the
	// concrete type an adapter expects.
	ErrUnsupportedResource = zerr.New("unsupported resource type")
)

// NewDefinitionNotFoundError reports an unknown resource key.
func NewDefinitionNotFoundError(key string) error {
	return zerr.With(zerr.Wrap(ErrDefinitionNotFound, "unknown resource key"), "key", key)
}

// NewFetchError reports a failed fetch of key. Both ErrFetchFailed and cause
// remain matchable with errors.Is.
func NewFetchError(key string, cause error) error {
	return zerr.With(errors.Join(ErrFetchFailed, cause), "key", key)
}
