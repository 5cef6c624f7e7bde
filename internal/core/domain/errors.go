package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrTemporary       = errors.New("temporary failure")
	ErrCorpusMissing   = errors.New("lexical corpus missing: run ingestion first")
	ErrIndexMissing    = errors.New("vector index missing: run ingestion first")
	ErrProfileNotFound = errors.New("profile not found")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// IsConfigurationError reports whether err means the service cannot answer
// until ingestion has been run against its storage.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrCorpusMissing) || errors.Is(err, ErrIndexMissing)
}
