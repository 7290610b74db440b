package engine

import (
	"errors"
)

var (
	// ErrAnnotationNotFound is returned for identities the manager does not hold.
	ErrAnnotationNotFound = errors.New("annotation not found")

	// ErrUseCreate is returned when a CreateAnnotation event reaches Dispatch.
	// New annotations need a fresh identity and must go through CreateAnnotation.
	ErrUseCreate = errors.New("createAnnotation must go through CreateAnnotation")

	// ErrDuplicateIdentity is returned when the ID generator repeats an identity.
	ErrDuplicateIdentity = errors.New("duplicate annotation identity")

	// ErrSessionClosed is returned by Session.Do after the session stopped.
	ErrSessionClosed = errors.New("session closed")
)

// IsNotFound returns true if err is or wraps ErrAnnotationNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAnnotationNotFound)
}
