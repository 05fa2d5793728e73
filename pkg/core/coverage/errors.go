package coverage

import (
	"errors"
	"fmt"

	"github.com/jakechorley/clinic-cover/pkg/db"
)

// Errors surfaced to callers of the coordinator. Match them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyCovered     = errors.New("session is already covered")
	ErrSelfCoverage       = errors.New("you cannot cover your own sessions")
	ErrUnauthorized       = errors.New("not authorized")
	ErrHasCoveredSessions = errors.New("request has covered sessions")
	ErrNotCovered         = errors.New("session is not covered")
	ErrInvalidRequest     = errors.New("invalid request")
)

// loadErr translates a store read failure into the coordinator's taxonomy
func loadErr(kind, id string, err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %s: %w", kind, id, err)
}
