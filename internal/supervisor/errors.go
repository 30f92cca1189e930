package supervisor

import (
	"errors"
	"fmt"
)

// SpawnError reports a backend whose bridge process could not be started.
// It is logged and returned from StartAll, never surfaced to protocol callers.
type SpawnError struct {
	Backend string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn backend %s: %v", e.Backend, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsSpawnError reports whether err is or wraps a SpawnError.
func IsSpawnError(err error) bool {
	var spawnErr *SpawnError
	return errors.As(err, &spawnErr)
}
