package media

import "github.com/cockroachdb/errors"

// Resolution failure classes. Resolvers mark their errors with one of these
// so callers can classify them with errors.Is.
var (
	ErrNetwork     = errors.New("network failure")
	ErrAuthExpired = errors.New("authentication expired")
	ErrNotFound    = errors.New("item not found")
)
