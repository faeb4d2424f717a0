package catalog

import "errors"

// ErrUnavailable wraps transport/database failures so callers can tell a
// broken catalog from a clean no-match and degrade instead of aborting.
var ErrUnavailable = errors.New("wine catalog unavailable")
