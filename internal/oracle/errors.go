package oracle

import "errors"

// ErrUnavailable is returned when the upstream change time cannot be determined.
var ErrUnavailable = errors.New("freshness oracle unavailable")
