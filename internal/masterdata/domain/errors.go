package masterdata

import "errors"

// ErrNotFound indicates a missing masterdata record.
var ErrNotFound = errors.New("masterdata: not found")
