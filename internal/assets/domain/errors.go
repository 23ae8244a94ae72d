package assets

import "errors"

// ErrNotFound indicates a missing asset record.
var ErrNotFound = errors.New("asset: not found")
