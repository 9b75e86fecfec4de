package sales

import "errors"

// ErrValidation is returned for malformed or out-of-range request parameters.
var ErrValidation = errors.New("validation error")

// ErrFetch is returned when the catalog source is unreachable or answers with a non-success status.
var ErrFetch = errors.New("fetch error")

// ErrStore is returned when the record store rejects a query or insert.
var ErrStore = errors.New("store error")
