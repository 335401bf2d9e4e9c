package sm2ec

import "errors"

var (
	ErrInvalidEncoding    = errors.New("sm2ec: invalid encoding")
	ErrPointNotOnCurve    = errors.New("sm2ec: point not on curve")
	ErrNotInvertible      = errors.New("sm2ec: element is not invertible")
	ErrEntropyUnavailable = errors.New("sm2ec: entropy unavailable")
	ErrRetryBoundExceeded = errors.New("sm2ec: retry bound exceeded")
)
