package bybit

import "errors"

var (
	// ErrFetch marks a failed REST ticker fetch.
	ErrFetch = errors.New("bybit: fetch failed")

	// ErrStream marks a lost or unusable stream connection.
	ErrStream = errors.New("bybit: stream failed")
)
