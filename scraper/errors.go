package scraper

import "errors"

// Sentinel errors shared by all snapshot sources. The scheduler uses these to
// decide between retrying and alerting.
var (
	// ErrFetchTimeout means the source did not answer within the deadline
	ErrFetchTimeout = errors.New("snapshot fetch timed out")

	// ErrCircleNotFound means the configured circle id is unknown upstream
	ErrCircleNotFound = errors.New("circle not found")

	// ErrMalformedResponse means the source answered with data the parser
	// cannot interpret
	ErrMalformedResponse = errors.New("malformed source response")
)
