package errors

import "errors"

var (
	APIServerError         = errors.New("Server error")
	APIClientError         = errors.New("Client error")
	RatelimitExceededError = errors.New("Ratelimit exceeded")

	// RetriableError marks a failure believed to be intermittent. Callers may
	// retry the operation later.
	RetriableError = errors.New("Retriable error")
)
