// Sentinel errors for failures from upstream HTTP APIs.
package errors

import "errors"

var (
	APIServerError         = errors.New("Server error")
	APIClientError         = errors.New("Client error")
	RatelimitExceededError = errors.New("Ratelimit exceeded")
)
