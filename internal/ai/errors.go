package ai

import "errors"

// Standard errors for AI model operations
var (
	// ErrUnsupportedModel is returned when an unknown model type is requested
	ErrUnsupportedModel = errors.New("unsupported model type")

	// ErrInvalidConfiguration is returned when the model configuration is invalid
	ErrInvalidConfiguration = errors.New("invalid model configuration")

	// ErrAPICallFailed is returned when the provider answers with an error status
	ErrAPICallFailed = errors.New("API call to model failed")

	// ErrContextDeadlineExceeded is returned when the request context expires
	ErrContextDeadlineExceeded = errors.New("context deadline exceeded")

	// ErrInvalidJSON is returned when a JSON reply cannot be parsed
	ErrInvalidJSON = errors.New("model response is not valid JSON")

	// ErrEmptyResponse is returned when the provider sends no content
	ErrEmptyResponse = errors.New("empty response from model")

	// ErrModelUnavailable is returned when the provider is overloaded or down
	ErrModelUnavailable = errors.New("model temporarily unavailable")

	// ErrRateLimitExceeded is returned when the API rate limit is exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)
