package llm

import "errors"

var (
	ErrUnknownBackend = errors.New("llm: unknown provider backend")
	ErrEmptyResponse  = errors.New("llm: provider returned an empty response")
	ErrMissingAPIKey  = errors.New("llm: API key is required")
)
