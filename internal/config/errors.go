package config

import "github.com/maxbolgarin/errm"

var (
	ErrMissingProviderToken = errm.New("provider token is required")
	ErrMissingAgentType     = errm.New("agent type is required")
)
