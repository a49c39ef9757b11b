package shared

import "time"

// HTTP Client Configuration
const (
	DefaultHTTPTimeout     = 180 * time.Second
	DefaultDialTimeout     = 2 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Quota Configuration
const (
	// DailyRequestQuota is the number of recommendation requests a single
	// client identity is admitted per calendar day.
	DailyRequestQuota = 5
)

// Completion Configuration
const (
	CompletionEndpoint = "https://api.openai.com/v1/chat/completions"
	CompletionModel    = "gpt-3.5-turbo"
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.7
	DefaultTopP        = 1.0
)

// Media Configuration
const (
	MediaEndpoint     = "http://www.omdbapi.com/"
	MediaCacheTTL     = 24 * time.Hour
	MediaFetchTimeout = 10 * time.Second
)
