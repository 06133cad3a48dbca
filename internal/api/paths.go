// Package api provides the chat completions client implementation.
package api

// GJSON paths for extracting values from completion responses.
const (
	// Success body paths
	PathID      = "id"
	PathModel   = "model"
	PathChoices = "choices"
	PathUsage   = "usage"

	// Choice paths (relative to a choice object)
	PathChoiceIndex        = "index"
	PathChoiceMessage      = "message"
	PathChoiceRole         = "message.role"
	PathChoiceContent      = "message.content"
	PathChoiceFinishReason = "finish_reason"

	// Usage paths (relative to the usage object)
	PathUsagePrompt     = "prompt_tokens"
	PathUsageCompletion = "completion_tokens"
	PathUsageTotal      = "total_tokens"

	// Error body path
	PathErrorMessage = "error.message"
)
