// Package models contains data types and constants for the chat completions API.
package models

// Endpoints for the OpenAI API
const (
	EndpointChatCompletions = "https://api.openai.com/v1/chat/completions"
)

// Request defaults. The model and temperature are fixed for every exchange.
const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTemperature = 0.7
)

// CredentialPrefix is the literal prefix every API key must start with
const CredentialPrefix = "sk-"

// CredentialEnvVar is the environment variable holding the API key
const CredentialEnvVar = "OPENAI_API_KEY"

// FallbackReply is appended as the assistant turn whenever an exchange fails
const FallbackReply = "Sorry, I encountered an error. Please try again."

// DefaultHeaders returns the headers sent with every completion request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "gptchat",
	}
}
