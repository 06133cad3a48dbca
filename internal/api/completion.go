package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	http "github.com/bogdanfinn/fhttp"
	openai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/gptchat/internal/errors"
	"github.com/diogo/gptchat/internal/models"
)

// maxErrorBody caps how much of a failed response is kept for diagnostics
const maxErrorBody = 4096

// Complete sends the full history and returns the first candidate's message
func (c *CompletionClient) Complete(ctx context.Context, history []models.Message) (models.Message, error) {
	output, err := c.CreateCompletion(ctx, history)
	if err != nil {
		return models.Message{}, err
	}

	choice := output.FirstChoice()
	if choice == nil {
		return models.Message{}, apierrors.NewNoChoicesError(PathChoices)
	}
	return choice.Message, nil
}

// CreateCompletion performs one POST to the completion endpoint and parses the body
func (c *CompletionClient) CreateCompletion(ctx context.Context, history []models.Message) (*models.CompletionOutput, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("conversation cannot be empty")
	}

	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	payload, err := buildPayload(c.model, c.temperature, history)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	req.Header.Set("Authorization", "Bearer "+c.credential)

	c.logger.DebugContext(ctx, "sending completion request",
		"endpoint", c.endpoint,
		"model", c.model,
		"messages", len(history),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint("chat completion", c.endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	c.logger.DebugContext(ctx, "completion response received",
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apierrors.NewAPIErrorWithBody(
			resp.StatusCode,
			c.endpoint,
			errorMessage(resp.StatusCode, errorBody),
			string(errorBody),
		)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint("read completion body", c.endpoint, err)
	}

	return parseResponse(body)
}

// buildPayload creates the JSON request body: {model, messages, temperature}
func buildPayload(model string, temperature float32, history []models.Message) ([]byte, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role.String(),
			Content: msg.Content,
		})
	}

	return json.Marshal(openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	})
}

// errorMessage builds the diagnostic text for a failed status, appending
// error.message when the body is JSON that carries one
func errorMessage(status int, body []byte) string {
	msg := fmt.Sprintf("request failed with status %d", status)

	if !gjson.ValidBytes(body) {
		return msg
	}

	detail := gjson.GetBytes(body, PathErrorMessage)
	if detail.Type == gjson.String && detail.String() != "" {
		msg += ": " + detail.String()
	}
	return msg
}

// parseResponse parses a success body into a CompletionOutput
func parseResponse(body []byte) (*models.CompletionOutput, error) {
	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewParseError("response is not valid JSON", "")
	}

	parsed := gjson.ParseBytes(body)

	choiceList := parsed.Get(PathChoices)
	if !choiceList.IsArray() || len(choiceList.Array()) == 0 {
		return nil, apierrors.NewNoChoicesError(PathChoices)
	}

	var choices []models.Choice
	var parseErr error
	choiceList.ForEach(func(idx, value gjson.Result) bool {
		if !value.Get(PathChoiceMessage).IsObject() {
			if idx.Int() == 0 {
				parseErr = apierrors.NewParseError("first choice has no message", PathChoices+".0."+PathChoiceMessage)
				return false
			}
			return true // Later candidates are never used
		}

		choices = append(choices, models.Choice{
			Index:        int(value.Get(PathChoiceIndex).Int()),
			Message:      models.Message{Role: parseRole(value.Get(PathChoiceRole).String()), Content: value.Get(PathChoiceContent).String()},
			FinishReason: value.Get(PathChoiceFinishReason).String(),
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	usage := parsed.Get(PathUsage)

	return &models.CompletionOutput{
		ID:      parsed.Get(PathID).String(),
		Model:   parsed.Get(PathModel).String(),
		Choices: choices,
		Usage: models.Usage{
			PromptTokens:     usage.Get(PathUsagePrompt).Int(),
			CompletionTokens: usage.Get(PathUsageCompletion).Int(),
			TotalTokens:      usage.Get(PathUsageTotal).Int(),
		},
	}, nil
}

// parseRole maps a wire role onto the conversation roles; anything that is
// not the user is attributed to the assistant
func parseRole(role string) models.Role {
	if role == string(models.RoleUser) {
		return models.RoleUser
	}
	return models.RoleAssistant
}
