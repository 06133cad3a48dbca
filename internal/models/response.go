package models

// Choice is a single completion candidate returned by the endpoint
type Choice struct {
	Index        int
	Message      Message
	FinishReason string
}

// Usage reports token accounting for a completion
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// CompletionOutput is the parsed success body of a chat completion
type CompletionOutput struct {
	ID      string
	Model   string
	Choices []Choice
	Usage   Usage
}

// FirstChoice returns the first candidate, or nil when there is none
func (o *CompletionOutput) FirstChoice() *Choice {
	if o == nil || len(o.Choices) == 0 {
		return nil
	}
	return &o.Choices[0]
}

// Text returns the content of the first candidate
func (o *CompletionOutput) Text() string {
	if c := o.FirstChoice(); c != nil {
		return c.Message.Content
	}
	return ""
}
