package api

import (
	"errors"
	"fmt"
)

// ChatRequest is the body of a prompt submission.
type ChatRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// Usage reports token accounting for a completion.
type Usage struct {
	CompletionTokens int `json:"completion_tokens"`
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse is a successful completion.
// Duration and Usage are nil when the backend omits them.
type ChatResponse struct {
	ID       string   `json:"id,omitempty"`
	Response string   `json:"response"`
	Duration *float64 `json:"duration,omitempty"`
	Usage    *Usage   `json:"usage,omitempty"`
}

// Example is one entry of the prompt gallery.
type Example struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
}

// Health is the backend health report.
type Health struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Error is a failure reported by the backend in an error body or a non-2xx status.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
}

// AsError returns the backend Error wrapped in err, if any.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
