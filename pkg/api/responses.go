package api

type ChatResponse struct {
	ID      string         `json:"id"`
	Choices []Choice       `json:"choices"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Object  string         `json:"object"` // "chat.completion" or "chat.completion.chunk"
	Usage   *ResponseUsage `json:"usage,omitempty"`

	Error *ErrorResponse `json:"error,omitempty"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}

type Choice struct {
	Index        int            `json:"index"`
	Message      *ChatMessage   `json:"message,omitempty"`
	FinishReason string         `json:"finish_reason"`
	Error        *ErrorResponse `json:"error,omitempty"`
}

type ResponseUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ErrorResponse struct {
	Code     interface{}            `json:"code,omitempty"`
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Text returns the assistant text of the first choice, empty if absent.
func (r *ChatResponse) Text() string {
	if len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return ""
	}
	msg := r.Choices[0].Message
	if msg.Content.Text != "" {
		return msg.Content.Text
	}
	for _, p := range msg.Content.Parts {
		if p.Type == "text" && p.Text != "" {
			return p.Text
		}
	}
	return ""
}

// Images returns the generated image references of the first choice.
func (r *ChatResponse) ImageRefs() []string {
	if len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return nil
	}
	var refs []string
	for _, img := range r.Choices[0].Message.Images {
		if img.ImageURL.URL != "" {
			refs = append(refs, img.ImageURL.URL)
		}
	}
	return refs
}
