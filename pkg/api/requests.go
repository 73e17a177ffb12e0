package api

import "encoding/json"

type ChatRequest struct {
	// message array is required, dive in and deep validate
	Messages []ChatMessage `json:"messages" binding:"required,min=1,dive"`

	// the model to send the request to, in OpenRouter shape `<vendor>/<model>`
	Model string `json:"model" binding:"required"`

	// Enable streaming, defaults to `false` (empty)
	Stream bool `json:"stream,omitempty"`

	// LLM Parameters
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	Seed        int     `json:"seed,omitempty"`

	// Ask the aggregator for image output alongside text
	Modalities []string `json:"modalities,omitempty"`

	User string `json:"user,omitempty"`
}

type ChatMessage struct {
	Role    string  `json:"role" binding:"required,oneof=user assistant system"`
	Content Content `json:"content"` // string or []ContentPart
	Name    string  `json:"name,omitempty"`

	// Generated images attached to an assistant message. OpenRouter places
	// these on the message itself, not inside the content blocks.
	Images []MessageImage `json:"images,omitempty"`
}

// Content handles the union type: string | []ContentPart
type Content struct {
	Text  string
	Parts []ContentPart
}

func (c *Content) UnmarshalJSON(data []byte) error {
	// Try string first
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.Text)
	}
	// Try array of parts
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &c.Parts)
	}
	// Null or other?
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// MessageImage is one generated image on a response message. The URL is
// either a plain https URL or an inline data URI; it is persisted verbatim.
type MessageImage struct {
	Type     string   `json:"type,omitempty"` // "image_url"
	ImageURL ImageURL `json:"image_url"`
}

// TextMessage builds a single-block user message holding only text.
func TextMessage(role, text string) ChatMessage {
	return ChatMessage{
		Role:    role,
		Content: Content{Parts: []ContentPart{{Type: "text", Text: text}}},
	}
}
