package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentUnmarshalString(t *testing.T) {
	var msg ChatMessage
	require.NoError(t, json.Unmarshal([]byte(`{"role": "user", "content": "hello"}`), &msg))
	assert.Equal(t, "hello", msg.Content.Text)
	assert.Nil(t, msg.Content.Parts)
}

func TestContentUnmarshalParts(t *testing.T) {
	raw := `{"role": "user", "content": [
		{"type": "text", "text": "what is this"},
		{"type": "image_url", "image_url": {"url": "https://example.com/a.png"}}
	]}`

	var msg ChatMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	require.Len(t, msg.Content.Parts, 2)
	assert.Equal(t, "what is this", msg.Content.Parts[0].Text)
	assert.Equal(t, "https://example.com/a.png", msg.Content.Parts[1].ImageURL.URL)
}

func TestContentMarshalRoundTrip(t *testing.T) {
	msg := TextMessage("user", "hi")
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"text"`)

	plain := ChatMessage{Role: "user", Content: Content{Text: "hi"}}
	data, err = json.Marshal(plain)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content":"hi"`)
}

func TestResponseImageRefs(t *testing.T) {
	raw := `{"choices": [{"message": {
		"role": "assistant",
		"content": "done",
		"images": [
			{"type": "image_url", "image_url": {"url": "data:image/png;base64,aGk="}},
			{"type": "image_url", "image_url": {"url": ""}}
		]
	}}]}`

	var resp ChatResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	assert.Equal(t, []string{"data:image/png;base64,aGk="}, resp.ImageRefs())
	assert.Equal(t, "done", resp.Text())
}
