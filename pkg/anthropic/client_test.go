package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient creates an sdkClient pointing at a local test server.
func newTestClient(baseURL string) *sdkClient {
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey("test-key"),
			option.WithBaseURL(baseURL),
		),
	}
}

func messageResponseJSON() map[string]any {
	return map[string]any{
		"id":   "msg_test_001",
		"type": "message",
		"role": "assistant",
		"content": []map[string]any{
			{"type": "text", "text": `{"address": "Çankaya, Ankara"}`},
		},
		"model":       "claude-sonnet-4-5-20250929",
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":                100,
			"output_tokens":               50,
			"cache_creation_input_tokens": 0,
			"cache_read_input_tokens":     25,
		},
	}
}

func TestContentPartConstructors(t *testing.T) {
	txt := Text("hello")
	assert.Equal(t, PartText, txt.Type)
	assert.Equal(t, "hello", txt.Text)

	img := Image("image/png", "AAAA")
	assert.Equal(t, PartImage, img.Type)
	assert.Equal(t, "image/png", img.MediaType)
	assert.Equal(t, "AAAA", img.Data)

	doc := Document("BBBB")
	assert.Equal(t, PartDocument, doc.Type)
	assert.Equal(t, "application/pdf", doc.MediaType)
}

func TestSDKClient_CreateMessage_MultimodalBody(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messageResponseJSON()) //nolint:errcheck
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)
	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 1024,
		System:    BuildCachedSystemBlocks("you are an appraiser", "5m"),
		Messages: []Message{{Role: "user", Content: []ContentPart{
			Image("image/jpeg", "AAAA"),
			Text("analyze this listing"),
		}}},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "msg_test_001", resp.ID)
	assert.Contains(t, resp.FirstText(), "Çankaya")
	assert.Equal(t, int64(25), resp.Usage.CacheReadInputTokens)

	// Verify the wire shape: one user message with image then text parts.
	msgs, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	content := msg["content"].([]any)
	require.Len(t, content, 2)

	imgBlock := content[0].(map[string]any)
	assert.Equal(t, "image", imgBlock["type"])
	source := imgBlock["source"].(map[string]any)
	assert.Equal(t, "base64", source["type"])
	assert.Equal(t, "image/jpeg", source["media_type"])
	assert.Equal(t, "AAAA", source["data"])

	txtBlock := content[1].(map[string]any)
	assert.Equal(t, "text", txtBlock["type"])
	assert.Equal(t, "analyze this listing", txtBlock["text"])

	// System block carries the cache breakpoint.
	system := captured["system"].([]any)
	require.Len(t, system, 1)
	sysBlock := system[0].(map[string]any)
	assert.Equal(t, "you are an appraiser", sysBlock["text"])
	cc := sysBlock["cache_control"].(map[string]any)
	assert.Equal(t, "ephemeral", cc["type"])
	assert.Equal(t, "5m", cc["ttl"])
}

func TestSDKClient_CreateMessage_DocumentBody(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(messageResponseJSON()) //nolint:errcheck
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)
	_, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 1024,
		Messages: []Message{{Role: "user", Content: []ContentPart{
			Document("UERGLWRhdGE="),
			Text("extract the listing fields"),
		}}},
	})
	require.NoError(t, err)

	msg := captured["messages"].([]any)[0].(map[string]any)
	content := msg["content"].([]any)
	require.Len(t, content, 2)

	docBlock := content[0].(map[string]any)
	assert.Equal(t, "document", docBlock["type"])
	source := docBlock["source"].(map[string]any)
	assert.Equal(t, "base64", source["type"])
	assert.Equal(t, "application/pdf", source["media_type"])
	assert.Equal(t, "UERGLWRhdGE=", source["data"])
}

func TestSDKClient_CreateMessage_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)) //nolint:errcheck
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)
	_, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 16,
		Messages:  []Message{{Role: "user", Content: []ContentPart{Text("hi")}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: create message")
}

func TestBuildCachedSystemBlocks_DefaultTTL(t *testing.T) {
	blocks := BuildCachedSystemBlocks("x", "")
	require.Len(t, blocks, 1)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "5m", blocks[0].CacheControl.TTL)
}

func TestFirstText(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "thinking", Text: "…"},
		{Type: "text", Text: "answer"},
	}}
	assert.Equal(t, "answer", resp.FirstText())
	assert.Equal(t, "", (&MessageResponse{}).FirstText())
}

func TestEstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}

	// sonnet: $3 in + $15 out per MTok
	assert.InDelta(t, 18.0, u.EstimateCost("claude-sonnet-4-5-20250929"), 1e-9)
	assert.Equal(t, 0.0, u.EstimateCost("unknown-model"))
}

func TestEstimateCost_CacheTokens(t *testing.T) {
	u := TokenUsage{CacheCreationInputTokens: 1_000_000, CacheReadInputTokens: 1_000_000}

	// haiku: $0.80 in → write 1.25x = $1.00, read 0.1x = $0.08
	assert.InDelta(t, 1.08, u.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
}
