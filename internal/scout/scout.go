// Package scout requests AI scouting reports for a player's analysis and
// parses them into sections.
package scout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"
)

// PromptVersion identifies systemPrompt in stored reports. Bump it whenever
// the prompt changes so older reports can be told apart.
const PromptVersion = "v1"

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// ErrNoAPIKey is returned when neither the config nor the environment has a key.
var ErrNoAPIKey = errors.New("no Anthropic API key: set anthropic.api_key or ANTHROPIC_API_KEY")

var log = logrus.WithField("component", "scout")

const systemPrompt = `You are an expert Valorant scouting analyst. Analyze the provided player performance data and generate a concise scouting report in the following format:

STRENGTHS:
• [1-2 line strength with specific stat reference]
• [1-2 line strength with specific stat reference]
• [1-2 line strength with specific stat reference]

WEAKNESSES:
• [1-2 line weakness with specific stat reference]
• [1-2 line weakness with specific stat reference]
• [1-2 line weakness with specific stat reference]

OVERVIEW:
[2-3 sentence overall assessment of player skill level, playstyle, and potential]

Be concise, specific with statistics, and actionable in your feedback.`

// Client streams scouting reports from the Anthropic Messages API.
type Client struct {
	api     anthropic.Client
	model   string
	timeout time.Duration
}

// NewClient returns a scouting client. An empty apiKey falls back to
// $ANTHROPIC_API_KEY; extra options are passed to the SDK client.
func NewClient(apiKey, model string, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		api:     anthropic.NewClient(opts...),
		model:   model,
		timeout: 60 * time.Second,
	}, nil
}

// Model returns the model id requests are sent to.
func (c *Client) Model() string { return c.model }

// Request is the user message sent alongside the system prompt.
type Request struct {
	PlayerData string    `json:"playerData"`
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Stream sends req and calls onChunk with each text delta as it arrives.
// It returns the full response text.
func (c *Client) Stream(ctx context.Context, req Request, onChunk func(string)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	log.WithFields(logrus.Fields{"player": req.PlayerID, "model": c.model}).Debug("requesting scouting report")

	stream := c.api.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   2048,
		Temperature: anthropic.Float(0.7),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(string(body))),
		},
	})
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				text := delta.Delta.AsTextDelta().Text
				sb.WriteString(text)
				if onChunk != nil {
					onChunk(text)
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return "", fmt.Errorf("API authentication failed, check your API key")
		}
		return sb.String(), fmt.Errorf("streaming error: %w", err)
	}
	if sb.Len() == 0 {
		return "", errors.New("empty response from model")
	}
	return sb.String(), nil
}
