package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// MaxTitles is how many suggestions SuggestTitles returns at most.
const MaxTitles = 5

// TitleSuggester proposes headlines for a topic.
type TitleSuggester interface {
	SuggestTitles(ctx context.Context, topic, hint string) ([]string, error)
}

// OpenAIClient implements TitleSuggester using the Chat Completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional
}

func NewOpenAI(cfg Config) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("ai: model must be specified")
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cc), model: cfg.Model}, nil
}

// SuggestTitles asks for MaxTitles catchy Chinese headlines about topic.
// hint is appended to the prompt as extra context.
func (o *OpenAIClient) SuggestTitles(ctx context.Context, topic, hint string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	prompt := fmt.Sprintf("根据主题%s生成%d个可能爆款的中文标题。%s", topic, MaxTitles, strings.TrimSpace(hint))
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		slog.Error("openai: suggest titles error", "topic", topic, "err", err)
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return []string{}, nil
	}
	return ParseTitles(resp.Choices[0].Message.Content), nil
}

// ParseTitles splits a completion into one title per non-blank line, with
// list bullets removed. Text without usable lines becomes a single title.
func ParseTitles(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		t := strings.Trim(line, "-• \t\r")
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 && strings.TrimSpace(text) != "" {
		out = append(out, text)
	}
	if len(out) > MaxTitles {
		out = out[:MaxTitles]
	}
	return out
}
