package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// AgentSystemPrompt frames the model as an analyst that works through tools.
const AgentSystemPrompt = "你是数据分析助手，使用工具读取数据并生成选题建议。"

// DefaultMaxSteps bounds the model round trips of one Run.
const DefaultMaxSteps = 8

// ErrTooManySteps is returned when the model keeps calling tools past the
// step limit.
var ErrTooManySteps = errors.New("ai: agent exceeded step limit")

// Tool is a function the agent may call. Call receives the raw JSON
// arguments chosen by the model and returns a JSON-encodable result.
type Tool struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
	Call        func(ctx context.Context, args json.RawMessage) (any, error)
}

// Agent runs a chat loop in which the model may call Tools until it
// answers in plain text.
type Agent struct {
	client   *openai.Client
	model    string
	tools    []Tool
	byName   map[string]Tool
	MaxSteps int
}

// NewAgent builds an agent over the given tools.
func NewAgent(cfg Config, tools []Tool) (*Agent, error) {
	c, err := NewOpenAI(cfg)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("ai: duplicate tool %q", t.Name)
		}
		byName[t.Name] = t
	}
	return &Agent{client: c.client, model: c.model, tools: tools, byName: byName, MaxSteps: DefaultMaxSteps}, nil
}

// Run sends input and executes tool calls until the model replies without
// any. It returns the final assistant message.
func (a *Agent) Run(ctx context.Context, input string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	defs := make([]openai.Tool, 0, len(a.tools))
	for _, t := range a.tools {
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: AgentSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: input},
	}

	steps := a.MaxSteps
	if steps <= 0 {
		steps = DefaultMaxSteps
	}
	for step := 0; step < steps; step++ {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: msgs,
			Tools:    defs,
			// zero would be dropped by omitempty
			Temperature: math.SmallestNonzeroFloat32,
		})
		if err != nil {
			slog.Error("openai: agent step error", "step", step, "err", err)
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}
		msgs = append(msgs, msg)
		for _, call := range msg.ToolCalls {
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
				Content:    a.invoke(ctx, call),
			})
		}
	}
	return "", ErrTooManySteps
}

// invoke runs one tool call. Failures are reported back to the model as an
// error object rather than aborting the run.
func (a *Agent) invoke(ctx context.Context, call openai.ToolCall) string {
	t, ok := a.byName[call.Function.Name]
	if !ok {
		return toolError(fmt.Errorf("unknown tool %q", call.Function.Name))
	}
	args := json.RawMessage(call.Function.Arguments)
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	out, err := t.Call(ctx, args)
	if err != nil {
		slog.Warn("agent: tool failed", "tool", t.Name, "err", err)
		return toolError(err)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return toolError(err)
	}
	slog.Debug("agent: tool called", "tool", t.Name, "bytes", len(b))
	return string(b)
}

func toolError(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(b)
}
