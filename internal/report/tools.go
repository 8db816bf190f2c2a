package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"topic-crawler/internal/ai"
	"topic-crawler/internal/model"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Tool names exposed to the agent.
const (
	ToolLoadData     = "load_bilibili_data"
	ToolStatSummary  = "stat_summary"
	ToolSuggestTitle = "title_generator"
)

// Tools exposes loading, summarizing and title suggestion to an ai.Agent.
// The title tool is left out when titles is nil.
func Tools(dataRoot string, titles ai.TitleSuggester) []ai.Tool {
	tools := []ai.Tool{
		{
			Name:        ToolLoadData,
			Description: "加载B站视频搜索数据。date 为 YYYY-MM-DD，省略时读取最新一份。",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"date": {Type: jsonschema.String, Description: "YYYY-MM-DD"},
				},
			},
			Call: func(ctx context.Context, args json.RawMessage) (any, error) {
				var in struct {
					Date string `json:"date"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, fmt.Errorf("%s: %w", ToolLoadData, err)
				}
				items, err := LoadTopicItems(dataRoot, in.Date)
				if err != nil {
					return nil, err
				}
				return model.StripTopicRaw(items), nil
			},
		},
		{
			Name:        ToolStatSummary,
			Description: "统计记录数量、总播放量和平均点赞率。",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"records": {
						Type:  jsonschema.Array,
						Items: &jsonschema.Definition{Type: jsonschema.Object},
					},
				},
				Required: []string{"records"},
			},
			Call: func(ctx context.Context, args json.RawMessage) (any, error) {
				var in struct {
					Records []model.TopicItem `json:"records"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, fmt.Errorf("%s: %w", ToolStatSummary, err)
				}
				return Summarize(in.Records), nil
			},
		},
	}
	if titles == nil {
		return tools
	}
	return append(tools, ai.Tool{
		Name:        ToolSuggestTitle,
		Description: "根据主题生成5个中文标题建议。",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"topic":   {Type: jsonschema.String},
				"context": {Type: jsonschema.String},
			},
			Required: []string{"topic"},
		},
		Call: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Topic   string `json:"topic"`
				Context string `json:"context"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("%s: %w", ToolSuggestTitle, err)
			}
			if in.Topic == "" {
				return nil, errors.New("topic is required")
			}
			return titles.SuggestTitles(ctx, in.Topic, in.Context)
		},
	})
}
