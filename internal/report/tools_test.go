package report

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"topic-crawler/internal/ai"
	"topic-crawler/internal/model"
)

type fakeTitles struct{ topic, hint string }

func (f *fakeTitles) SuggestTitles(ctx context.Context, topic, hint string) ([]string, error) {
	f.topic, f.hint = topic, hint
	return []string{"甲"}, nil
}

func toolByName(t *testing.T, tools []ai.Tool, name string) ai.Tool {
	t.Helper()
	for _, tool := range tools {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %q not registered", name)
	return ai.Tool{}
}

func TestTools(t *testing.T) {
	root := t.TempDir()
	writeSnapshot(t, root, "2024-05-01.json", []model.TopicItem{
		{ID: "a", Views: i64(100), LikeRate: f64(0.1), Raw: map[string]any{"x": 1}},
		{ID: "b", Views: i64(300), LikeRate: f64(0.3)},
	}, time.Now())

	if got := Tools(root, nil); len(got) != 2 {
		t.Fatalf("without a suggester expected 2 tools, got %d", len(got))
	}
	titles := &fakeTitles{}
	tools := Tools(root, titles)
	ctx := context.Background()

	out, err := toolByName(t, tools, ToolLoadData).Call(ctx, json.RawMessage(`{"date":"2024-05-01"}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	items := out.([]model.TopicItem)
	if len(items) != 2 || items[0].Raw != nil {
		t.Errorf("loaded = %+v", items)
	}
	if _, err := toolByName(t, tools, ToolLoadData).Call(ctx, json.RawMessage(`{"date":"../x"}`)); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("bad date err = %v", err)
	}

	records, _ := json.Marshal(map[string]any{"records": items})
	out, err = toolByName(t, tools, ToolStatSummary).Call(ctx, records)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s := out.(Summary); s.Count != 2 || s.ViewsSum != 400 {
		t.Errorf("summary = %+v", s)
	}

	out, err = toolByName(t, tools, ToolSuggestTitle).Call(ctx, json.RawMessage(`{"topic":"原神","context":"热搜"}`))
	if err != nil {
		t.Fatalf("titles: %v", err)
	}
	if !reflect.DeepEqual(out, []string{"甲"}) || titles.topic != "原神" || titles.hint != "热搜" {
		t.Errorf("titles = %v via %+v", out, titles)
	}
	if _, err := toolByName(t, tools, ToolSuggestTitle).Call(ctx, json.RawMessage(`{}`)); err == nil {
		t.Error("missing topic should fail")
	}
}
