package bilibili

import (
	"encoding/json"
	"fmt"
	"strings"
)

// listRule is one candidate location of an entry list inside a response.
type listRule struct {
	name string
	path []string
}

// hotListRules covers every hot-keyword response shape seen so far, in
// priority order. Add new shapes here.
var hotListRules = []listRule{
	{"list", []string{"list"}},
	{"trending.list", []string{"trending", "list"}},
	{"trending.rank_list", []string{"trending", "rank_list"}},
	{"data.list", []string{"data", "list"}},
	{"data.trending.list", []string{"data", "trending", "list"}},
}

var rankingRules = []listRule{
	{"data.list", []string{"data", "list"}},
}

// probeList applies rules in order and returns the first non-empty list.
// An unrecognised body yields ("", nil).
func probeList(body any, rules []listRule) (string, []any) {
	for _, r := range rules {
		if list, ok := lookup(body, r.path...).([]any); ok && len(list) > 0 {
			return r.name, list
		}
	}
	return "", nil
}

// lookup walks nested objects; any non-object along the way yields nil.
func lookup(v any, path ...string) any {
	cur := v
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

var keywordFields = []string{"keyword", "show_name", "word", "name"}

// entryKeyword returns the first non-empty keyword-like field.
func entryKeyword(entry map[string]any) string {
	for _, f := range keywordFields {
		if s := strings.TrimSpace(stringOf(entry[f])); s != "" {
			return s
		}
	}
	return ""
}

// stringOf renders strings and JSON numbers; other types yield "".
func stringOf(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return fmt.Sprintf("%v", s)
	}
	return ""
}

// firstTruthy returns the first value that is not nil, "", 0 or false.
func firstTruthy(vals ...any) any {
	for _, v := range vals {
		switch x := v.(type) {
		case nil:
			continue
		case string:
			if x == "" {
				continue
			}
		case json.Number:
			if f, err := x.Float64(); err == nil && f == 0 {
				continue
			}
		case float64:
			if x == 0 {
				continue
			}
		case bool:
			if !x {
				continue
			}
		}
		return v
	}
	return nil
}
