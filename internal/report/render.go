package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

// Meta is the YAML frontmatter of a rendered report.
type Meta struct {
	Title       string `yaml:"title"`
	Topic       string `yaml:"topic"`
	GeneratedAt string `yaml:"generated_at"`
	Count       int    `yaml:"count"`
}

type data struct {
	Topic   string
	Summary Summary
	Titles  []string
}

//go:embed report.md.tmpl
var reportTpl string

var compiled = template.Must(template.New("report").Funcs(template.FuncMap{
	"percent": func(f float64) string { return fmt.Sprintf("%.2f%%", f*100) },
	"add1":    func(i int) int { return i + 1 },
}).Parse(reportTpl))

// Render produces the markdown report, frontmatter first.
func Render(topic string, s Summary, titles []string, now time.Time) (string, error) {
	topic = strings.TrimSpace(topic)
	fm, err := yaml.Marshal(Meta{
		Title:       topic + " 选题报告",
		Topic:       topic,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Count:       s.Count,
	})
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	if err := compiled.Execute(&buf, data{Topic: topic, Summary: s, Titles: titles}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Slug is a filesystem-friendly report name for topic on now's date.
func Slug(topic string, now time.Time) string {
	r := strings.NewReplacer("/", "-", "\\", "-", " ", "-", ":", "-")
	return now.UTC().Format(time.DateOnly) + "-" + r.Replace(strings.TrimSpace(topic))
}
