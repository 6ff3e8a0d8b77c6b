package importer

import (
	"strings"

	"gopkg.in/yaml.v3"
)

type frontmatter struct {
	Title string `yaml:"title"`
}

// splitFrontmatter returns the YAML block between leading --- fences, if any.
func splitFrontmatter(content string) (string, bool) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), true
		}
	}
	return "", false
}

// frontmatterTitle returns the trimmed title field, or "" when absent or unparsable.
func frontmatterTitle(content string) string {
	raw, ok := splitFrontmatter(content)
	if !ok {
		return ""
	}
	var fm frontmatter
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return ""
	}
	return strings.TrimSpace(fm.Title)
}
