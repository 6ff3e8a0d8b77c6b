// Package links extracts wikilink references from note content.
//
// Grammar:
//
//	[[target]]
//	[[target|display text]]
//
// Targets are trimmed. Links inside fenced code blocks are not references.
package links

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

type Link struct {
	Target  string
	Display string
	LineNo  int
	Line    string
}

type Stats struct {
	Characters int `json:"characters"`
	Words      int `json:"words"`
}

var wikiLinkRe = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|([^\[\]]*))?\]\]`)

// Extract returns every wikilink in content in document order, duplicates included.
func Extract(content string) []Link {
	var out []Link
	var open fence
	for i, line := range strings.Split(content, "\n") {
		if f, ok := parseFence(line); ok {
			switch {
			case open.n == 0:
				if f.ch != '`' || !strings.ContainsRune(f.rest, '`') {
					open = f
					continue
				}
			case f.ch == open.ch && f.n >= open.n && strings.TrimSpace(f.rest) == "":
				open = fence{}
				continue
			}
		}
		if open.n > 0 {
			continue
		}
		for _, m := range wikiLinkRe.FindAllStringSubmatch(line, -1) {
			target := strings.TrimSpace(m[1])
			if target == "" {
				continue
			}
			out = append(out, Link{
				Target:  target,
				Display: strings.TrimSpace(m[2]),
				LineNo:  i + 1,
				Line:    line,
			})
		}
	}
	return out
}

// Targets returns just the link targets of Extract.
func Targets(content string) []string {
	found := Extract(content)
	if len(found) == 0 {
		return nil
	}
	out := make([]string, 0, len(found))
	for _, l := range found {
		out = append(out, l.Target)
	}
	return out
}

// UniqueTargets returns targets with case-insensitive duplicates removed, first spelling kept.
func UniqueTargets(content string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, target := range Targets(content) {
		key := Fold(target)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, target)
	}
	return out
}

// Fold is the comparison key for titles and link targets.
func Fold(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func ContentStats(content string) Stats {
	return Stats{
		Characters: utf8.RuneCountInString(content),
		Words:      len(strings.Fields(content)),
	}
}

// fence is a run of three or more backticks or tildes opening a line.
type fence struct {
	ch   byte
	n    int
	rest string
}

// parseFence reads a fence indented by at most three spaces. A closing fence must use the
// opening character and be at least as long.
func parseFence(line string) (fence, bool) {
	indent := len(line) - len(strings.TrimLeft(line, " "))
	if indent > 3 {
		return fence{}, false
	}
	line = line[indent:]
	if line == "" || (line[0] != '`' && line[0] != '~') {
		return fence{}, false
	}
	ch := line[0]
	n := 0
	for n < len(line) && line[n] == ch {
		n++
	}
	if n < 3 {
		return fence{}, false
	}
	return fence{ch: ch, n: n, rest: line[n:]}, true
}
