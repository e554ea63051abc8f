package domain

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
)

//nolint:gochecknoglobals // compiled once, read-only
var (
	codeFence        = regexp.MustCompile("(?s)```.*?```")
	claimHeading     = regexp.MustCompile(`(Claim \d+\.)`)
	joinedSentence   = regexp.MustCompile(`([a-z])([A-Z])`)
	whereinClause    = regexp.MustCompile(`(?i)(wherein\s)`)
	characterization = regexp.MustCompile(`(?i)(characterized in that\s)`)
	sentenceEnd      = regexp.MustCompile(`\.\s([A-Z])`)
	brokenSentence   = regexp.MustCompile(`([^.])(\n)([a-z])`)
)

// FormatClaims lays out raw model output as numbered patent claims: code
// fences are dropped, each claim starts a new block, and wherein and
// characterized-in-that clauses start new lines.
func FormatClaims(text string) string {
	out := codeFence.ReplaceAllString(text, "")
	out = claimHeading.ReplaceAllString(out, "\n\n${1}")
	out = joinedSentence.ReplaceAllString(out, "${1} ${2}")
	out = whereinClause.ReplaceAllString(out, "\n${1}")
	out = characterization.ReplaceAllString(out, "\n${1}")
	out = sentenceEnd.ReplaceAllString(out, ".\n${1}")
	out = brokenSentence.ReplaceAllString(out, "${1} ${3}")
	return strings.TrimSpace(out)
}

// RenderHTML converts a Markdown draft to HTML restricted to the output whitelist.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render draft: %w", err)
	}
	return SanitizeOutput(buf.String()), nil
}
