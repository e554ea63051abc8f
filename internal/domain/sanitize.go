package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// MinDescriptionLength is the minimum sanitized description length in runes.
	MinDescriptionLength = 10

	// MaxInputLength bounds every sanitized input field, in runes.
	MaxInputLength = 2000
)

//nolint:gochecknoglobals // compiled once, read-only
var (
	disallowedInput = regexp.MustCompile(`[^\p{L}\p{N}\s.,;:()\-'"@/\\#%&+=*~<>^{}|_$!?]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)

	// Only paragraph, line-break and list markup survive output sanitization.
	outputPolicy = bluemonday.NewPolicy().AllowElements("p", "br", "ul", "ol", "li")
)

// SanitizeInput strips characters outside the whitelist, collapses whitespace,
// trims and bounds the result to MaxInputLength runes.
func SanitizeInput(text string) string {
	cleaned := disallowedInput.ReplaceAllString(text, "")
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if utf8.RuneCountInString(cleaned) > MaxInputLength {
		cleaned = string([]rune(cleaned)[:MaxInputLength])
	}

	return cleaned
}

// SanitizeOutput removes all markup except the safe tag whitelist. The result
// is an HTML fragment: text characters such as quotes, ampersands and angle
// brackets come back entity-escaped (`"` becomes `&#34;`), so plain-text
// consumers should pass it through html.UnescapeString. Applying it twice
// yields the same string as applying it once.
func SanitizeOutput(text string) string {
	return outputPolicy.Sanitize(text)
}

// NormalizeRequest sanitizes every field of req, applies defaults to the
// optional ones and enforces the description length bound.
func NormalizeRequest(req *DraftRequest) (*DraftRequest, error) {
	if req == nil {
		return nil, &ValidationError{Field: "request", Reason: "request cannot be nil"}
	}

	description := SanitizeInput(req.Description)
	if description == "" || utf8.RuneCountInString(description) < MinDescriptionLength {
		return nil, &ValidationError{
			Field:  "description",
			Reason: "input is too short or contains invalid characters after sanitization",
		}
	}

	return &DraftRequest{
		Description:   description,
		InventionType: withDefault(SanitizeInput(req.InventionType), DefaultInventionType),
		TechField:     withDefault(SanitizeInput(req.TechField), DefaultTechField),
		KeyFeatures:   withDefault(SanitizeInput(req.KeyFeatures), DefaultKeyFeatures),
	}, nil
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
