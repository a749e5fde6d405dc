package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a reply holds no parsable JSON object.
var ErrNoJSON = errors.New("model reply contains no JSON object")

// ParsedResult is the structured extraction of one document. Raw keeps the
// full decoded object, including keys outside the fixed shape.
type ParsedResult struct {
	DocumentType  string                 `json:"document_type"`
	Metadata      map[string]interface{} `json:"metadata"`
	KeyParameters map[string]interface{} `json:"key_parameters"`
	Summary       string                 `json:"summary"`
	Raw           map[string]interface{} `json:"-"`
}

// Title returns metadata.title when it is a string.
func (r ParsedResult) Title() string {
	return r.metadataString("title")
}

// Date returns metadata.date when it is a string.
func (r ParsedResult) Date() string {
	return r.metadataString("date")
}

// Author returns metadata.author when it is a string.
func (r ParsedResult) Author() string {
	return r.metadataString("author")
}

func (r ParsedResult) metadataString(key string) string {
	if v, ok := r.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// ExtractJSON returns the span from the first '{' to the last '}' of text,
// or false when there is none.
func ExtractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// ParseReply decodes a model reply. The first brace span is tried; without
// one the whole reply must be a JSON object.
func ParseReply(text string) (ParsedResult, error) {
	candidate, ok := ExtractJSON(text)
	if !ok {
		candidate = strings.TrimSpace(text)
	}
	if candidate == "" {
		return ParsedResult{}, ErrNoJSON
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return ParsedResult{}, fmt.Errorf("%w: %v", ErrNoJSON, err)
	}

	var result ParsedResult
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		// Well-formed JSON whose fields have unexpected types: keep Raw only.
		result = ParsedResult{}
	}
	result.Raw = raw
	if result.Metadata == nil {
		result.Metadata = map[string]interface{}{}
	}
	if result.KeyParameters == nil {
		result.KeyParameters = map[string]interface{}{}
	}
	return result, nil
}
