package valueobjects

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// SectionKind is the content kind accepted when appending a section.
type SectionKind string

const (
	SectionString       SectionKind = "STRING"
	SectionInteger      SectionKind = "INTEGER"
	SectionImage        SectionKind = "IMAGE"
	SectionTransclusion SectionKind = "TRANSCLUSION"
)

// ParseSectionKind validates a section kind name, case-insensitively.
func ParseSectionKind(s string) (SectionKind, error) {
	switch k := SectionKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case SectionString, SectionInteger, SectionImage, SectionTransclusion:
		return k, nil
	}
	return "", fmt.Errorf("unknown section kind %q", s)
}

// ContentType returns the stored content type a section of this kind becomes.
func (k SectionKind) ContentType() ContentType {
	switch k {
	case SectionInteger:
		return ContentInteger
	case SectionImage:
		return ContentImage
	case SectionTransclusion:
		return ContentTranscluded
	default:
		return ContentString
	}
}

// ContentType is the backend's name for a stored content node.
type ContentType string

const (
	ContentString      ContentType = "StringContent"
	ContentInteger     ContentType = "IntegerContent"
	ContentImage       ContentType = "ImageContent"
	ContentTranscluded ContentType = "TranscludedContent"
)

// Kind maps a content type onto the short style key used by graph views.
// Unrecognised types map to "default".
func (t ContentType) Kind() string {
	switch t {
	case ContentString:
		return "string"
	case ContentInteger:
		return "integer"
	case ContentImage:
		return "image"
	case ContentTranscluded:
		return "transcluded"
	default:
		return "default"
	}
}

// Display renders a content value as text: strings as-is, anything else as
// compact JSON.
func Display(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return canonicalJSON(value)
}

// Preview renders a value and cuts it to at most limit runes, marking the cut
// with "...".
func Preview(value any, limit int) string {
	s := Display(value)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}

// ContentKey identifies a piece of content by type and value so that the same
// content reached through different links collapses into one graph node.
func ContentKey(t string, value any) string {
	return t + "-" + canonicalJSON(value)
}

func canonicalJSON(value any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return fmt.Sprint(value)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
