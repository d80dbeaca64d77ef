package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/SeptianSamdany/interview-prep-ai/internal/apperr"
)

// previewLen bounds how much raw model text ends up in diagnostics.
const previewLen = 120

var (
	leadingFence  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("(?i)```\\s*$")
)

// Extract recovers a JSON array or object from raw model text that may be
// wrapped in markdown fences or surrounded by prose. The returned value is the
// located span, verified to be valid JSON. Nothing inside the span is repaired.
func Extract(raw string) (json.RawMessage, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = leadingFence.ReplaceAllString(cleaned, "")
	cleaned = trailingFence.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	spans := locateSpans(cleaned)
	if len(spans) == 0 {
		return nil, malformed(raw, fmt.Errorf("no JSON array or object found"))
	}

	var firstErr error
	for _, span := range spans {
		var out json.RawMessage
		err := json.Unmarshal([]byte(span), &out)
		if err == nil {
			return out, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, malformed(raw, firstErr)
}

// locateSpans returns the outermost bracketed regions in order of preference.
// The array span comes first unless an object span strictly encloses it; the
// array is then tried second, for prose braces that happen to surround it.
func locateSpans(s string) []string {
	arrStart, arrEnd := strings.Index(s, "["), strings.LastIndex(s, "]")
	objStart, objEnd := strings.Index(s, "{"), strings.LastIndex(s, "}")

	hasArr := arrStart != -1 && arrEnd > arrStart
	hasObj := objStart != -1 && objEnd > objStart

	switch {
	case hasArr && hasObj && objStart < arrStart && objEnd > arrEnd:
		return []string{s[objStart : objEnd+1], s[arrStart : arrEnd+1]}
	case hasArr:
		return []string{s[arrStart : arrEnd+1]}
	case hasObj:
		return []string{s[objStart : objEnd+1]}
	}
	return nil
}

func malformed(raw string, cause error) *apperr.Error {
	return apperr.Wrap(apperr.KindMalformedResponse, "AI response parsing error", cause).
		WithDetail(Preview(raw))
}

// Preview describes raw text for logs: its length and a bounded head and tail.
func Preview(raw string) string {
	runes := []rune(raw)
	if len(runes) <= 2*previewLen {
		return fmt.Sprintf("len=%d text=%q", len(raw), raw)
	}
	head := string(runes[:previewLen])
	tail := string(runes[len(runes)-previewLen:])
	return fmt.Sprintf("len=%d head=%q tail=%q", len(raw), head, tail)
}
