package ai

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/SeptianSamdany/interview-prep-ai/internal/apperr"
)

const pairsJSON = `[{"question":"What is an index?","answer":"A data structure..."},{"question":"What is a join?","answer":"Combines rows."}]`

func TestExtractFencedArray(t *testing.T) {
	cases := map[string]string{
		"json tag":        "```json\n" + pairsJSON + "\n```",
		"upper json tag":  "```JSON\n" + pairsJSON + "\n```",
		"untagged":        "```\n" + pairsJSON + "\n```",
		"no fences":       pairsJSON,
		"padded":          "\n\n   " + pairsJSON + "   \n",
		"fence no spaces": "```json" + pairsJSON + "```",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Extract(raw)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if string(got) != pairsJSON {
				t.Fatalf("got %s", got)
			}
		})
	}
}

func TestExtractObjectSurroundedByProse(t *testing.T) {
	obj := `{"title":"Indexes","explanation":"An index speeds up lookups."}`
	raw := "Sure! Here is the explanation you asked for:\n" + obj + "\nLet me know if you need more."

	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(got) != obj {
		t.Fatalf("got %s", got)
	}
}

func TestExtractObjectWithNestedArray(t *testing.T) {
	obj := `{"title":"Slices","explanation":"Use s[1:3] to take a window.","tags":["go"]}`
	raw := "Result: " + obj

	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(got) != obj {
		t.Fatalf("got %s", got)
	}
}

func TestExtractArrayOfObjectsPrefersArray(t *testing.T) {
	raw := "Here are your questions:\n" + pairsJSON + "\nGood luck!"

	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	var items []map[string]string
	if err := json.Unmarshal(got, &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(items) != 2 || items[0]["question"] != "What is an index?" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestExtractArrayInsideProseBraces(t *testing.T) {
	raw := "Each item has the shape {question, answer}.\n" + pairsJSON + "\nHope that helps {:}"

	got, err := Extract(raw)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if string(got) != pairsJSON {
		t.Fatalf("got %s", got)
	}

	pairs, err := parsePairs(raw)
	if err != nil || len(pairs) != 2 {
		t.Fatalf("parsePairs = %d pairs, %v", len(pairs), err)
	}
}

func TestExtractFailures(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"prose only":       "I cannot help with that request.",
		"reversed":         "] nothing here [",
		"truncated array":  `[{"question":"What is an index?","answer":"A data`,
		"invalid in span":  `[{"question": "x", "answer": }]`,
		"trailing garbage": `{"title":"a","explanation":"b",}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Extract(raw)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, apperr.MalformedResponse) {
				t.Fatalf("expected MalformedResponse, got %v", err)
			}
		})
	}
}

func TestMalformedDetailIsBounded(t *testing.T) {
	raw := "[" + strings.Repeat("x", 10_000)

	_, err := Extract(raw)

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	if len(ae.Detail) > 4*previewLen {
		t.Fatalf("detail too long: %d", len(ae.Detail))
	}
	if !strings.Contains(ae.Detail, "len=10001") {
		t.Fatalf("detail missing length: %q", ae.Detail)
	}
}
