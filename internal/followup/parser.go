package followup

import (
	"encoding/json"
	"strings"
)

// Strategy extracts a follow-up from raw model output. ok reports whether the
// strategy recognised the text; a recognised text may still yield an empty
// Result.
type Strategy func(text string) (res Result, ok bool)

// DefaultStrategies is the order Parse tries.
var DefaultStrategies = []Strategy{
	wholeJSON,
	fencedJSON,
	embeddedJSON,
	lineScan,
}

// Parse runs the strategies in order; the first that recognises the text wins.
func Parse(text string) Result {
	return ParseWith(text, DefaultStrategies)
}

func ParseWith(text string, strategies []Strategy) Result {
	for _, s := range strategies {
		if res, ok := s(text); ok {
			return res
		}
	}
	return Result{}
}

func wholeJSON(text string) (Result, bool) {
	return decodeObject(strings.TrimSpace(text))
}

// fencedJSON reads the first ``` block anywhere in the text. The language tag
// is optional and an unclosed fence runs to the end of the text.
func fencedJSON(text string) (Result, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return Result{}, false
	}
	body := text[start+3:]
	body = strings.TrimLeft(body, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return decodeObject(strings.TrimSpace(body))
}

func embeddedJSON(text string) (Result, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Result{}, false
	}
	return decodeObject(text[start : end+1])
}

// lineScan takes the last line ending in "?" as the question and the first
// other non-brace line as the reason. Both must be present.
func lineScan(text string) (Result, bool) {
	var question, reason string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasSuffix(line, "?"):
			question = line
		case line != "" && !strings.HasPrefix(line, "{") && !strings.HasPrefix(line, "}"):
			if reason == "" {
				reason = line
			}
		}
	}
	if question == "" || reason == "" {
		return Result{}, false
	}
	return Result{Question: question, Reason: reason}, true
}

func decodeObject(s string) (Result, bool) {
	if !strings.HasPrefix(s, "{") {
		return Result{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return Result{}, false
	}

	// Both keys must hold strings; null counts as missing.
	var question, reason *string
	rawQ, okQ := fields["question"]
	rawR, okR := fields["reason"]
	if !okQ || !okR {
		return Result{}, false
	}
	if json.Unmarshal(rawQ, &question) != nil || json.Unmarshal(rawR, &reason) != nil {
		return Result{}, false
	}
	if question == nil || reason == nil {
		return Result{}, false
	}
	return normalize(*question, *reason), true
}

func normalize(question, reason string) Result {
	question = strings.TrimSpace(question)
	if question == "" {
		return Result{}
	}
	if !strings.HasSuffix(question, "?") {
		question += "?"
	}
	return Result{Question: question, Reason: strings.TrimSpace(reason)}
}
