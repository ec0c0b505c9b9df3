package masking

import (
	"log/slog"
	"regexp"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// builtinPatterns covers the PII shapes most likely to leak into a
// candidate transcript or an LLM's reasoning text: emails, phone
// numbers, card-like digit runs, and US SSNs. Unlike the teacher's
// MCP-result masking there is no per-server custom-pattern registry
// here — candidates and questions are not pluggable servers, so
// patterns are a fixed built-in set selected by pattern group.
var builtinPatterns = map[string]string{
	"email":       `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`,
	"phone":       `\+?\d{1,3}[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`,
	"card_number": `\b(?:\d[ -]*?){13,19}\b`,
	"ssn":         `\b\d{3}-\d{2}-\d{4}\b`,
}

// builtinPatternGroups expands a pattern_group config name into the
// individual pattern names it activates.
var builtinPatternGroups = map[string][]string{
	"pii": {"email", "phone", "card_number", "ssn"},
}

func compileBuiltinPatterns() map[string]*CompiledPattern {
	compiled := make(map[string]*CompiledPattern, len(builtinPatterns))
	for name, pattern := range builtinPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			slog.Error("masking: failed to compile built-in pattern, skipping", "pattern", name, "error", err)
			continue
		}
		compiled[name] = &CompiledPattern{Name: name, Regex: re, Replacement: "[REDACTED:" + name + "]"}
	}
	return compiled
}
