// Package masking redacts candidate transcripts and LLM reasoning text
// before they reach structured logs, adapted from the teacher's
// MCP-result masking service: a singleton of eagerly-compiled regex
// patterns, applied here via an slog.Handler's ReplaceAttr instead of
// per-MCP-server tool results.
package masking

import (
	"log/slog"

	"github.com/candidflow/interviewer/pkg/config"
)

// SensitiveAttrs lists the slog attribute keys this package redacts:
// any string attribute logged under one of these keys, by any package,
// has its value passed through Redact.
var SensitiveAttrs = map[string]bool{
	"answer_text": true,
	"transcript":  true,
	"reasoning":   true,
	"audio_data":  true,
}

// Service applies pattern-based redaction. Created once at startup
// (singleton). Thread-safe and stateless aside from compiled patterns.
type Service struct {
	active []*CompiledPattern
}

// NewService compiles the built-in patterns and resolves cfg's pattern
// group into the active set. If cfg.Enabled is false, the returned
// Service's Redact is a no-op (callers still route through it so
// enabling masking later needs no call-site changes).
func NewService(cfg config.MaskingConfig) *Service {
	s := &Service{}
	if !cfg.Enabled {
		slog.Info("masking service disabled")
		return s
	}

	compiled := compileBuiltinPatterns()
	names := builtinPatternGroups[cfg.PatternGroup]
	for _, name := range names {
		if cp, ok := compiled[name]; ok {
			s.active = append(s.active, cp)
		}
	}

	slog.Info("masking service initialized",
		"pattern_group", cfg.PatternGroup,
		"active_patterns", len(s.active))
	return s
}

// Redact applies every active pattern to text in order and returns the
// result. Fail-open: an empty active set (masking disabled, or an
// unknown pattern group) returns text unchanged.
func (s *Service) Redact(text string) string {
	if text == "" || len(s.active) == 0 {
		return text
	}
	masked := text
	for _, p := range s.active {
		masked = p.Regex.ReplaceAllString(masked, p.Replacement)
	}
	return masked
}

// ReplaceAttr is an slog.HandlerOptions.ReplaceAttr function that
// redacts the value of any attribute whose key is in SensitiveAttrs,
// wherever it appears in the attribute tree (top-level or nested
// within a slog.Group).
func (s *Service) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if !SensitiveAttrs[a.Key] {
		return a
	}
	if a.Value.Kind() != slog.KindString {
		return a
	}
	return slog.String(a.Key, s.Redact(a.Value.String()))
}
