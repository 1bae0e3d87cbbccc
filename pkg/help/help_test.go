package help

import (
	"strings"
	"testing"
)

func TestQUICKREFNonEmpty(t *testing.T) {
	if len(QUICKREF) == 0 {
		t.Fatal("QUICKREF is empty")
	}
}

func TestQUICKREFContainsVersion(t *testing.T) {
	if !strings.Contains(QUICKREF, "v0.1") {
		t.Error("QUICKREF does not contain version string v0.1")
	}
}

func TestQUICKREFListsTopics(t *testing.T) {
	for _, topic := range TopicList {
		if !strings.Contains(QUICKREF, topic) {
			t.Errorf("QUICKREF does not mention topic %q", topic)
		}
	}
}

func TestTopicListMatchesTopics(t *testing.T) {
	for _, name := range TopicList {
		if _, ok := Topics[name]; !ok {
			t.Errorf("TopicList entry %q not in Topics map", name)
		}
	}
	if len(Topics) != len(TopicList) {
		t.Errorf("expected %d topics, got %d", len(TopicList), len(Topics))
	}
}

func TestTopicsNonEmpty(t *testing.T) {
	for name, content := range Topics {
		if len(content) == 0 {
			t.Errorf("topic %q has empty content", name)
		}
	}
}

func TestDiagnosticsTopicListsCodes(t *testing.T) {
	for _, code := range []string{"E_LEX", "E_UNTERMINATED", "E_PARSE", "E_DUP_ARG", "E_CONFIG"} {
		if !strings.Contains(Topics["diagnostics"], code) {
			t.Errorf("diagnostics topic does not mention %s", code)
		}
	}
}

func TestMatchTopicExact(t *testing.T) {
	name, content, err := MatchTopic("parse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "parse" {
		t.Errorf("expected name 'parse', got %q", name)
	}
	if content == "" {
		t.Error("expected non-empty content")
	}
}

func TestMatchTopicPrefix(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"diag", "diagnostics"},
		{"ex", "examples"},
		{"st", "states"},
		{"TOK", "tokens"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			name, _, err := MatchTopic(tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != tt.want {
				t.Errorf("expected %q, got %q", tt.want, name)
			}
		})
	}
}

func TestMatchTopicAmbiguousPrefix(t *testing.T) {
	_, _, err := MatchTopic("c")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected ambiguous error, got %v", err)
	}
}

func TestMatchTopicUnknown(t *testing.T) {
	_, _, err := MatchTopic("nonexistent")
	if err == nil {
		t.Error("expected error for unknown topic")
	}
}

func TestMatchTopicSuggests(t *testing.T) {
	_, _, err := MatchTopic("tkns")
	if err == nil {
		t.Fatal("expected error for misspelled topic")
	}
	if !strings.Contains(err.Error(), "did you mean 'tokens'") {
		t.Errorf("expected a suggestion, got %v", err)
	}
}

func TestSuggest(t *testing.T) {
	commands := []string{"tokens", "parse", "check", "repl", "config", "help"}
	if got := Suggest("prse", commands); got != "parse" {
		t.Errorf("Suggest(prse) = %q", got)
	}
	for _, typo := range []string{"prase", "PRASE", "tokesn", "chekc"} {
		got := Suggest(typo, commands)
		if got == "" {
			t.Errorf("Suggest(%s) found nothing", typo)
		}
	}
	if got := Suggest("prase", commands); got != "parse" {
		t.Errorf("Suggest(prase) = %q", got)
	}
	if got := Suggest("tokesn", commands); got != "tokens" {
		t.Errorf("Suggest(tokesn) = %q", got)
	}
	if got := Suggest("zzz", commands); got != "" {
		t.Errorf("Suggest(zzz) = %q, want none", got)
	}
	if got := Suggest("", commands); got != "" {
		t.Errorf("Suggest(\"\") = %q, want none", got)
	}
}

func TestStatesIndex(t *testing.T) {
	idx := StatesIndex()
	for _, s := range []string{"line_begin", "expr_beg", "expr_endfn", "string_body", "Total: 14 states"} {
		if !strings.Contains(idx, s) {
			t.Errorf("StatesIndex missing %q:\n%s", s, idx)
		}
	}
}

func TestMatchTopicAllExact(t *testing.T) {
	for _, topic := range TopicList {
		name, content, err := MatchTopic(topic)
		if err != nil {
			t.Errorf("MatchTopic(%q) error: %v", topic, err)
			continue
		}
		if name != topic {
			t.Errorf("MatchTopic(%q) returned name %q", topic, name)
		}
		if content == "" {
			t.Errorf("MatchTopic(%q) returned empty content", topic)
		}
	}
}
