package flow

import (
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"wrapped in prose", `Sure! Here you go: {"a": 1} Hope that helps.`, `{"a": 1}`},
		{"code fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"no JSON", "I cannot answer that.", ""},
		{"only open brace", "{ broken", ""},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.response); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.response, got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		IssueType  string  `json:"issue_type"`
		Confidence float64 `json:"confidence"`
	}

	t.Run("valid", func(t *testing.T) {
		var p payload
		err := decodeJSON(`The classification: {"issue_type": "login_failure", "confidence": 0.9}`, &p)
		if err != nil {
			t.Fatal(err)
		}
		if p.IssueType != "login_failure" || p.Confidence != 0.9 {
			t.Errorf("decoded = %+v", p)
		}
	})

	t.Run("no JSON present", func(t *testing.T) {
		var p payload
		if err := decodeJSON("no structure here", &p); err == nil {
			t.Error("want error for missing JSON")
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		var p payload
		if err := decodeJSON(`{"issue_type": `, &p); err == nil {
			t.Error("want error for malformed JSON")
		}
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"under limit", "short", 10, "short"},
		{"at limit", "exact", 5, "exact"},
		{"over limit", "overflowing", 4, "over..."},
		{"multibyte safe", "héllo wörld", 5, "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
