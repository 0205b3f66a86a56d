package llm

import "testing"

func TestCleanJSONStripsFences(t *testing.T) {
	in := "```json\n{\"goal\": \"g\"}\n```"
	got := cleanJSON(in)
	if got != `{"goal": "g"}` {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestCleanJSONStripsLabelAndPreamble(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"json label", "json\n{\"a\": 1}", `{"a": 1}`},
		{"leading commentary", "Here is the result:\n{\"a\": 1}", `{"a": 1}`},
		{"already clean", `{"a": 1}`, `{"a": 1}`},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanJSON(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseLines(t *testing.T) {
	got := parseLines("first query\n\n  second query  \n")
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(got), got)
	}
	if got[0] != "first query" || got[1] != "second query" {
		t.Fatalf("unexpected lines: %v", got)
	}
}
