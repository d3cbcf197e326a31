package organizer

import (
	"math/rand"
	"sort"
	"strings"
	"testing"
)

func TestOrganize(t *testing.T) {
	tests := map[string]struct {
		input string
		want  string
	}{
		"incomplete_before_completed": {
			input: "- [ ] A\n- [x] B\n- [ ] C",
			want:  "- [ ] A\n- [ ] C\n- [x] B",
		},
		"continuation_travels_with_task": {
			input: "- [x] Done\n  note\n- [ ] Pending",
			want:  "- [ ] Pending\n- [x] Done\n  note",
		},
		"no_tasks": {
			input: "# Title\n\nSome prose.\n- a bullet\n",
			want:  "# Title\n\nSome prose.\n- a bullet\n",
		},
		"nested_completed_stays_with_parent": {
			input: "- [ ] A\n  - [x] A1\n- [x] B",
			want:  "- [ ] A\n  - [x] A1\n- [x] B",
		},
		"nested_block_moves_whole": {
			input: "- [x] A\n  - [ ] A1\n  - [x] A2\n- [ ] B",
			want:  "- [ ] B\n- [x] A\n  - [ ] A1\n  - [x] A2",
		},
		"uppercase_marker_is_completed": {
			input: "- [X] A\n- [ ] B",
			want:  "- [ ] B\n- [X] A",
		},
		"preamble_kept_on_top": {
			input: "# Today\n\n- [x] A\n- [ ] B\n",
			want:  "# Today\n\n- [ ] B\n\n- [x] A",
		},
		"trailing_newline_owned_by_last_block": {
			input: "- [ ] A\n- [x] B\n",
			want:  "- [ ] A\n- [x] B\n",
		},
		"prose_after_tasks_is_owned": {
			input: "- [x] A\nsome prose\n- [ ] B",
			want:  "- [ ] B\n- [x] A\nsome prose",
		},
		"shallower_block_after_deeper": {
			input: "  - [x] a\n  - [ ] b\n- [x] c\n- [ ] d",
			want:  "  - [ ] b\n  - [x] a\n- [ ] d\n- [x] c",
		},
		"tabs_are_not_normalised": {
			input: "\t- [x] tab\n  - [ ] spaces",
			want:  "\t- [x] tab\n  - [ ] spaces",
		},
		"no_break_space_indent": {
			input: "\u00a0- [x] A\n\u00a0- [ ] B",
			want:  "\u00a0- [ ] B\n\u00a0- [x] A",
		},
		"ideographic_space_indent": {
			input: "\u3000- [x] A\n\u3000- [ ] B",
			want:  "\u3000- [ ] B\n\u3000- [x] A",
		},
		"vertical_tab_indent": {
			input: "\v- [x] A\n\v- [ ] B",
			want:  "\v- [ ] B\n\v- [x] A",
		},
		"unicode_indent_nests_by_rune_count": {
			input: "- [x] A\n\u00a0\u00a0- [ ] A1\n- [ ] B",
			want:  "- [ ] B\n- [x] A\n\u00a0\u00a0- [ ] A1",
		},
		"crlf_lines_keep_carriage_return": {
			input: "- [x] A\r\n- [ ] B\r\n- [x] C",
			want:  "- [ ] B\r\n- [x] A\r\n- [x] C",
		},
		"empty_text_after_marker": {
			input: "- [x] \n- [ ] B",
			want:  "- [ ] B\n- [x] ",
		},
		"not_a_task": {
			input: "- [x]no space\n-[ ] no dash space\n* [ ] star",
			want:  "- [x]no space\n-[ ] no dash space\n* [ ] star",
		},
		"empty_document": {
			input: "",
			want:  "",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := Organize(tc.input)
			if got != tc.want {
				t.Fatalf("Organize(%q)\n got: %q\nwant: %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestOrganizeDetached(t *testing.T) {
	tests := map[string]struct {
		input string
		want  string
	}{
		"subtasks_leave_parent": {
			input: "- [ ] A\n  - [x] A1\n  - [ ] A2\n- [x] B",
			want:  "- [ ] A\n- [x] B\n  - [ ] A2\n  - [x] A1",
		},
		"continuation_still_owned": {
			input: "- [x] Done\n  note\n- [ ] Pending",
			want:  "- [ ] Pending\n- [x] Done\n  note",
		},
		"flat_list_matches_nested_mode": {
			input: "- [ ] A\n- [x] B\n- [ ] C",
			want:  "- [ ] A\n- [ ] C\n- [x] B",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := OrganizeDetached(tc.input)
			if got != tc.want {
				t.Fatalf("OrganizeDetached(%q)\n got: %q\nwant: %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseTaskLine(t *testing.T) {
	tests := map[string]struct {
		line   string
		ok     bool
		indent int
		done   bool
		text   string
	}{
		"open":          {line: "- [ ] buy milk", ok: true, text: "buy milk"},
		"done_lower":    {line: "- [x] buy milk", ok: true, done: true, text: "buy milk"},
		"done_upper":    {line: "    - [X] deep", ok: true, indent: 4, done: true, text: "deep"},
		"tab_indent":    {line: "\t\t- [ ] tabbed", ok: true, indent: 2, text: "tabbed"},
		"wide_spacing":  {line: "-   [ ]   spaced", ok: true, text: "spaced"},
		"nbsp_indent":   {line: "\u00a0\u00a0- [x] nb", ok: true, indent: 2, done: true, text: "nb"},
		"cjk_indent":    {line: "\u3000- [ ] wide", ok: true, indent: 1, text: "wide"},
		"vt_indent":     {line: "\v- [ ] vt", ok: true, indent: 1, text: "vt"},
		"nbsp_after":    {line: "-\u00a0[ ]\u00a0text", ok: true, text: "text"},
		"crlf":          {line: "- [x] A\r", ok: true, done: true, text: "A\r"},
		"other_marker":  {line: "- [-] cancelled", ok: false},
		"no_space":      {line: "- [ ]", ok: false},
		"plain_bullet":  {line: "- item", ok: false},
		"blank":         {line: "", ok: false},
		"prefixed_text": {line: "x - [ ] nope", ok: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseTaskLine(tc.line)
			if ok != tc.ok {
				t.Fatalf("ParseTaskLine(%q) ok = %v, want %v", tc.line, ok, tc.ok)
			}
			if !ok {
				return
			}
			if got.Indent != tc.indent || got.Completed != tc.done || got.Text != tc.text {
				t.Fatalf("ParseTaskLine(%q) = %+v", tc.line, got)
			}
		})
	}
}

func TestParseGroupsByFirstSeenIndent(t *testing.T) {
	doc := Parse("intro\n    - [x] a\n  - [ ] b\n- [x] c\n  more\n- [ ] d")
	if len(doc.Plain) != 1 || doc.Plain[0] != "intro" {
		t.Fatalf("unexpected plain lines: %#v", doc.Plain)
	}
	wantIndents := []int{4, 2, 0}
	if len(doc.Groups) != len(wantIndents) {
		t.Fatalf("expected %d groups, got %d", len(wantIndents), len(doc.Groups))
	}
	for i, g := range doc.Groups {
		if g.Indent != wantIndents[i] {
			t.Fatalf("group %d indent = %d, want %d", i, g.Indent, wantIndents[i])
		}
	}
	top := doc.Groups[2]
	if len(top.Incomplete) != 1 || len(top.Completed) != 1 {
		t.Fatalf("unexpected top group: %+v", top)
	}
	if got := strings.Join(top.Completed[0].Lines, "|"); got != "- [x] c|  more" {
		t.Fatalf("unexpected completed block lines: %q", got)
	}
}

func TestCountTasks(t *testing.T) {
	s := CountTasks("# h\n- [ ] a\n  - [x] b\n- [X] c\nprose")
	if s.Total != 3 || s.Completed != 2 || s.Pending != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

var sampleLines = []string{
	"",
	"# Heading",
	"prose line",
	"- plain bullet",
	"- [ ] open",
	"- [x] done",
	"- [X] DONE",
	"  - [ ] open child",
	"  - [x] done child",
	"  continuation",
	"    - [ ] grandchild",
	"    - [x] done grandchild",
	"\t- [ ] tab child",
	"```",
}

func randomDocs(n int) []string {
	r := rand.New(rand.NewSource(42))
	docs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		size := r.Intn(14)
		lines := make([]string, size)
		for j := range lines {
			// Suffix keeps lines distinguishable for order checks.
			lines[j] = sampleLines[r.Intn(len(sampleLines))]
			if lines[j] != "" {
				lines[j] += " #" + string(rune('a'+j))
			}
		}
		docs = append(docs, strings.Join(lines, "\n"))
	}
	return docs
}

func sortedLines(s string) []string {
	lines := strings.Split(s, "\n")
	sort.Strings(lines)
	return lines
}

func checkProperties(t *testing.T, name string, fn func(string) string, parse func(string) *Document) {
	t.Helper()
	for _, doc := range randomDocs(500) {
		once := fn(doc)
		if twice := fn(once); twice != once {
			t.Fatalf("%s not idempotent for %q:\nonce:  %q\ntwice: %q", name, doc, once, twice)
		}

		in, out := sortedLines(doc), sortedLines(once)
		if strings.Join(in, "\n") != strings.Join(out, "\n") {
			t.Fatalf("%s changed the line multiset for %q -> %q", name, doc, once)
		}

		// Within each group, block order and incomplete-before-completed
		// must be visible in the output.
		outLines := strings.Split(once, "\n")
		pos := map[string]int{}
		for i, l := range outLines {
			pos[l] = i
		}
		for _, g := range parse(doc).Groups {
			last := -1
			for _, b := range append(append([]Block{}, g.Incomplete...), g.Completed...) {
				p, ok := pos[b.Lines[0]]
				if !ok {
					t.Fatalf("%s lost block %q", name, b.Lines[0])
				}
				if p < last {
					t.Fatalf("%s misordered group %d in %q -> %q", name, g.Indent, doc, once)
				}
				last = p
			}
		}
	}
}

func TestOrganizeProperties(t *testing.T) {
	checkProperties(t, "Organize", Organize, Parse)
}

func TestOrganizeDetachedProperties(t *testing.T) {
	checkProperties(t, "OrganizeDetached", OrganizeDetached, ParseDetached)
}

func TestOrganizeAlreadyGroupedIsNoop(t *testing.T) {
	docs := []string{
		"- [ ] a\n- [ ] b\n- [x] c",
		"# list\n- [ ] a\n  - [x] a1\n  - [ ] a2\n- [x] b\n",
		"plain only",
	}
	for _, d := range docs {
		if got := Organize(d); got != d {
			t.Fatalf("expected no-op for %q, got %q", d, got)
		}
	}
}
