package organizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// space is \s widened to Unicode whitespace.
const space = `[\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}]`

// TaskLinePattern captures indent, checkbox state and text.
// Example: "  - [x] Ship it" -> ["  ", "x", "Ship it"]
const TaskLinePattern = `^(` + space + `*)-` + space + `+\[([ xX])\]` + space + `+(.*)$`

var taskLineRe = regexp.MustCompile(TaskLinePattern)

type TaskLine struct {
	Indent    int // leading whitespace, in runes
	Completed bool
	Text      string
}

// Block is a task line plus the lines it owns. Lines[0] is the task line.
type Block struct {
	Task  TaskLine
	Lines []string
}

// Group holds every block sharing one exact indent.
type Group struct {
	Indent     int
	Incomplete []Block
	Completed  []Block
}

// Document is the parsed layout of a text: plain lines not owned by any
// block, followed by the indent groups in first-seen order.
type Document struct {
	Plain  []string
	Groups []*Group
}

// ParseTaskLine classifies a single line.
func ParseTaskLine(line string) (TaskLine, bool) {
	m := taskLineRe.FindStringSubmatch(line)
	if m == nil {
		return TaskLine{}, false
	}
	return TaskLine{
		Indent:    utf8.RuneCountInString(m[1]),
		Completed: strings.EqualFold(m[2], "x"),
		Text:      m[3],
	}, true
}

// Organize moves incomplete task blocks ahead of completed ones at every
// indent. Nested task lines travel with their parent block.
func Organize(content string) string {
	return Parse(content).String()
}

// OrganizeDetached is Organize without nesting: every task line forms its own
// block, so subtasks are grouped by their own indent instead of their parent.
func OrganizeDetached(content string) string {
	return ParseDetached(content).String()
}

func Parse(content string) *Document {
	return parse(content, ownsNested)
}

func ParseDetached(content string) *Document {
	return parse(content, ownsNone)
}

// ownership reports whether an open block whose task line is parent absorbs
// the following task line next.
type ownership func(parent, next TaskLine) bool

func ownsNested(parent, next TaskLine) bool { return next.Indent > parent.Indent }

func ownsNone(parent, next TaskLine) bool { return false }

func parse(content string, owns ownership) *Document {
	lines := strings.Split(content, "\n")
	doc := &Document{}
	byIndent := map[int]*Group{}

	for i := 0; i < len(lines); {
		task, ok := ParseTaskLine(lines[i])
		if !ok {
			doc.Plain = append(doc.Plain, lines[i])
			i++
			continue
		}

		end := i + 1
		for end < len(lines) {
			next, isTask := ParseTaskLine(lines[end])
			if isTask && !owns(task, next) {
				break
			}
			end++
		}

		g, ok := byIndent[task.Indent]
		if !ok {
			g = &Group{Indent: task.Indent}
			byIndent[task.Indent] = g
			doc.Groups = append(doc.Groups, g)
		}
		block := Block{Task: task, Lines: lines[i:end:end]}
		if task.Completed {
			g.Completed = append(g.Completed, block)
		} else {
			g.Incomplete = append(g.Incomplete, block)
		}
		i = end
	}
	return doc
}

// Lines returns the reassembled document: plain lines first, then each group
// with its incomplete blocks before its completed blocks.
func (d *Document) Lines() []string {
	out := make([]string, 0, len(d.Plain))
	out = append(out, d.Plain...)
	for _, g := range d.Groups {
		for _, b := range g.Incomplete {
			out = append(out, b.Lines...)
		}
		for _, b := range g.Completed {
			out = append(out, b.Lines...)
		}
	}
	return out
}

func (d *Document) String() string {
	return strings.Join(d.Lines(), "\n")
}

// Stats counts checklist lines.
type Stats struct {
	Total     int
	Completed int
	Pending   int
}

func CountTasks(content string) Stats {
	var s Stats
	for _, line := range strings.Split(content, "\n") {
		task, ok := ParseTaskLine(line)
		if !ok {
			continue
		}
		s.Total++
		if task.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}
