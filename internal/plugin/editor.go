package plugin

import (
	"strings"
	"sync"

	"github.com/amirbrooks/taskorg/internal/store"
)

// FileEditor edits a document on disk. The cursor lives in memory only.
type FileEditor struct {
	Path string

	mu     sync.Mutex
	cursor Position
	last   string
}

func NewFileEditor(path string) *FileEditor {
	return &FileEditor{Path: path}
}

func (e *FileEditor) Text() (string, error) {
	text, err := store.ReadDocument(e.Path)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	e.last = text
	e.mu.Unlock()
	return text, nil
}

func (e *FileEditor) ReplaceAll(text string) error {
	if err := store.WriteDocument(e.Path, text); err != nil {
		return err
	}
	e.mu.Lock()
	e.last = text
	e.mu.Unlock()
	return nil
}

func (e *FileEditor) Cursor() Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// SetCursor clamps pos to the text last read or written.
func (e *FileEditor) SetCursor(pos Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursor = clamp(e.last, pos)
}

// BufferEditor edits an in-memory document.
type BufferEditor struct {
	text   string
	cursor Position
}

func NewBufferEditor(text string) *BufferEditor {
	return &BufferEditor{text: text}
}

func (e *BufferEditor) Text() (string, error) { return e.text, nil }

func (e *BufferEditor) ReplaceAll(text string) error {
	e.text = text
	return nil
}

func (e *BufferEditor) Cursor() Position { return e.cursor }

func (e *BufferEditor) SetCursor(pos Position) { e.cursor = clamp(e.text, pos) }

func clamp(text string, pos Position) Position {
	lines := strings.Split(text, "\n")
	if pos.Line < 0 {
		pos.Line = 0
	}
	if pos.Line > len(lines)-1 {
		pos.Line = len(lines) - 1
	}
	if pos.Column < 0 {
		pos.Column = 0
	}
	if n := len(lines[pos.Line]); pos.Column > n {
		pos.Column = n
	}
	return pos
}
