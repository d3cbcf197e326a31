package plugin

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/amirbrooks/taskorg/internal/log"
)

const DefaultDebounce = 200 * time.Millisecond

// FileHost exposes a single FileEditor and raises change notifications when
// its file is written. Notifications are debounced and delivered sequentially
// from the Run goroutine.
type FileHost struct {
	editor   *FileEditor
	logger   log.Logger
	debounce time.Duration

	mu       sync.Mutex
	handlers map[int]func(context.Context)
	nextID   int

	ready     chan struct{}
	readyOnce sync.Once
}

func NewFileHost(logger log.Logger, editor *FileEditor, debounce time.Duration) *FileHost {
	if logger == nil {
		logger = log.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FileHost{
		editor:   editor,
		logger:   logger,
		debounce: debounce,
		handlers: map[int]func(context.Context){},
		ready:    make(chan struct{}),
	}
}

// ActiveEditor returns false while the file does not exist.
func (h *FileHost) ActiveEditor() (Editor, bool) {
	if _, err := os.Stat(h.editor.Path); err != nil {
		return nil, false
	}
	return h.editor, true
}

func (h *FileHost) OnChange(fn func(ctx context.Context)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.handlers[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.handlers, id)
	}
}

// Ready is closed once Run is watching.
func (h *FileHost) Ready() <-chan struct{} {
	return h.ready
}

func (h *FileHost) notify(ctx context.Context) {
	h.mu.Lock()
	ids := make([]int, 0, len(h.handlers))
	for id := range h.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(context.Context), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.handlers[id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}

// Run watches the editor's directory until ctx is done. Editors that save by
// rename replace the inode, so the directory is watched instead of the file.
func (h *FileHost) Run(ctx context.Context) error {
	path, err := filepath.Abs(h.editor.Path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	h.readyOnce.Do(func() { close(h.ready) })
	h.logger.Infof(ctx, "watching %s", path)

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			h.logger.Debugf(ctx, "change event %s", ev.Op)
			if timer == nil {
				timer = time.AfterFunc(h.debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(h.debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			h.logger.Warnf(ctx, "watch error: %v", err)
		case <-fire:
			h.notify(ctx)
		}
	}
}
