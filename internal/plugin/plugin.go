package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/amirbrooks/taskorg/internal/log"
	"github.com/amirbrooks/taskorg/internal/organizer"
	"github.com/amirbrooks/taskorg/internal/store"
)

const CommandOrganizeTasks = "organize-tasks"

// Position is a zero-based line/column pair.
type Position struct {
	Line   int
	Column int
}

// Editor is the document surface the plugin edits.
type Editor interface {
	Text() (string, error)
	Cursor() Position
	ReplaceAll(text string) error
	SetCursor(pos Position)
}

// Host supplies the active editor and change notifications.
type Host interface {
	ActiveEditor() (Editor, bool)
	OnChange(fn func(ctx context.Context)) (unsubscribe func())
}

type Command struct {
	ID   string
	Name string
	Run  func(ctx context.Context, ed Editor) error
}

type Plugin struct {
	logger log.Logger

	mu          sync.Mutex
	settings    store.Settings
	host        Host
	unsubscribe func()

	commands []Command
}

func New(logger log.Logger, settings store.Settings) *Plugin {
	if logger == nil {
		logger = log.NewNop()
	}
	p := &Plugin{logger: logger, settings: settings}
	p.commands = append(p.commands, Command{
		ID:   CommandOrganizeTasks,
		Name: "Organize Tasks",
		Run: func(ctx context.Context, ed Editor) error {
			_, err := p.OrganizeTasks(ctx, ed)
			return err
		},
	})
	return p
}

// Load attaches the plugin to host. The on-change hook is registered only
// while organizerOnSave is enabled.
func (p *Plugin) Load(host Host) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.host = host
	p.syncHookLocked()
}

func (p *Plugin) Unload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
	p.host = nil
}

func (p *Plugin) Settings() store.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

// UpdateSettings swaps the settings and re-evaluates the on-change hook.
func (p *Plugin) UpdateSettings(s store.Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = s
	p.syncHookLocked()
}

func (p *Plugin) syncHookLocked() {
	if p.host == nil {
		return
	}
	switch {
	case p.settings.OrganizerOnSave && p.unsubscribe == nil:
		p.unsubscribe = p.host.OnChange(p.onChange)
	case !p.settings.OrganizerOnSave && p.unsubscribe != nil:
		p.unsubscribe()
		p.unsubscribe = nil
	}
}

// Hooked reports whether the on-change hook is registered.
func (p *Plugin) Hooked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unsubscribe != nil
}

func (p *Plugin) onChange(ctx context.Context) {
	p.mu.Lock()
	host := p.host
	p.mu.Unlock()
	if host == nil {
		return
	}
	ed, ok := host.ActiveEditor()
	if !ok {
		return
	}
	if _, err := p.OrganizeTasks(ctx, ed); err != nil {
		p.logger.Errorf(ctx, "organize on change: %v", err)
	}
}

func (p *Plugin) Commands() []Command {
	out := make([]Command, len(p.commands))
	copy(out, p.commands)
	return out
}

// Execute runs the command with the given id against ed.
func (p *Plugin) Execute(ctx context.Context, id string, ed Editor) error {
	for _, c := range p.commands {
		if c.ID == id {
			return c.Run(ctx, ed)
		}
	}
	return fmt.Errorf("%w: command %q", store.ErrNotFound, id)
}

// Transform applies the reorganizer selected by the current settings.
func (p *Plugin) Transform(content string) string {
	if p.Settings().KeepSubtasksWithParent {
		return organizer.Organize(content)
	}
	return organizer.OrganizeDetached(content)
}

// OrganizeTasks rewrites the editor's text when reorganizing changes it and
// puts the cursor back where it was. It reports whether an edit was made.
func (p *Plugin) OrganizeTasks(ctx context.Context, ed Editor) (bool, error) {
	ctx = log.WithRunID(ctx, store.NewID())

	content, err := ed.Text()
	if err != nil {
		return false, err
	}
	organized := p.Transform(content)
	if organized == content {
		p.logger.Debug(ctx, "tasks already organized")
		return false, nil
	}

	cursor := ed.Cursor()
	if err := ed.ReplaceAll(organized); err != nil {
		return false, err
	}
	ed.SetCursor(cursor)

	stats := organizer.CountTasks(organized)
	p.logger.Infof(ctx, "organized %d tasks (%d pending, %d completed)", stats.Total, stats.Pending, stats.Completed)
	return true, nil
}
