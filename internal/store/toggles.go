package store

import (
	"fmt"
	"strings"
)

// Toggle is one labelled boolean on the settings panel.
type Toggle struct {
	Key  string
	Name string
	Desc string
	Get  func(Settings) bool
	Set  func(*Settings, bool)
}

func Toggles() []Toggle {
	return []Toggle{
		{
			Key:  "organizerOnSave",
			Name: "Organize on Save",
			Desc: "Automatically organize tasks when saving the note",
			Get:  func(s Settings) bool { return s.OrganizerOnSave },
			Set:  func(s *Settings, v bool) { s.OrganizerOnSave = v },
		},
		{
			Key:  "keepSubtasksWithParent",
			Name: "Keep Subtasks with Parent",
			Desc: "Keep completed subtasks with their parent task",
			Get:  func(s Settings) bool { return s.KeepSubtasksWithParent },
			Set:  func(s *Settings, v bool) { s.KeepSubtasksWithParent = v },
		},
	}
}

// ToggleByKey matches keys case-insensitively.
func ToggleByKey(key string) (Toggle, bool) {
	key = strings.TrimSpace(key)
	for _, t := range Toggles() {
		if strings.EqualFold(t.Key, key) {
			return t, true
		}
	}
	return Toggle{}, false
}

// SetToggle flips one toggle in the stored settings and persists them. It
// returns the effective settings afterwards.
func (w *Workspace) SetToggle(key string, value bool) (Settings, error) {
	t, ok := ToggleByKey(key)
	if !ok {
		return w.settings, fmt.Errorf("%w: unknown setting %q", ErrInvalid, key)
	}
	s := w.stored
	t.Set(&s, value)
	if err := w.SaveSettings(s); err != nil {
		return w.settings, err
	}
	return w.settings, nil
}

func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
