package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	timeNow     = func() time.Time { return time.Now().UTC() }
)

const (
	SettingsFile = "settings.yaml"
	EnvPrefix    = "TASKORG"
)

// Workspace is the settings store rooted at Root. settings is what the
// process runs with; stored is the file merged over defaults, without env.
type Workspace struct {
	Root     string
	settings Settings
	stored   Settings
	exists   bool
}

type Settings struct {
	OrganizerOnSave        bool           `yaml:"organizerOnSave" json:"organizerOnSave"`
	KeepSubtasksWithParent bool           `yaml:"keepSubtasksWithParent" json:"keepSubtasksWithParent"`
	Logger                 LoggerSettings `yaml:"logger" json:"logger"`
}

type LoggerSettings struct {
	Level        string `yaml:"level" json:"level"`
	Mode         string `yaml:"mode" json:"mode"`         // production|development
	Encoding     string `yaml:"encoding" json:"encoding"` // console|json
	ColorEnabled bool   `yaml:"colorEnabled" json:"colorEnabled"`
}

func DefaultSettings() Settings {
	return Settings{
		OrganizerOnSave:        true,
		KeepSubtasksWithParent: true,
		Logger: LoggerSettings{
			Level:    "info",
			Mode:     "production",
			Encoding: "console",
		},
	}
}

// Open opens a workspace rooted at root. A missing settings file yields
// defaults; nothing is written until Init or SaveSettings.
func Open(root string) (*Workspace, error) {
	ws := &Workspace{Root: expandHome(root)}
	if err := ws.loadSettings(); err != nil {
		return nil, err
	}
	return ws, nil
}

func (w *Workspace) Init() error {
	if err := os.MkdirAll(w.Root, 0o755); err != nil {
		return err
	}
	if w.exists {
		return nil
	}
	return w.SaveSettings(w.stored)
}

func (w *Workspace) SettingsPath() string {
	return filepath.Join(w.Root, SettingsFile)
}

// SettingsExist reports whether settings were read from disk.
func (w *Workspace) SettingsExist() bool {
	return w.exists
}

func (w *Workspace) Settings() Settings {
	return w.settings
}

// StoredSettings returns the persisted settings, ignoring TASKORG_* overrides.
// Edits start from here so an env override is never written back.
func (w *Workspace) StoredSettings() Settings {
	return w.stored
}

func setDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault("organizerOnSave", d.OrganizerOnSave)
	v.SetDefault("keepSubtasksWithParent", d.KeepSubtasksWithParent)
	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.mode", d.Logger.Mode)
	v.SetDefault("logger.encoding", d.Logger.Encoding)
	v.SetDefault("logger.colorEnabled", d.Logger.ColorEnabled)
}

func newViper(withEnv bool) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	if withEnv {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	setDefaults(v)
	return v
}

func (w *Workspace) loadSettings() error {
	effective, stored := newViper(true), newViper(false)

	path := w.SettingsPath()
	w.exists = false
	if _, err := os.Stat(path); err == nil {
		for _, v := range []*viper.Viper{effective, stored} {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("%w: settings %s: %v", ErrInvalid, path, err)
			}
		}
		w.exists = true
	}

	w.settings = settingsFrom(effective)
	w.stored = settingsFrom(stored)
	return nil
}

func settingsFrom(v *viper.Viper) Settings {
	return Settings{
		OrganizerOnSave:        v.GetBool("organizerOnSave"),
		KeepSubtasksWithParent: v.GetBool("keepSubtasksWithParent"),
		Logger: LoggerSettings{
			Level:        v.GetString("logger.level"),
			Mode:         v.GetString("logger.mode"),
			Encoding:     v.GetString("logger.encoding"),
			ColorEnabled: v.GetBool("logger.colorEnabled"),
		},
	}
}

// SaveSettings persists s and reloads, so TASKORG_* overrides still apply
// to Settings afterwards.
func (w *Workspace) SaveSettings(s Settings) error {
	b, err := yaml.Marshal(&s)
	if err != nil {
		return err
	}
	if err := atomicWriteFile(w.SettingsPath(), b, 0o644); err != nil {
		return err
	}
	return w.loadSettings()
}

// ReadDocument returns the text of the document at path.
func ReadDocument(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", err
	}
	return string(b), nil
}

// WriteDocument replaces the document at path, keeping its permissions.
// A symlink is followed so the target is rewritten and the link kept.
func WriteDocument(path string, content string) error {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	perm := fs.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		if fi.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrInvalid, path)
		}
		perm = fi.Mode().Perm()
	}
	return atomicWriteFile(path, []byte(content), perm)
}

// NewID returns an upper-case ULID.
func NewID() string {
	t := ulid.Timestamp(timeNow())
	entropy := ulid.Monotonic(randReader{}, 0)
	id, err := ulid.New(t, entropy)
	if err != nil {
		// fallback
		return fmt.Sprintf("%d", timeNow().UnixNano())
	}
	return strings.ToUpper(id.String())
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) || path == "~" {
		home, _ := os.UserHomeDir()
		if home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%d", timeNow().UnixNano()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Rename is atomic on same filesystem.
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
