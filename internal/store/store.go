// Package store persists the engine's schedules to a workspace file between
// CLI invocations. The engine itself holds no storage; the CLI loads the
// workspace, runs one command and saves the result.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joshharrison/planloom/internal/model"
)

const (
	currentVersion = 1
	historyDir     = "history"

	archiveLayout      = "20060102-150405.000"
	maxArchivesPerSave = 999
)

// Workspace is the on-disk form of every schedule the engine knows about.
type Workspace struct {
	Version   int               `json:"version" yaml:"version"`
	SavedAt   time.Time         `json:"saved_at" yaml:"saved_at"`
	Schedules []*model.Schedule `json:"schedules" yaml:"schedules"`

	mu   sync.Mutex `json:"-" yaml:"-"`
	path string
}

// New returns an empty workspace bound to path. Nothing is written until Save.
func New(path string) *Workspace {
	return &Workspace{Version: currentVersion, path: path}
}

// Path returns the file the workspace is bound to.
func (w *Workspace) Path() string { return w.path }

// Load reads the workspace at path. The encoding follows the extension:
// .yaml and .yml are YAML, anything else JSON.
func Load(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}

	w := &Workspace{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, w)
	} else {
		err = json.Unmarshal(data, w)
	}
	if err != nil {
		return nil, fmt.Errorf("parse workspace %s: %w", path, err)
	}
	if w.Version > currentVersion {
		return nil, fmt.Errorf("workspace %s has version %d, newest supported is %d", path, w.Version, currentVersion)
	}
	w.Version = currentVersion
	w.path = path
	return w, nil
}

// Open loads the workspace at path, or returns an empty one if the file does
// not exist yet.
func Open(path string) (*Workspace, error) {
	if !Exists(path) {
		return New(path), nil
	}
	return Load(path)
}

// Exists checks if a workspace file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Save persists the workspace, creating its directory if needed.
func (w *Workspace) Save() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}
	w.SavedAt = time.Now().UTC()

	data, err := w.encode()
	if err != nil {
		return fmt.Errorf("marshal workspace: %w", err)
	}
	// Readers never observe a partially written file.
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write workspace: %w", err)
	}
	return os.Rename(tmp, w.path)
}

func (w *Workspace) encode() ([]byte, error) {
	if isYAML(w.path) {
		return yaml.Marshal(w)
	}
	return json.MarshalIndent(w, "", "  ")
}

// SetSchedules replaces the stored schedules.
func (w *Workspace) SetSchedules(schedules []*model.Schedule) {
	w.mu.Lock()
	w.Schedules = schedules
	w.mu.Unlock()
}

// Archive copies the current workspace file into the history directory next
// to it, named by the save timestamp to the millisecond, and returns the
// archive id. Archives of the same save get a -NNN suffix.
func (w *Workspace) Archive() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		return "", fmt.Errorf("read workspace: %w", err)
	}
	dir := filepath.Join(filepath.Dir(w.path), historyDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create history dir: %w", err)
	}

	base := w.SavedAt.UTC().Format(archiveLayout)
	for n := 1; n <= maxArchivesPerSave; n++ {
		id := base
		if n > 1 {
			id = fmt.Sprintf("%s-%03d", base, n)
		}
		f, err := os.OpenFile(filepath.Join(dir, id+filepath.Ext(w.path)), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create archive: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("write archive: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("write archive: %w", err)
		}
		return id, nil
	}
	return "", fmt.Errorf("too many archives for save %s", base)
}

// ListHistory returns archive ids for the workspace at path, newest first.
func ListHistory(path string) ([]string, error) {
	dir := filepath.Join(filepath.Dir(path), historyDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// LoadArchived reads one archived copy of the workspace at path.
func LoadArchived(path, id string) (*Workspace, error) {
	archived := filepath.Join(filepath.Dir(path), historyDir, id+filepath.Ext(path))
	w, err := Load(archived)
	if err != nil {
		return nil, err
	}
	w.path = path
	return w, nil
}

// Clean removes the workspace file and its history.
func Clean(path string) error {
	if err := os.RemoveAll(filepath.Join(filepath.Dir(path), historyDir)); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
